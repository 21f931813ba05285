// Package prompt renders an APIContext into a single LLM request prompt.
// Pure rendering; no network or I/O side effects.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

const (
	// Larger related-type sets are omitted from the prompt as noise.
	maxRelatedTypes = 10
	// Only the first few call sites are rendered to bound prompt size.
	maxRenderedExamples = 3
)

const promptTemplate = `You are a technical writer producing XML documentation comments for public APIs.

API signature:
{{.Signature}}
{{if .Parameters}}
Parameters:
{{range .Parameters}}- {{.Type}} {{.Name}}
{{end}}{{end}}{{if .ReturnType}}
Returns: {{.ReturnType}}
{{end}}{{if .Inheritance}}
Type hierarchy: {{.Inheritance}}
{{end}}{{if .RelatedTypes}}
Related types: {{.RelatedTypes}}
{{end}}{{if .InheritedDoc}}
Inherited documentation:
{{.InheritedDoc}}
{{end}}{{if .Implementation}}
Implementation{{if .Truncated}} (truncated){{end}}:
{{.Implementation}}
{{end}}{{if .CalledDocs}}
Documentation of methods this API calls:
{{range .CalledDocs}}- {{.MethodName}}: {{.Documentation}}
{{end}}{{end}}{{range $i, $e := .Examples}}
Example {{inc $i}} ({{$e.FilePath}}:{{$e.Line}}):
{{range $e.Before}}{{.}}
{{end}}{{$e.CallLine}}
{{range $e.After}}{{.}}
{{end}}{{end}}
Output format (required):
<summary>One or two sentences describing what the API does.</summary>
{{range .Parameters}}<param name="{{.Name}}">Describe this parameter.</param>
{{end}}{{if .ReturnType}}<returns>Describe the return value.</returns>
{{end}}
Style guidelines:
- Write in present tense, third person ("Gets...", "Computes...").
- Describe behavior and contracts, not implementation details.
- Keep the summary under two sentences; no marketing language.
- Do not repeat the signature or parameter types in prose.
- Output only the XML tags above, no markdown fences or commentary.

Worked example:
<summary>Retrieves the user profile for the given identifier.</summary>
<param name="userId">The unique identifier of the user.</param>
<returns>The matching profile, or null when no user exists.</returns>`

// Builder is a stateless prompt renderer.
type Builder struct {
	tmpl *template.Template
}

// New compiles the prompt template once.
func New() *Builder {
	tmpl := template.Must(template.New("prompt").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(promptTemplate))
	return &Builder{tmpl: tmpl}
}

type templateData struct {
	Signature      string
	Parameters     []domain.ParameterInfo
	ReturnType     string
	Inheritance    string
	RelatedTypes   string
	InheritedDoc   string
	Implementation string
	Truncated      bool
	CalledDocs     []domain.CalledMethodDoc
	Examples       []domain.CallSiteInfo
}

// Build implements ports.PromptBuilder.
func (b *Builder) Build(symbol domain.APISymbol, apiCtx domain.APIContext) (string, error) {
	data := templateData{
		Signature:      symbol.Signature,
		Parameters:     apiCtx.Parameters,
		ReturnType:     apiCtx.ReturnType,
		Inheritance:    renderHierarchy(apiCtx.Inheritance),
		InheritedDoc:   apiCtx.InheritedDoc,
		Implementation: apiCtx.Implementation,
		Truncated:      apiCtx.ImplementationTruncated,
		CalledDocs:     apiCtx.CalledMethodDocs,
		Examples:       boundedExamples(apiCtx.CallSites),
	}
	if len(apiCtx.RelatedTypes) > 0 && len(apiCtx.RelatedTypes) <= maxRelatedTypes {
		data.RelatedTypes = strings.Join(apiCtx.RelatedTypes, ", ")
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func renderHierarchy(hierarchy []string) string {
	if len(hierarchy) == 0 {
		return ""
	}
	return strings.Join(hierarchy, " -> ")
}

func boundedExamples(sites []domain.CallSiteInfo) []domain.CallSiteInfo {
	if len(sites) <= maxRenderedExamples {
		return sites
	}
	return sites[:maxRenderedExamples]
}

var _ ports.PromptBuilder = (*Builder)(nil)
