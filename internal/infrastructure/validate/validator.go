// Package validate checks raw LLM responses against the required-tag
// contract for XML documentation comments and attempts structural repair of
// noisy responses before rejecting them.
package validate

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

// knownOpenTag matches the first documentation tag in a noisy response.
var knownOpenTag = regexp.MustCompile(`<(summary|param|returns|remarks|exception|example|value)[\s>]`)

// closingTag matches any closing tag; the last occurrence bounds the repair.
var closingTag = regexp.MustCompile(`</[a-zA-Z]+>`)

// Validator enforces the required-tag contract: a non-empty summary, one
// param tag per parameter, and a returns tag for non-void APIs. Extra tags
// such as remarks or exception are permitted.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// docTag is one top-level element of the parsed fragment.
type docTag struct {
	name      string
	paramName string
	text      string
}

// Validate implements ports.OutputValidator.
func (v *Validator) Validate(raw string, apiCtx domain.APIContext) domain.ValidationResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return domain.ValidationResult{Issues: []string{"empty response"}}
	}

	result := domain.ValidationResult{}
	tags, err := parseFragment(text)
	if err != nil {
		extracted, ok := extractFragment(text)
		if ok {
			tags, err = parseFragment(extracted)
			if err == nil {
				result.CleanedText = extracted
			}
		}
		if err != nil {
			result.Issues = append(result.Issues, "response is not a well-formed documentation fragment")
			return result
		}
	}

	result.Issues = append(result.Issues, checkRequiredTags(tags, apiCtx)...)
	result.IsValid = len(result.Issues) == 0
	return result
}

// parseFragment performs a strict structural parse of the response as an XML
// fragment, returning its top-level tags.
func parseFragment(text string) ([]docTag, error) {
	dec := xml.NewDecoder(strings.NewReader("<doc>" + text + "</doc>"))
	var tags []docTag
	var current *docTag
	var buf strings.Builder
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				current = &docTag{name: t.Name.Local}
				for _, attr := range t.Attr {
					if attr.Name.Local == "name" {
						current.paramName = attr.Value
					}
				}
				buf.Reset()
			}
		case xml.EndElement:
			if depth == 2 && current != nil {
				current.text = strings.TrimSpace(buf.String())
				tags = append(tags, *current)
				current = nil
			}
			depth--
		case xml.CharData:
			if depth >= 2 {
				buf.Write(t)
			}
		}
	}
	return tags, nil
}

// extractFragment locates an embedded well-formed span inside a noisy
// response: from the first recognizable documentation tag through the last
// closing tag.
func extractFragment(text string) (string, bool) {
	start := knownOpenTag.FindStringIndex(text)
	if start == nil {
		return "", false
	}
	closes := closingTag.FindAllStringIndex(text, -1)
	if len(closes) == 0 {
		return "", false
	}
	end := closes[len(closes)-1][1]
	if end <= start[0] {
		return "", false
	}
	return strings.TrimSpace(text[start[0]:end]), true
}

// checkRequiredTags appends one distinct, human-readable issue per missing
// requirement.
func checkRequiredTags(tags []docTag, apiCtx domain.APIContext) []string {
	var issues []string

	summary, found := findTag(tags, "summary")
	switch {
	case !found:
		issues = append(issues, "missing <summary> tag")
	case summary.text == "":
		issues = append(issues, "<summary> tag is empty")
	}

	for _, param := range apiCtx.Parameters {
		count := 0
		for _, tag := range tags {
			if tag.name == "param" && tag.paramName == param.Name {
				count++
			}
		}
		switch {
		case count == 0:
			issues = append(issues, fmt.Sprintf("missing <param> tag for parameter %q", param.Name))
		case count > 1:
			issues = append(issues, fmt.Sprintf("duplicate <param> tags for parameter %q", param.Name))
		}
	}

	if apiCtx.ReturnType != "" {
		if _, found := findTag(tags, "returns"); !found {
			issues = append(issues, "missing <returns> tag for non-void API")
		}
	}
	return issues
}

func findTag(tags []docTag, name string) (docTag, bool) {
	for _, tag := range tags {
		if tag.name == name {
			return tag, true
		}
	}
	return docTag{}, false
}

var _ ports.OutputValidator = (*Validator)(nil)
