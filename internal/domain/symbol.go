// Package domain defines core business entities and value objects for docify.
//
// This file contains the API symbol model produced by the semantic analysis
// collaborator. The domain layer is independent of infrastructure concerns
// and represents pure business logic and data structures.
package domain

// SymbolKind classifies a documentable declaration.
type SymbolKind string

const (
	KindType     SymbolKind = "type"
	KindMethod   SymbolKind = "method"
	KindProperty SymbolKind = "property"
	KindEvent    SymbolKind = "event"
	KindField    SymbolKind = "field"
)

// DocStatus describes the current documentation state of a symbol.
type DocStatus string

const (
	DocStatusUndocumented DocStatus = "undocumented"
	DocStatusPartial      DocStatus = "partially-documented"
	DocStatusDocumented   DocStatus = "documented"
	DocStatusStale        DocStatus = "stale"
)

// NeedsDocumentation reports whether the symbol is a generation candidate
// under the default status filter.
func (s DocStatus) NeedsDocumentation() bool {
	return s == DocStatusUndocumented || s == DocStatusPartial || s == DocStatusStale
}

// APISymbol identifies one documentable element discovered by the analysis
// collaborator. It is read-only to the generation pipeline.
type APISymbol struct {
	ID          string     `json:"id"`
	Kind        SymbolKind `json:"kind"`
	FullName    string     `json:"fullName"`
	FilePath    string     `json:"filePath"`
	Line        int        `json:"line"`
	Signature   string     `json:"signature"`
	AccessLevel string     `json:"accessLevel"`
	IsStatic    bool       `json:"isStatic"`
	DocStatus   DocStatus  `json:"docStatus"`
}

// ParameterInfo describes one parameter of an API symbol.
type ParameterInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SignatureParts is the decomposed signature of a resolved symbol.
type SignatureParts struct {
	Parameters   []ParameterInfo `json:"parameters"`
	ReturnType   string          `json:"returnType"` // empty for void
	Inheritance  []string        `json:"inheritance"`
	RelatedTypes []string        `json:"relatedTypes"`
	InheritedDoc string          `json:"inheritedDoc"`
}

// ReferenceLocation is one place in source where a symbol is referenced.
type ReferenceLocation struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"line"` // 1-based
}

// CallSiteInfo is one usage example with surrounding context lines.
// Created transiently during context collection; never persisted.
type CallSiteInfo struct {
	FilePath string
	Line     int // 1-based
	Before   []string
	After    []string
	CallLine string
}

// CalledMethodDoc carries documentation copied from an internally-invoked
// method. Only fresh entries survive into an APIContext.
type CalledMethodDoc struct {
	MethodName    string
	Documentation string
	IsFresh       bool
}

// APIContext is the complete evidence bundle for one API. It is immutable
// once built; one instance per generation attempt.
type APIContext struct {
	Parameters              []ParameterInfo
	ReturnType              string // empty for void
	Inheritance             []string
	RelatedTypes            []string
	InheritedDoc            string
	CallSites               []CallSiteInfo
	Implementation          string
	ImplementationTruncated bool
	CalledMethodDocs        []CalledMethodDoc
	TokenEstimate           int
}

// GeneratedDocumentation is the final accepted artifact for one API,
// consumed by the writer collaborator.
type GeneratedDocumentation struct {
	Symbol        APISymbol
	Documentation string
	FilePath      string
}

// StalenessResult is the verdict of the optional staleness collaborator.
type StalenessResult struct {
	IsStale  bool
	Severity string
}
