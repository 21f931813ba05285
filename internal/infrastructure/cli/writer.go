package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

// PreviewWriter prints accepted drafts for review. Physical insertion into
// source files belongs to the writer collaborator.
type PreviewWriter struct {
	out io.Writer
}

// NewPreviewWriter creates a PreviewWriter.
func NewPreviewWriter(out io.Writer) *PreviewWriter {
	return &PreviewWriter{out: out}
}

// Write implements ports.DocWriter.
func (w *PreviewWriter) Write(_ context.Context, docs []domain.GeneratedDocumentation) error {
	sorted := append([]domain.GeneratedDocumentation(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].FilePath != sorted[j].FilePath {
			return sorted[i].FilePath < sorted[j].FilePath
		}
		return sorted[i].Symbol.Line < sorted[j].Symbol.Line
	})

	for _, doc := range sorted {
		fmt.Fprintf(w.out, "\n%s:%d %s\n", doc.FilePath, doc.Symbol.Line, doc.Symbol.FullName)
		fmt.Fprintln(w.out, doc.Documentation)
	}
	return nil
}

var _ ports.DocWriter = (*PreviewWriter)(nil)
