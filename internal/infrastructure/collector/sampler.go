package collector

import (
	"context"
	"sort"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/ports"
)

// scoredLocation pairs a reference location with its diversity score.
type scoredLocation struct {
	loc   domain.ReferenceLocation
	score float64
}

// SampleCallSites selects a diverse, bounded subset of usage examples with
// surrounding context lines. When the candidate count is within maxExamples
// every location is used; otherwise locations are scored for diversity:
// references in files with fewer total references score higher, with a small
// monotonic bonus for later line numbers to spread selection across a file.
func SampleCallSites(ctx context.Context, analyzer ports.Analyzer, refs []domain.ReferenceLocation, maxExamples, contextLines int) []domain.CallSiteInfo {
	if len(refs) == 0 || maxExamples <= 0 {
		return nil
	}

	selected := refs
	if len(refs) > maxExamples {
		selected = pickDiverse(refs, maxExamples)
	}

	sites := make([]domain.CallSiteInfo, 0, len(selected))
	for _, loc := range selected {
		site, ok := extractSite(ctx, analyzer, loc, contextLines)
		if !ok {
			continue
		}
		sites = append(sites, site)
	}
	return sites
}

// pickDiverse returns the top-n locations by diversity score, descending.
// The weights are a tunable heuristic, not a contract.
func pickDiverse(refs []domain.ReferenceLocation, n int) []domain.ReferenceLocation {
	perFile := make(map[string]int, len(refs))
	for _, loc := range refs {
		perFile[loc.FilePath]++
	}

	scored := make([]scoredLocation, 0, len(refs))
	for _, loc := range refs {
		score := 100.0 / float64(perFile[loc.FilePath])
		score += float64(loc.Line) / 10000.0
		scored = append(scored, scoredLocation{loc: loc, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	picked := make([]domain.ReferenceLocation, 0, n)
	for _, s := range scored[:n] {
		picked = append(picked, s.loc)
	}
	return picked
}

// extractSite reads contextLines lines before and after the call line,
// clipped to file boundaries. The call line itself is always included.
func extractSite(ctx context.Context, analyzer ports.Analyzer, loc domain.ReferenceLocation, contextLines int) (domain.CallSiteInfo, bool) {
	lines, err := analyzer.FileLines(ctx, loc.FilePath)
	if err != nil || len(lines) == 0 {
		return domain.CallSiteInfo{}, false
	}

	idx := loc.Line - 1
	if idx < 0 || idx >= len(lines) {
		return domain.CallSiteInfo{}, false
	}

	start := idx - contextLines
	if start < 0 {
		start = 0
	}
	end := idx + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}

	return domain.CallSiteInfo{
		FilePath: loc.FilePath,
		Line:     loc.Line,
		Before:   append([]string(nil), lines[start:idx]...),
		After:    append([]string(nil), lines[idx+1:end]...),
		CallLine: lines[idx],
	}, true
}
