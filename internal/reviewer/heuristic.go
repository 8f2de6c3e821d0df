package reviewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/analysis"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

// advice per finding category; each line carries a suggestion marker
var advice = map[string]string{
	"hardcoded secret":       "Consider loading credentials from the environment or a secret store",
	"TLS verification":       "Use certificate verification for outbound connections",
	"SQL injection":          "Use parameterized queries instead of building SQL from strings",
	"dynamic code execution": "Consider replacing dynamic evaluation with explicit parsing",
	"subprocess":             "Consider validating arguments passed to external commands",
	"weak cryptography":      "Use a modern hash function or a cryptographically secure random source",
	"unsafe memory":          "Consider bounds-checked alternatives to unchecked memory operations",
	"path traversal":         "Consider cleaning and confining paths derived from input",
	"failure handling":       "Consider handling specific failures instead of discarding them",
	"maintainability":        "Consider removing leftover debug output and commented-out code",
	"duplication":            "Consider extracting the repeated block into a shared function",
}

// Heuristic reviews code with the static analysis passes. It needs no
// network access.
type Heuristic struct {
	skip []string
}

// NewHeuristic returns a Heuristic reviewer that skips the named passes.
func NewHeuristic(skip ...string) *Heuristic {
	return &Heuristic{skip: skip}
}

// Review implements Reviewer.
func (h *Heuristic) Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := analysis.Source{Language: req.Language, Code: req.Code}
	results := analysis.Run(src, h.skip)
	summary := summarize(src, results)

	var steps []string
	seen := make(map[string]bool)
	for _, f := range results.Findings {
		text, ok := advice[f.Category]
		if !ok || seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		steps = append(steps, fmt.Sprintf("- %s (line %d).", text, f.Line))
	}

	review := summary
	if len(steps) > 0 {
		review += "\n\n" + strings.Join(steps, "\n")
	}

	severity := results.MaxSeverity()
	if kw := DetermineSeverity(summary); kw > severity {
		severity = kw
	}

	return &model.ReviewResult{
		Review:        review,
		Suggestions:   ExtractSuggestions(review),
		SeverityLevel: severity.String(),
	}, nil
}

// summarize writes two or three sentences describing the findings.
func summarize(src analysis.Source, results *analysis.Results) string {
	lines := len(src.Lines())
	noun := "lines"
	if lines == 1 {
		noun = "line"
	}
	opening := fmt.Sprintf("Reviewed %d %s of %s code.", lines, noun, src.Language.Label())

	if len(results.Findings) == 0 {
		return opening + " The static checks found no issues."
	}

	worst := results.Findings[0]
	for _, f := range results.Findings[1:] {
		if f.Severity > worst.Severity {
			worst = f
		}
	}

	count := "finding"
	if len(results.Findings) != 1 {
		count = "findings"
	}
	return fmt.Sprintf("%s The static checks raised %d %s (%s). The most serious is %s on line %d.",
		opening, len(results.Findings), count, results.Summary(), worst.Category, worst.Line)
}
