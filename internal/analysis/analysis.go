// Package analysis implements static analysis passes over code snippets.
package analysis

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Source is a snippet submitted for analysis.
type Source struct {
	Name     string // display name, e.g. a file path; may be empty
	Language model.Language
	Code     string
}

// Line is one line of a Source, numbered from 1.
type Line struct {
	Num  int
	Text string
}

// Lines splits the source into numbered lines.
func (s Source) Lines() []Line {
	var lines []Line
	sc := bufio.NewScanner(strings.NewReader(s.Code))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		lines = append(lines, Line{Num: n, Text: sc.Text()})
	}
	return lines
}

// Finding represents a single analysis finding attached to a line.
type Finding struct {
	Pass     string // which analysis pass produced this
	File     string
	Line     int // 0 if snippet-level
	Category string
	Message  string
	Severity model.Severity
}

// Results holds all findings from running analysis passes.
type Results struct {
	Findings []Finding
}

// AtLeast returns findings at or above the given severity.
func (r *Results) AtLeast(min model.Severity) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Severity >= min {
			result = append(result, f)
		}
	}
	return result
}

// MaxSeverity returns the highest severity among all findings.
func (r *Results) MaxSeverity() model.Severity {
	max := model.SeverityLow
	for _, f := range r.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}

// Summary returns a one-line summary of findings.
func (r *Results) Summary() string {
	if len(r.Findings) == 0 {
		return "No issues found"
	}

	counts := make(map[model.Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}

	var parts []string
	for _, level := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		if c := counts[level]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, level))
		}
	}
	return strings.Join(parts, ", ")
}

// Pass is a function that analyzes a snippet and returns findings.
type Pass func(src Source) []Finding

type namedPass struct {
	name string
	pass Pass
}

// passes in execution order
var passes = []namedPass{
	{"security", SecurityPass},
	{"anti_patterns", AntiPatternPass},
	{"duplication", DuplicationPass},
}

// PassNames lists the pass names accepted by Run's skip list.
func PassNames() []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.name
	}
	return names
}

// Run executes all passes (or a subset) and returns the aggregated results.
func Run(src Source, skip []string) *Results {
	skipSet := make(map[string]bool)
	for _, s := range skip {
		skipSet[s] = true
	}

	results := &Results{}
	for _, p := range passes {
		if skipSet[p.name] {
			continue
		}
		results.Findings = append(results.Findings, p.pass(src)...)
	}

	return results
}

// isComment reports whether a trimmed line is a comment in the given
// language.
func isComment(lang model.Language, trimmed string) bool {
	if lang == model.LangPython {
		return strings.HasPrefix(trimmed, "#")
	}
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
}
