// Package model defines the core data types shared across reviewdesk.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Language is one of the source languages the review service accepts.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangGo         Language = "go"
	LangRust       Language = "rust"
)

// DefaultLanguage is selected when nothing else is configured.
const DefaultLanguage = LangPython

var languages = []Language{
	LangPython,
	LangJavaScript,
	LangTypeScript,
	LangJava,
	LangCPP,
	LangCSharp,
	LangGo,
	LangRust,
}

var languageLabels = map[Language]string{
	LangPython:     "Python",
	LangJavaScript: "JavaScript",
	LangTypeScript: "TypeScript",
	LangJava:       "Java",
	LangCPP:        "C++",
	LangCSharp:     "C#",
	LangGo:         "Go",
	LangRust:       "Rust",
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Valid reports whether l is one of the supported identifiers.
func (l Language) Valid() bool {
	_, ok := languageLabels[l]
	return ok
}

// Label returns the human readable name, e.g. "C++" for cpp.
func (l Language) Label() string {
	if s, ok := languageLabels[l]; ok {
		return s
	}
	return string(l)
}

// Next returns the language after l in display order, wrapping around.
func (l Language) Next() Language {
	return l.offset(1)
}

// Prev returns the language before l in display order, wrapping around.
func (l Language) Prev() Language {
	return l.offset(-1)
}

func (l Language) offset(d int) Language {
	idx := 0
	for i, lang := range languages {
		if lang == l {
			idx = i
			break
		}
	}
	n := len(languages)
	return languages[((idx+d)%n+n)%n]
}

// ParseLanguage converts a user supplied identifier into a Language.
// Matching is case-insensitive; an empty string yields DefaultLanguage.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLanguage, nil
	}
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}

// Severity is the coarse rating attached to a review.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a wire value onto a Severity. Unknown values report
// ok=false and SeverityLow.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return SeverityLow, false
	}
}

// ReviewRequest is the body posted to /review.
type ReviewRequest struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
}

// ReviewResult is the success body returned by /review.
type ReviewResult struct {
	Review        string   `json:"review"`
	SeverityLevel string   `json:"severity_level,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// Severity returns the declared severity level, defaulting to "low" when the
// service omitted it. Unknown values are passed through unchanged.
func (r ReviewResult) Severity() string {
	if strings.TrimSpace(r.SeverityLevel) == "" {
		return SeverityLow.String()
	}
	return r.SeverityLevel
}

// SeverityLabel is the badge text, e.g. "MEDIUM".
func (r ReviewResult) SeverityLabel() string {
	return strings.ToUpper(r.Severity())
}

// Rank returns the parsed severity used for exit codes and ordering.
func (r ReviewResult) Rank() Severity {
	s, _ := ParseSeverity(r.Severity())
	return s
}

// HasSuggestions reports whether a suggestion list should be shown.
func (r ReviewResult) HasSuggestions() bool {
	return len(r.Suggestions) > 0
}

// ErrorPayload is the body returned by the service on failure.
type ErrorPayload struct {
	Detail string `json:"detail"`
}

// BatchItem is one entry in a /batch-review response: either a result or an
// error message.
type BatchItem struct {
	ReviewResult
	Error string `json:"error,omitempty"`
}

// Failed reports whether the item carries an error instead of a review.
func (b BatchItem) Failed() bool {
	return b.Error != ""
}

// MarshalJSON writes a failed item as {"error": msg} alone and a successful
// one as a plain ReviewResult.
func (b BatchItem) MarshalJSON() ([]byte, error) {
	if b.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{b.Error})
	}
	return json.Marshal(b.ReviewResult)
}

// BatchResponse is the body returned by /batch-review.
type BatchResponse struct {
	Reviews []BatchItem `json:"reviews"`
}

// HealthStatus is the body returned by /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}
