// Package reviewer produces code reviews for the companion service.
package reviewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/reviewdesk/internal/config"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Reviewer reviews a single snippet.
type Reviewer interface {
	Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error)
}

// New returns the reviewer selected by the server config.
func New(cfg config.ServerConfig, log zerolog.Logger) (Reviewer, error) {
	switch cfg.Reviewer {
	case config.ReviewerHeuristic, "":
		return NewHeuristic(), nil
	case config.ReviewerChat:
		return NewChat(cfg.Chat, WithChatLogger(log))
	default:
		return nil, fmt.Errorf("unknown reviewer %q", cfg.Reviewer)
	}
}

// FallbackSuggestion is returned when a review contains no actionable lines.
const FallbackSuggestion = "Review the code structure and naming conventions"

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 5

// SystemPrompt instructs chat models how to review.
const SystemPrompt = `You are an expert code reviewer. Analyze the provided code and:
1. Identify bugs, performance issues, and security concerns
2. Provide specific improvement suggestions
3. Rate severity (critical, high, medium, low)
4. Suggest best practices

Be concise but thorough. Focus on actionable feedback.`

var suggestionMarkers = []string{"suggest", "improve", "consider", "use"}

// BuildPrompt renders the user message for a review request.
func BuildPrompt(req model.ReviewRequest) string {
	lang := string(req.Language)
	return fmt.Sprintf(`Review this %s code and provide:
1. A summary review (2-3 sentences)
2. 3-5 specific suggestions for improvement
3. Overall severity level (critical/high/medium/low)

Code:
`+"```%s\n%s\n```", lang, lang, req.Code)
}

// ExtractSuggestions keeps the non-blank lines of text that mention a
// suggestion marker, up to MaxSuggestions. Leading list bullets are removed.
func ExtractSuggestions(text string) []string {
	var suggestions []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, marker := range suggestionMarkers {
			if strings.Contains(lower, marker) {
				suggestions = append(suggestions, trimBullet(trimmed))
				break
			}
		}
		if len(suggestions) == MaxSuggestions {
			break
		}
	}
	if len(suggestions) == 0 {
		return []string{FallbackSuggestion}
	}
	return suggestions
}

func trimBullet(s string) string {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// DetermineSeverity rates free text by keyword, most severe first.
func DetermineSeverity(text string) model.Severity {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "critical") || strings.Contains(lower, "security"):
		return model.SeverityCritical
	case strings.Contains(lower, "bug") || strings.Contains(lower, "error"):
		return model.SeverityHigh
	case strings.Contains(lower, "improve") || strings.Contains(lower, "refactor"):
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// FromText builds a result from free review text.
func FromText(text string) *model.ReviewResult {
	return &model.ReviewResult{
		Review:        text,
		Suggestions:   ExtractSuggestions(text),
		SeverityLevel: DetermineSeverity(text).String(),
	}
}
