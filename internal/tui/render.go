package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sprite-ai/reviewdesk/internal/diff"
	"github.com/sprite-ai/reviewdesk/internal/model"
	"github.com/sprite-ai/reviewdesk/internal/reviewstate"
)

// Fixed copy shown by the interface.
const (
	headerTitle       = "Code Review Agent"
	submitLabel       = "Review Code"
	loadingLabel      = "Analyzing..."
	clearLabel        = "Clear"
	resultPlaceholder = "Your code review will appear here"
	offlineTitle      = "No Internet Connection"
	offlineMessage    = "Please check your internet connection and try again."
)

// renderResultPanel maps a request state onto exactly one result-area
// rendering: placeholder, error, or review.
func renderResultPanel(state reviewstate.State, width int) string {
	inner := width - 4 // borders + padding
	if inner < 10 {
		inner = 10
	}

	switch state.Panel() {
	case reviewstate.PanelError:
		msg, _ := state.Message()
		return panelErrorStyle.Width(inner).Render(msg)

	case reviewstate.PanelResult:
		res, _ := state.Result()
		return panelStyle.Width(inner).Render(renderReview(res, inner))

	default:
		return panelStyle.Width(inner).Render(placeholderStyle.Render(resultPlaceholder))
	}
}

func renderReview(res model.ReviewResult, width int) string {
	var b strings.Builder
	b.WriteString(severityBadge(res))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Review"))
	b.WriteByte('\n')
	b.WriteString(lipgloss.NewStyle().Width(width).Render(res.Review))

	if res.HasSuggestions() {
		b.WriteString("\n\n")
		b.WriteString(sectionStyle.Render("Suggestions"))
		for _, s := range res.Suggestions {
			b.WriteByte('\n')
			b.WriteString(lipgloss.NewStyle().Width(width).Render("• " + s))
		}
	}
	return b.String()
}

// renderCode renders a read-only, syntax highlighted view of code with line
// numbers, clipped to height lines.
func renderCode(lang model.Language, code string, width, height int) string {
	if code == "" {
		return placeholderStyle.Render("Nothing to preview")
	}

	highlighted := diff.Highlight(lang, code)
	if height > 0 && len(highlighted) > height {
		highlighted = highlighted[:height]
	}

	var b strings.Builder
	for i, hl := range highlighted {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lineNumberStyle.Render(fmt.Sprint(i + 1)))
		b.WriteString(" ")
		b.WriteString(renderTokens(hl, width-5))
	}
	return b.String()
}

func renderTokens(hl diff.HighlightedLine, width int) string {
	var b strings.Builder
	used := 0
	for _, tok := range hl.Tokens {
		text := strings.ReplaceAll(tok.Text, "\t", "    ")
		w := runewidth.StringWidth(text)
		if width > 0 && used+w > width {
			text = truncate(text, width-used)
			w = runewidth.StringWidth(text)
		}
		used += w
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(text))
		} else {
			b.WriteString(text)
		}
		if width > 0 && used >= width {
			break
		}
	}
	return b.String()
}

func renderLanguageBar(selected model.Language, disabled bool) string {
	var parts []string
	for _, lang := range model.Languages() {
		style := langStyle
		if lang == selected {
			style = langSelectedStyle
			if disabled {
				style = style.Background(colorDim)
			}
		}
		parts = append(parts, style.Render(lang.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderButtons(loading, canSubmit, canClear bool, spin string) string {
	submit := buttonStyle.Render(submitLabel)
	switch {
	case loading:
		submit = buttonDisabledStyle.Render(spin + " " + loadingLabel)
	case !canSubmit:
		submit = buttonDisabledStyle.Render(submitLabel)
	}

	clear := buttonStyle.Background(colorBorder).Foreground(colorFg).Render(clearLabel)
	if !canClear {
		clear = buttonDisabledStyle.Render(clearLabel)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, submit, "  ", clear)
}

func renderOffline(width, height int) string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		offlineTitleStyle.Render(offlineTitle),
		"",
		offlineTextStyle.Render(offlineMessage),
	)
	if width <= 0 || height <= 0 {
		return body
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

// truncate cuts s to at most max terminal cells, marking the cut with "…".
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "…")
}
