package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// clipboardMsg reports the outcome of a copy.
type clipboardMsg struct {
	err error
}

// formatForClipboard renders a review as plain text.
func formatForClipboard(res model.ReviewResult) string {
	var b strings.Builder
	b.WriteString("Severity: ")
	b.WriteString(res.SeverityLabel())
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(res.Review))
	b.WriteByte('\n')
	if res.HasSuggestions() {
		b.WriteString("\nSuggestions:\n")
		for _, s := range res.Suggestions {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: write(text)}
	}
}

// systemClipboard writes to the OS clipboard.
func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
