package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Color palette.
var (
	colorRed     = lipgloss.Color("#ff5555")
	colorGreen   = lipgloss.Color("#50fa7b")
	colorYellow  = lipgloss.Color("#f1fa8c")
	colorBlue    = lipgloss.Color("#8be9fd")
	colorPurple  = lipgloss.Color("#bd93f9")
	colorDim     = lipgloss.Color("#6272a4")
	colorBg      = lipgloss.Color("#282a36")
	colorBgLight = lipgloss.Color("#343746")
	colorFg      = lipgloss.Color("#f8f8f2")
	colorOrange  = lipgloss.Color("#ffb86c")
	colorBorder  = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Header
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	onlineDotStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	// Language selector
	langStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	langSelectedStyle = lipgloss.NewStyle().
				Foreground(colorBg).
				Background(colorBlue).
				Bold(true).
				Padding(0, 1)

	// Editor and preview
	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	// Buttons
	buttonStyle = lipgloss.NewStyle().
			Foreground(colorBg).
			Background(colorPurple).
			Bold(true).
			Padding(0, 2)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Background(colorBgLight).
				Padding(0, 2)

	// Result panel
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	panelErrorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(0, 1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorBg).
			Bold(true).
			Padding(0, 1)

	// Offline placeholder
	offlineTitleStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	offlineTextStyle = lipgloss.NewStyle().
				Foreground(colorFg)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorOrange)
)

// severityColors maps badge colors; unknown levels fall back to yellow.
var severityColors = map[model.Severity]lipgloss.Color{
	model.SeverityLow:      colorGreen,
	model.SeverityMedium:   colorYellow,
	model.SeverityHigh:     colorOrange,
	model.SeverityCritical: colorRed,
}

func severityBadge(r model.ReviewResult) string {
	color := colorYellow
	if s, ok := model.ParseSeverity(r.Severity()); ok {
		color = severityColors[s]
	}
	return badgeStyle.Background(color).Render("Severity: " + r.SeverityLabel())
}
