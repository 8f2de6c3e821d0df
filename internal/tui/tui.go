// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/connectivity"
	"github.com/sprite-ai/reviewdesk/internal/model"
	"github.com/sprite-ai/reviewdesk/internal/reviewstate"
)

// Options configures the interactive client.
type Options struct {
	Client   client.Reviewer
	Language model.Language
	Code     string // initial editor contents
	APIURL   string // shown in the header

	// Online is the state shown before the first connectivity update.
	Online bool
	// Connectivity delivers online/offline transitions. Nil means the
	// state never changes.
	Connectivity <-chan bool

	Logger zerolog.Logger
}

// reviewDoneMsg carries the outcome of one ticket's network call.
type reviewDoneMsg struct {
	ticket reviewstate.Ticket
	result *model.ReviewResult
	err    error
}

// connectivityMsg is an online/offline transition. ok is false once the
// source channel is closed.
type connectivityMsg struct {
	online bool
	ok     bool
}

// Model is the top-level Bubble Tea model for reviewdesk.
type Model struct {
	ctx     context.Context
	client  client.Reviewer
	session *reviewstate.Session
	log     zerolog.Logger
	apiURL  string

	editor  textarea.Model
	spinner spinner.Model
	help    help.Model

	online bool
	conn   <-chan bool

	// UI state
	width   int
	height  int
	preview bool
	status  string
	failed  bool // status reports a failure

	copy func(string) error
}

// New creates the model. ctx bounds every review request; cancelling it
// aborts requests still in flight.
func New(ctx context.Context, opts Options) Model {
	ed := textarea.New()
	ed.Placeholder = "Paste your code here..."
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.SetValue(opts.Code)
	ed.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	session := reviewstate.NewSession(opts.Language)
	session.SetCode(opts.Code)

	return Model{
		ctx:     ctx,
		client:  opts.Client,
		session: session,
		log:     opts.Logger,
		apiURL:  opts.APIURL,
		editor:  ed,
		spinner: sp,
		help:    help.New(),
		online:  opts.Online,
		conn:    opts.Connectivity,
		copy:    systemClipboard,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForConnectivity(m.conn))
}

func waitForConnectivity(ch <-chan bool) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		online, ok := <-ch
		return connectivityMsg{online: online, ok: ok}
	}
}

func (m Model) reviewCmd(t reviewstate.Ticket) tea.Cmd {
	ctx, c := m.ctx, m.client
	return func() tea.Msg {
		res, err := c.Review(ctx, t.Request)
		return reviewDoneMsg{ticket: t, result: res, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.editor.SetWidth(max(msg.Width-2, 20))
		m.editor.SetHeight(m.editorHeight())
		return m, nil

	case connectivityMsg:
		if !msg.ok {
			m.conn = nil
			return m, nil
		}
		m.online = msg.online
		return m, waitForConnectivity(m.conn)

	case reviewDoneMsg:
		if !m.session.Resolve(msg.ticket, msg.result, msg.err) {
			m.log.Debug().Uint64("generation", msg.ticket.Generation).Msg("discarding stale review response")
			return m, nil
		}
		if res, ok := m.session.State().Result(); ok {
			m.log.Info().Str("severity", res.Severity()).Msg("review completed")
		} else {
			m.log.Error().Err(msg.err).Str("kind", client.Kind(msg.err)).Msg("review failed")
		}
		m.editor.Focus()
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("clipboard write failed")
			m.setStatus("Could not copy to clipboard: "+msg.err.Error(), true)
		} else {
			m.setStatus("Review copied to clipboard", false)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	// the form is hidden while offline
	if !m.online {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Submit):
		return m.submit()

	case key.Matches(msg, keys.Clear):
		if !m.session.CanClear() {
			return m, nil
		}
		m.session.Clear()
		m.editor.Reset()
		m.status = ""
		return m, nil

	case key.Matches(msg, keys.NextLang):
		if !m.session.Loading() {
			m.session.SetLanguage(m.session.Language().Next())
		}
		return m, nil

	case key.Matches(msg, keys.PrevLang):
		if !m.session.Loading() {
			m.session.SetLanguage(m.session.Language().Prev())
		}
		return m, nil

	case key.Matches(msg, keys.Preview):
		m.preview = !m.preview
		return m, nil

	case key.Matches(msg, keys.Copy):
		res, ok := m.session.State().Result()
		if !ok {
			m.setStatus("Nothing to copy yet", true)
			return m, nil
		}
		return m, copyCmd(m.copy, formatForClipboard(res))

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.editor.SetHeight(m.editorHeight())
		return m, nil
	}

	// the editor is read-only while a request is in flight
	if m.session.Loading() {
		return m, nil
	}

	m.preview = false
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.session.SetCode(m.editor.Value())
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.session.CanSubmit() {
		return m, nil
	}
	ticket, ok := m.session.Submit()
	if !ok {
		return m, nil
	}

	m.status = ""
	m.editor.Blur()
	m.log.Info().
		Str("language", string(ticket.Request.Language)).
		Int("chars", len(ticket.Request.Code)).
		Uint64("generation", ticket.Generation).
		Msg("submitting review")

	return m, tea.Batch(m.reviewCmd(ticket), m.spinner.Tick)
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

// editorHeight leaves room for the header, language bar, buttons, result
// panel and help.
func (m Model) editorHeight() int {
	h := m.height/2 - 4
	if m.help.ShowAll {
		h -= 2
	}
	return max(h, 5)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if !m.online {
		helpLine := m.help.View(offlineKeys{})
		body := renderOffline(m.width, m.height-lipgloss.Height(helpLine))
		return lipgloss.JoinVertical(lipgloss.Left, body, helpLine)
	}

	loading := m.session.Loading()

	var code string
	if m.preview || loading {
		code = editorStyle.Width(m.width - 2).Render(
			renderCode(m.session.Language(), m.session.Code(), m.width-4, m.editorHeight()))
	} else {
		code = editorStyle.Render(m.editor.View())
	}

	sections := []string{
		m.renderHeader(),
		renderLanguageBar(m.session.Language(), loading),
		code,
		renderButtons(loading, m.session.CanSubmit(), m.session.CanClear(), m.spinner.View()),
		renderResultPanel(m.session.State(), m.width),
	}
	if m.status != "" {
		style := statusOKStyle
		if m.failed {
			style = statusErrStyle
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, m.help.View(keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	left := titleStyle.Render(headerTitle)
	right := onlineDotStyle.Render("●") + " " + m.apiURL

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the TUI application and blocks until the user quits or ctx is
// cancelled. A non-nil monitor drives the online/offline view.
func Run(ctx context.Context, opts Options, monitor *connectivity.Monitor) error {
	if monitor != nil {
		ch, unsubscribe := monitor.Subscribe()
		defer unsubscribe()
		opts.Connectivity = ch
		opts.Online = monitor.Online()
	}

	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
