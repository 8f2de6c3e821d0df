package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/model"
	"github.com/sprite-ai/reviewdesk/internal/reviewstate"
)

// fakeReviewer records every call and returns a scripted outcome.
type fakeReviewer struct {
	mu     sync.Mutex
	calls  []model.ReviewRequest
	result *model.ReviewResult
	err    error
}

func (f *fakeReviewer) Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.result, f.err
}

func (f *fakeReviewer) Calls() []model.ReviewRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ReviewRequest(nil), f.calls...)
}

func setupModel(t *testing.T, fr *fakeReviewer, opts Options) Model {
	t.Helper()
	opts.Client = fr
	if opts.Language == "" {
		opts.Language = model.LangPython
	}
	m := New(context.Background(), opts)
	// Simulate window size
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func onlineModel(t *testing.T, fr *fakeReviewer) Model {
	return setupModel(t, fr, Options{Online: true})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(t *testing.T, m Model, kt tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: kt})
}

// collect runs cmd and every command nested in a batch, returning the
// review outcomes produced.
func collect(cmd tea.Cmd) []reviewDoneMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []reviewDoneMsg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case reviewDoneMsg:
		return []reviewDoneMsg{msg}
	default:
		return nil
	}
}

func TestModelInit(t *testing.T) {
	m := onlineModel(t, &fakeReviewer{})

	assert.Equal(t, model.LangPython, m.session.Language())
	assert.Equal(t, reviewstate.PhaseIdle, m.session.State().Phase())

	view := m.View()
	assert.Contains(t, view, "Code Review Agent")
	assert.Contains(t, view, "Review Code")
	assert.Contains(t, view, "Your code review will appear here")
}

func TestTypingUpdatesSession(t *testing.T) {
	m := onlineModel(t, &fakeReviewer{})
	m = typeText(t, m, "print('hi')")

	assert.Equal(t, "print('hi')", m.session.Code())
	assert.True(t, m.session.CanSubmit())
}

func TestSubmitBlankMakesNoCall(t *testing.T) {
	fr := &fakeReviewer{}
	m := onlineModel(t, fr)
	m = typeText(t, m, "   ")

	m, cmd := press(t, m, tea.KeyCtrlS)
	assert.Nil(t, cmd)
	assert.Empty(t, fr.Calls())
	assert.Equal(t, reviewstate.PhaseIdle, m.session.State().Phase())
}

func TestSubmitSendsCurrentValuesOnce(t *testing.T) {
	fr := &fakeReviewer{result: &model.ReviewResult{Review: "ok", SeverityLevel: "low"}}
	m := onlineModel(t, fr)
	m = typeText(t, m, "fn main() {}")
	m, _ = press(t, m, tea.KeyShiftTab) // python -> rust

	m, cmd := press(t, m, tea.KeyCtrlS)
	require.NotNil(t, cmd)
	assert.True(t, m.session.Loading())
	assert.Contains(t, m.View(), "Analyzing...")

	// a second submit while loading is ignored
	m, again := press(t, m, tea.KeyCtrlS)
	assert.Nil(t, again)

	done := collect(cmd)
	require.Len(t, done, 1)
	assert.Equal(t, []model.ReviewRequest{{Code: "fn main() {}", Language: model.LangRust}}, fr.Calls())

	m, _ = update(t, m, done[0])
	assert.False(t, m.session.Loading())
	assert.Contains(t, m.View(), "Severity: LOW")
}

func TestLoadingLocksForm(t *testing.T) {
	m := onlineModel(t, &fakeReviewer{})
	m = typeText(t, m, "x = 1")
	m, _ = press(t, m, tea.KeyCtrlS)
	require.True(t, m.session.Loading())

	m = typeText(t, m, "more")
	assert.Equal(t, "x = 1", m.session.Code(), "editor is read-only while loading")

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, model.LangPython, m.session.Language())

	m, _ = press(t, m, tea.KeyCtrlR)
	assert.True(t, m.session.Loading(), "clear is disabled while loading")
}

func TestResultRendering(t *testing.T) {
	fr := &fakeReviewer{result: &model.ReviewResult{
		Review:        "Solid code with minor issues.",
		SeverityLevel: "medium",
		Suggestions:   []string{"Add type hints", "Handle empty input"},
	}}
	m := onlineModel(t, fr)
	m = typeText(t, m, "def f(): pass")
	m, cmd := press(t, m, tea.KeyCtrlS)
	m, _ = update(t, m, collect(cmd)[0])

	view := m.View()
	assert.Contains(t, view, "Severity: MEDIUM")
	assert.Contains(t, view, "Solid code with minor issues.")
	assert.Contains(t, view, "Add type hints")
	assert.NotContains(t, view, "Your code review will appear here")
}

func TestErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"detail", &client.RemoteError{Status: 400, Detail: "Code exceeds 10000 characters"}, "Code exceeds 10000 characters"},
		{"generic", &client.RemoteError{Status: 502}, "Failed to review code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := onlineModel(t, &fakeReviewer{err: tt.err})
			m = typeText(t, m, "x")
			m, cmd := press(t, m, tea.KeyCtrlS)
			m, _ = update(t, m, collect(cmd)[0])

			view := m.View()
			assert.Contains(t, view, tt.want)
			assert.NotContains(t, view, "Severity:")
		})
	}
}

func TestClearRestoresPlaceholder(t *testing.T) {
	fr := &fakeReviewer{result: &model.ReviewResult{Review: "done"}}
	m := onlineModel(t, fr)
	m = typeText(t, m, "x")
	m, cmd := press(t, m, tea.KeyCtrlS)
	m, _ = update(t, m, collect(cmd)[0])
	require.Contains(t, m.View(), "Severity: LOW")

	m, _ = press(t, m, tea.KeyCtrlR)
	assert.Empty(t, m.session.Code())
	assert.Empty(t, m.editor.Value())
	assert.Contains(t, m.View(), "Your code review will appear here")
}

func TestStaleResponseDiscarded(t *testing.T) {
	m := onlineModel(t, &fakeReviewer{})
	m = typeText(t, m, "x")
	m, _ = press(t, m, tea.KeyCtrlS)
	first := reviewDoneMsg{
		ticket: reviewstate.Ticket{Generation: m.session.Generation()},
		result: &model.ReviewResult{Review: "late"},
	}

	// the outcome of an abandoned request must not resurface
	m.session.Clear()
	m, _ = update(t, m, first)
	assert.Equal(t, reviewstate.PhaseIdle, m.session.State().Phase())
	assert.NotContains(t, m.View(), "late")
}

func TestOfflineReplacesForm(t *testing.T) {
	ch := make(chan bool, 1)
	m := setupModel(t, &fakeReviewer{}, Options{Online: true, Connectivity: ch})
	m = typeText(t, m, "keep me")

	m, cmd := update(t, m, connectivityMsg{online: false, ok: true})
	require.NotNil(t, cmd, "keeps listening for transitions")

	view := m.View()
	assert.Contains(t, view, "No Internet Connection")
	assert.Contains(t, view, "Please check your internet connection and try again.")
	assert.NotContains(t, view, "Review Code")

	// keys other than quit are ignored while offline
	m = typeText(t, m, "zzz")
	m, submit := press(t, m, tea.KeyCtrlS)
	assert.Nil(t, submit)

	ch <- true
	msg := cmd()
	m, _ = update(t, m, msg)

	view = m.View()
	assert.Contains(t, view, "Review Code")
	assert.Equal(t, "keep me", m.session.Code(), "form state survives going offline")
}

func TestConnectivityChannelClosed(t *testing.T) {
	ch := make(chan bool)
	m := setupModel(t, &fakeReviewer{}, Options{Online: true, Connectivity: ch})
	close(ch)

	msg := waitForConnectivity(ch)()
	m, cmd := update(t, m, msg)
	assert.Nil(t, cmd)
	assert.Nil(t, m.conn)
	assert.True(t, m.online)
}

func TestQuitWorksOffline(t *testing.T) {
	m := setupModel(t, &fakeReviewer{}, Options{Online: false})

	_, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLanguageCycling(t *testing.T) {
	m := onlineModel(t, &fakeReviewer{})

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, model.LangJavaScript, m.session.Language())

	m, _ = press(t, m, tea.KeyShiftTab)
	m, _ = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, model.LangRust, m.session.Language())
}

func TestCopyReview(t *testing.T) {
	fr := &fakeReviewer{result: &model.ReviewResult{Review: "Fine.", SeverityLevel: "high", Suggestions: []string{"Use errors.Is"}}}
	m := onlineModel(t, fr)

	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m, cmd := press(t, m, tea.KeyCtrlY)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Nothing to copy yet")

	m = typeText(t, m, "x")
	m, cmd = press(t, m, tea.KeyCtrlS)
	m, _ = update(t, m, collect(cmd)[0])

	m, cmd = press(t, m, tea.KeyCtrlY)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Severity: HIGH\n\nFine.\n\nSuggestions:\n- Use errors.Is\n", copied)
	assert.Contains(t, m.View(), "Review copied to clipboard")

	m.copy = func(string) error { return errors.New("no clipboard utility") }
	m, cmd = press(t, m, tea.KeyCtrlY)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "Could not copy to clipboard: no clipboard utility")
}

func TestPreviewHighlightsCode(t *testing.T) {
	m := setupModel(t, &fakeReviewer{}, Options{Online: true, Language: model.LangGo, Code: "package main\nfunc main() {}"})

	m, _ = press(t, m, tea.KeyCtrlP)
	require.True(t, m.preview)
	view := m.View()
	assert.Contains(t, view, "package")
	assert.Contains(t, view, "func")

	// typing returns to the editor
	m = typeText(t, m, "x")
	assert.False(t, m.preview)
}

func TestRenderCodeClipsWideText(t *testing.T) {
	code := "x = \"" + strings.Repeat("é", 40) + "\"\nname = \"" + strings.Repeat("漢", 30) + "\""
	out := ansi.Strip(renderCode(model.LangPython, code, 20, 5))

	require.True(t, utf8.ValidString(out), "preview must stay valid UTF-8: %q", out)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 20, "line %q", line)
		assert.True(t, strings.HasSuffix(line, "…"), "line %q", line)
	}
	assert.Contains(t, lines[0], "x = \"éé")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "漢…", truncate("漢字漢字", 4), "wide runes count two cells")
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("é", 10), 5)))
}

func TestRenderResultPanel(t *testing.T) {
	s := reviewstate.NewSession(model.LangGo)
	placeholder := renderResultPanel(s.State(), 80)
	assert.Contains(t, placeholder, "Your code review will appear here")

	s.SetCode("")
	s.Submit()
	failed := renderResultPanel(s.State(), 80)
	assert.Contains(t, failed, "Please enter some code to review")

	s.SetCode("x")
	tk, _ := s.Submit()
	s.Resolve(tk, &model.ReviewResult{Review: "Nice", SeverityLevel: "critical"}, nil)
	result := renderResultPanel(s.State(), 80)
	assert.Contains(t, result, "Severity: CRITICAL")
	assert.False(t, strings.Contains(result, "Suggestions"), "no suggestion list when empty")
}

func TestViewBeforeSize(t *testing.T) {
	m := New(context.Background(), Options{Client: &fakeReviewer{}, Online: true})
	assert.Equal(t, "Loading...", m.View())
}
