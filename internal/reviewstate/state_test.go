package reviewstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

func TestSubmit_BlankCodeFailsLocally(t *testing.T) {
	for _, code := range []string{"", " ", "\n\t  \n"} {
		s := NewSession(model.LangGo)
		s.SetCode(code)

		_, ok := s.Submit()
		require.False(t, ok)

		msg, failed := s.State().Message()
		assert.True(t, failed)
		assert.Equal(t, "Please enter some code to review", msg)
		assert.Equal(t, PanelError, s.State().Panel())
		assert.Zero(t, s.Generation(), "no request generation should be issued")
	}
}

func TestSubmit_IssuesTicketWithCurrentFields(t *testing.T) {
	s := NewSession(model.LangPython)
	s.SetCode("def f(): pass")
	s.SetLanguage(model.LangRust)

	ticket, ok := s.Submit()
	require.True(t, ok)

	assert.Equal(t, model.ReviewRequest{Code: "def f(): pass", Language: model.LangRust}, ticket.Request)
	assert.Equal(t, PhaseLoading, s.State().Phase())
	assert.Equal(t, PanelPlaceholder, s.State().Panel(), "loading keeps the placeholder")
	assert.False(t, s.CanSubmit())
	assert.False(t, s.CanClear())
}

func TestSubmit_ClearsPreviousOutcome(t *testing.T) {
	s := NewSession(model.LangGo)
	s.SetCode("x")
	ticket, _ := s.Submit()
	s.Resolve(ticket, nil, errors.New("boom"))
	require.Equal(t, PhaseFailed, s.State().Phase())

	_, ok := s.Submit()
	require.True(t, ok)
	_, failed := s.State().Message()
	assert.False(t, failed)
	_, has := s.State().Result()
	assert.False(t, has)
}

func TestResolve_Success(t *testing.T) {
	s := NewSession(model.LangGo)
	s.SetCode("package main")
	ticket, _ := s.Submit()

	res := &model.ReviewResult{Review: "Looks fine", SeverityLevel: "medium", Suggestions: []string{"Add docstring"}}
	require.True(t, s.Resolve(ticket, res, nil))

	got, ok := s.State().Result()
	require.True(t, ok)
	assert.Equal(t, "MEDIUM", got.SeverityLabel())
	assert.Equal(t, PanelResult, s.State().Panel())
	assert.True(t, s.CanSubmit(), "submit re-enabled after resolution")
}

func TestResolve_FailurePaths(t *testing.T) {
	tests := []struct {
		name   string
		result *model.ReviewResult
		err    error
		want   string
	}{
		{"remote detail", nil, &client.RemoteError{Status: 429, Detail: "rate limited"}, "rate limited"},
		{"remote without detail", nil, &client.RemoteError{Status: 500}, client.GenericFailure},
		{"transport", nil, &client.TransportError{Err: errors.New("connection refused")}, "connection refused"},
		{"empty transport message", nil, &client.TransportError{}, client.GenericFailure},
		{"nil result without error", nil, nil, client.GenericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(model.LangGo)
			s.SetCode("x")
			ticket, _ := s.Submit()

			require.True(t, s.Resolve(ticket, tt.result, tt.err))
			assert.False(t, s.Loading(), "loading must be released on every path")

			msg, ok := s.State().Message()
			require.True(t, ok)
			assert.Equal(t, tt.want, msg)
			_, hasResult := s.State().Result()
			assert.False(t, hasResult)
		})
	}
}

func TestResolve_DropsStaleTickets(t *testing.T) {
	s := NewSession(model.LangGo)
	s.SetCode("x")
	first, _ := s.Submit()

	s.Clear()
	assert.False(t, s.Resolve(first, &model.ReviewResult{Review: "late"}, nil))
	assert.Equal(t, PhaseIdle, s.State().Phase())

	s.SetCode("y")
	second, _ := s.Submit()
	assert.False(t, s.Resolve(first, &model.ReviewResult{Review: "late"}, nil))
	assert.True(t, s.Loading())

	assert.True(t, s.Resolve(second, &model.ReviewResult{Review: "fresh"}, nil))
	got, _ := s.State().Result()
	assert.Equal(t, "fresh", got.Review)

	// duplicate delivery for an already-resolved ticket is ignored
	assert.False(t, s.Resolve(second, nil, errors.New("dup")))
	assert.Equal(t, PhaseSucceeded, s.State().Phase())
}

func TestClear_ResetsFromAnyState(t *testing.T) {
	s := NewSession(model.LangJava)

	setups := map[string]func(){
		"idle": func() {},
		"failed": func() {
			s.SetCode("")
			s.Submit()
		},
		"succeeded": func() {
			s.SetCode("x")
			tk, _ := s.Submit()
			s.Resolve(tk, &model.ReviewResult{Review: "r"}, nil)
		},
		"loading": func() {
			s.SetCode("x")
			s.Submit()
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			setup()
			s.Clear()
			assert.Empty(t, s.Code())
			assert.Equal(t, PhaseIdle, s.State().Phase())
			assert.Equal(t, PanelPlaceholder, s.State().Panel())
			assert.Equal(t, model.LangJava, s.Language(), "clear keeps the language")
		})
	}
}

func TestControls(t *testing.T) {
	s := NewSession(model.LangGo)
	assert.False(t, s.CanSubmit(), "empty code disables submit")
	assert.True(t, s.CanClear())

	s.SetCode("   ")
	assert.False(t, s.CanSubmit())

	s.SetCode("x")
	assert.True(t, s.CanSubmit())
}

func TestSetLanguage_IgnoresUnknown(t *testing.T) {
	s := NewSession(model.Language("cobol"))
	assert.Equal(t, model.DefaultLanguage, s.Language())

	s.SetLanguage(model.Language("fortran"))
	assert.Equal(t, model.DefaultLanguage, s.Language())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
