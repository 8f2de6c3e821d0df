// Package reviewstate holds the form and request lifecycle behind a review
// submission, independent of how it is rendered.
package reviewstate

import (
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Phase is the active variant of a request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Panel is the single result-area rendering that state maps to.
type Panel int

const (
	PanelPlaceholder Panel = iota
	PanelResult
	PanelError
)

// State is a tagged union: Result is set only in PhaseSucceeded and Message
// only in PhaseFailed. Construct it through the helpers below.
type State struct {
	phase   Phase
	result  model.ReviewResult
	message string
}

func idle() State { return State{phase: PhaseIdle} }
func loading() State { return State{phase: PhaseLoading} }
func succeeded(r model.ReviewResult) State { return State{phase: PhaseSucceeded, result: r} }
func failed(msg string) State { return State{phase: PhaseFailed, message: msg} }

// Phase returns the active variant.
func (s State) Phase() Phase { return s.phase }

// Result returns the review when the phase is PhaseSucceeded.
func (s State) Result() (model.ReviewResult, bool) {
	return s.result, s.phase == PhaseSucceeded
}

// Message returns the error text when the phase is PhaseFailed.
func (s State) Message() (string, bool) {
	return s.message, s.phase == PhaseFailed
}

// Panel maps the state onto exactly one result-area rendering. Loading keeps
// the placeholder until a terminal state arrives.
func (s State) Panel() Panel {
	switch s.phase {
	case PhaseFailed:
		return PanelError
	case PhaseSucceeded:
		return PanelResult
	default:
		return PanelPlaceholder
	}
}

// Ticket authorizes exactly one network call for a submission.
type Ticket struct {
	Generation uint64
	Request    model.ReviewRequest
}

// Session owns the form fields and the request state.
type Session struct {
	code       string
	language   model.Language
	state      State
	generation uint64
}

// NewSession returns an idle session with the given initial language.
func NewSession(lang model.Language) *Session {
	if !lang.Valid() {
		lang = model.DefaultLanguage
	}
	return &Session{language: lang, state: idle()}
}

// Code returns the current code field.
func (s *Session) Code() string { return s.code }

// SetCode replaces the code field.
func (s *Session) SetCode(code string) { s.code = code }

// Language returns the selected language.
func (s *Session) Language() model.Language { return s.language }

// SetLanguage selects a language; unsupported values are ignored.
func (s *Session) SetLanguage(l model.Language) {
	if l.Valid() {
		s.language = l
	}
}

// State returns the request state.
func (s *Session) State() State { return s.state }

// Loading reports whether a request is in flight.
func (s *Session) Loading() bool { return s.state.phase == PhaseLoading }

// Generation returns the current request generation.
func (s *Session) Generation() uint64 { return s.generation }

// CanSubmit reports whether the submit control is enabled.
func (s *Session) CanSubmit() bool {
	return !s.Loading() && strings.TrimSpace(s.code) != ""
}

// CanClear reports whether the clear control is enabled.
func (s *Session) CanClear() bool {
	return !s.Loading()
}

// Submit validates the form. Blank code moves the session to the failed
// state and returns ok=false without a ticket. Otherwise the session enters
// loading and the returned ticket must be passed back to Resolve.
func (s *Session) Submit() (Ticket, bool) {
	if strings.TrimSpace(s.code) == "" {
		s.state = failed(client.EmptyCodeMessage)
		return Ticket{}, false
	}

	s.generation++
	s.state = loading()
	return Ticket{
		Generation: s.generation,
		Request: model.ReviewRequest{
			Code:     s.code,
			Language: s.language,
		},
	}, true
}

// Resolve applies the outcome of a ticket's network call. Outcomes for a
// superseded generation, or arriving when nothing is loading, are dropped and
// Resolve returns false. An accepted outcome always leaves PhaseLoading.
func (s *Session) Resolve(t Ticket, result *model.ReviewResult, err error) bool {
	if t.Generation != s.generation || !s.Loading() {
		return false
	}

	switch {
	case err != nil:
		s.state = failed(client.Message(err))
	case result == nil:
		s.state = failed(client.GenericFailure)
	default:
		s.state = succeeded(*result)
	}
	return true
}

// Clear empties the code field and returns to idle regardless of the current
// state. Any outstanding ticket is invalidated.
func (s *Session) Clear() {
	s.code = ""
	s.state = idle()
	s.generation++
}
