// Package quiz holds the modal state machine that gates a day's story behind
// its trivia question.
//
// Transition is a pure function of (State, Event); timers and callbacks are
// described as Effects and carried out by Modal.
package quiz

import "advent-calendar-service/internal/domain"

// TimerKind identifies one of the modal's delayed tasks.
type TimerKind int

const (
	// TimerSuccess delays the question -> success switch so the "correct" cue can play.
	TimerSuccess TimerKind = iota + 1
	// TimerWrongReset clears the "wrong" cue.
	TimerWrongReset
)

func (k TimerKind) String() string {
	switch k {
	case TimerSuccess:
		return "success"
	case TimerWrongReset:
		return "wrong-reset"
	default:
		return "unknown"
	}
}

// State is the modal's complete local state.
type State struct {
	Open     bool
	Day      *domain.Day
	View     domain.ViewState
	Selected int
	Wrong    bool

	// Tokens of the pending timers, zero when none. A TimerFired event only
	// applies when its token matches.
	successToken uint64
	wrongToken   uint64
	seq          uint64
}

// InitialState is a closed modal with nothing selected.
func InitialState() State {
	return State{View: domain.ViewQuestion, Selected: domain.NoSelection}
}

// Completing reports whether a correct answer is waiting for its success delay.
func (s State) Completing() bool {
	return s.successToken != 0
}

// Pending reports whether a timer of the given kind is outstanding.
func (s State) Pending(kind TimerKind) bool {
	return s.token(kind) != 0
}

func (s State) token(kind TimerKind) uint64 {
	switch kind {
	case TimerSuccess:
		return s.successToken
	case TimerWrongReset:
		return s.wrongToken
	}
	return 0
}

// Event drives Transition.
type Event interface{ isEvent() }

// Open (re)opens the modal for a day. A nil Day opens a modal that renders nothing.
type Open struct {
	Day         *domain.Day
	IsCompleted bool
}

// Select is a click on the option at Index.
type Select struct{ Index int }

// TimerFired reports that a scheduled timer ran.
type TimerFired struct {
	Kind  TimerKind
	Token uint64
}

// Close dismisses the modal.
type Close struct{}

func (Open) isEvent()       {}
func (Select) isEvent()     {}
func (TimerFired) isEvent() {}
func (Close) isEvent()      {}

// Effect is a side effect requested by Transition.
type Effect interface{ isEffect() }

// StartTimer asks for a timer of Kind that reports back with Token.
type StartTimer struct {
	Kind  TimerKind
	Token uint64
}

// StopTimer cancels the outstanding timer of Kind.
type StopTimer struct{ Kind TimerKind }

// NotifyComplete invokes the parent's completion callback.
type NotifyComplete struct{}

// NotifyClose invokes the parent's close callback.
type NotifyClose struct{}

func (StartTimer) isEffect()     {}
func (StopTimer) isEffect()      {}
func (NotifyComplete) isEffect() {}
func (NotifyClose) isEffect()    {}

// Transition computes the next state and the effects to run.
func Transition(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case Open:
		return onOpen(s, ev)
	case Select:
		return onSelect(s, ev)
	case TimerFired:
		return onTimer(s, ev)
	case Close:
		return onClose(s)
	}
	return s, nil
}

func onOpen(s State, ev Open) (State, []Effect) {
	effects := stopAll(&s)
	s.Open = true
	s.Day = ev.Day
	s.View = domain.ViewQuestion
	if ev.IsCompleted {
		s.View = domain.ViewSuccess
	}
	s.Selected = domain.NoSelection
	s.Wrong = false
	return s, effects
}

func onSelect(s State, ev Select) (State, []Effect) {
	if !s.Open || s.Day == nil || s.View != domain.ViewQuestion || s.Completing() {
		return s, nil
	}

	var effects []Effect
	s.Selected = ev.Index
	if s.Day.IsCorrect(ev.Index) {
		s.Wrong = false
		if s.wrongToken != 0 {
			s.wrongToken = 0
			effects = append(effects, StopTimer{Kind: TimerWrongReset})
		}
		s.seq++
		s.successToken = s.seq
		return s, append(effects, StartTimer{Kind: TimerSuccess, Token: s.successToken})
	}

	s.Wrong = true
	if s.wrongToken != 0 {
		effects = append(effects, StopTimer{Kind: TimerWrongReset})
	}
	s.seq++
	s.wrongToken = s.seq
	return s, append(effects, StartTimer{Kind: TimerWrongReset, Token: s.wrongToken})
}

func onTimer(s State, ev TimerFired) (State, []Effect) {
	if ev.Token == 0 || !s.Open || s.token(ev.Kind) != ev.Token {
		return s, nil
	}
	switch ev.Kind {
	case TimerSuccess:
		s.successToken = 0
		s.View = domain.ViewSuccess
		s.Selected = domain.NoSelection
		s.Wrong = false
		return s, []Effect{NotifyComplete{}}
	case TimerWrongReset:
		s.wrongToken = 0
		s.Selected = domain.NoSelection
		s.Wrong = false
	}
	return s, nil
}

func onClose(s State) (State, []Effect) {
	if !s.Open {
		return s, nil
	}
	effects := stopAll(&s)
	s.Open = false
	s.Selected = domain.NoSelection
	s.Wrong = false
	return s, append(effects, NotifyClose{})
}

func stopAll(s *State) []Effect {
	var effects []Effect
	if s.successToken != 0 {
		s.successToken = 0
		effects = append(effects, StopTimer{Kind: TimerSuccess})
	}
	if s.wrongToken != 0 {
		s.wrongToken = 0
		effects = append(effects, StopTimer{Kind: TimerWrongReset})
	}
	return effects
}

// Render returns the client view of the state, or nil when nothing is shown.
func Render(s State) *domain.View {
	if !s.Open || s.Day == nil {
		return nil
	}
	day := s.Day
	view := &domain.View{
		DayID:   day.ID,
		State:   s.View,
		Colors:  append([]string(nil), day.Colors...),
		LogoURL: day.LogoURL,
	}
	if s.View == domain.ViewSuccess {
		view.Title = day.Title
		view.Content = day.Content
		return view
	}

	view.Question = day.Question
	view.Options = make([]domain.OptionView, len(day.Options))
	for i, text := range day.Options {
		selected := s.Selected == i
		view.Options[i] = domain.OptionView{
			Index:    i,
			Text:     text,
			Selected: selected,
			Wrong:    selected && s.Wrong,
			Correct:  selected && !s.Wrong,
		}
	}
	return view
}
