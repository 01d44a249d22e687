package quiz

import (
	"sync"
	"testing"

	"advent-calendar-service/internal/domain"
)

type recorder struct {
	mu        sync.Mutex
	completes int
	closes    int
}

func (r *recorder) props(day *domain.Day, completed bool) Props {
	return Props{
		Day:         day,
		IsCompleted: completed,
		OnComplete: func() {
			r.mu.Lock()
			r.completes++
			r.mu.Unlock()
		},
		OnClose: func() {
			r.mu.Lock()
			r.closes++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes, r.closes
}

func TestModalWrongThenCorrectScenario(t *testing.T) {
	sched := NewManualScheduler()
	rec := &recorder{}
	modal := NewModal(sched)
	modal.Open(rec.props(sampleDay(), false))

	modal.Select(0)
	view := modal.View()
	if !view.Options[0].Wrong {
		t.Fatalf("expected wrong feedback on option 0, got %+v", view.Options[0])
	}

	sched.Advance(DefaultWrongResetDelay)
	state := modal.State()
	if state.Wrong || state.Selected != domain.NoSelection || state.View != domain.ViewQuestion {
		t.Fatalf("expected feedback cleared, got %+v", state)
	}

	modal.Select(1)
	sched.Advance(DefaultSuccessDelay / 2)
	if completes, _ := rec.counts(); completes != 0 {
		t.Fatalf("completion fired before the delay")
	}
	sched.Advance(DefaultSuccessDelay)
	if completes, _ := rec.counts(); completes != 1 {
		t.Fatalf("expected exactly one completion, got %d", completes)
	}
	if modal.State().View != domain.ViewSuccess {
		t.Fatalf("expected success view")
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", sched.Pending())
	}
}

func TestModalOpensCompletedDayInSuccess(t *testing.T) {
	sched := NewManualScheduler()
	rec := &recorder{}
	modal := NewModal(sched)
	modal.Open(rec.props(sampleDay(), true))

	view := modal.View()
	if view == nil || view.State != domain.ViewSuccess || view.Content == "" {
		t.Fatalf("expected story rendered immediately, got %+v", view)
	}
	sched.Advance(DefaultWrongResetDelay * 10)
	if completes, _ := rec.counts(); completes != 0 {
		t.Fatalf("completed day must not call onComplete, got %d", completes)
	}
}

func TestModalCloseLeavesNoTimers(t *testing.T) {
	cases := map[string]func(*Modal){
		"mid question":       func(*Modal) {},
		"mid wrong feedback": func(m *Modal) { m.Select(0) },
		"mid success delay":  func(m *Modal) { m.Select(1) },
	}
	for name, setup := range cases {
		sched := NewManualScheduler()
		rec := &recorder{}
		modal := NewModal(sched)
		modal.Open(rec.props(sampleDay(), false))
		setup(modal)

		modal.Close()
		if _, closes := rec.counts(); closes != 1 {
			t.Fatalf("%s: expected one close, got %d", name, closes)
		}
		if sched.Pending() != 0 {
			t.Fatalf("%s: expected timers cancelled, got %d pending", name, sched.Pending())
		}
		before := modal.State()
		sched.Advance(DefaultWrongResetDelay * 10)
		if modal.State() != before {
			t.Fatalf("%s: state mutated after close", name)
		}
		if completes, _ := rec.counts(); completes != 0 {
			t.Fatalf("%s: completion after close", name)
		}
	}

	sched := NewManualScheduler()
	rec := &recorder{}
	modal := NewModal(sched)
	modal.Open(rec.props(sampleDay(), true))
	modal.Close()
	modal.Close()
	if _, closes := rec.counts(); closes != 1 {
		t.Fatalf("success close: expected one close, got %d", closes)
	}
}

func TestModalReopenReevaluatesCompletion(t *testing.T) {
	sched := NewManualScheduler()
	rec := &recorder{}
	modal := NewModal(sched)

	modal.Open(rec.props(sampleDay(), false))
	modal.Select(1)
	sched.Advance(DefaultSuccessDelay)
	modal.Close()

	modal.Open(rec.props(sampleDay(), true))
	if modal.State().View != domain.ViewSuccess {
		t.Fatalf("expected reopened completed day in success")
	}
	modal.Close()

	modal.Open(rec.props(sampleDay(), false))
	if modal.State().View != domain.ViewQuestion {
		t.Fatalf("expected parent flag to drive initial view")
	}
}

func TestModalDisposeCancelsTimers(t *testing.T) {
	sched := NewManualScheduler()
	rec := &recorder{}
	modal := NewModal(sched)
	modal.Open(rec.props(sampleDay(), false))
	modal.Select(1)

	modal.Dispose()
	if sched.Pending() != 0 {
		t.Fatalf("expected no pending timers after dispose, got %d", sched.Pending())
	}
	modal.Select(1)
	modal.Close()
	completes, closes := rec.counts()
	if completes != 0 || closes != 0 {
		t.Fatalf("disposed modal must ignore events, got completes=%d closes=%d", completes, closes)
	}
}

func TestModalOnChangeSeesTimerTransitions(t *testing.T) {
	sched := NewManualScheduler()
	var mu sync.Mutex
	var views []domain.ViewState
	modal := NewModal(sched, WithOnChange(func(s State) {
		mu.Lock()
		views = append(views, s.View)
		mu.Unlock()
	}), WithDelays(Delays{Success: 10, WrongReset: 20}))

	modal.Open(Props{Day: sampleDay()})
	modal.Select(1)
	sched.Advance(10)

	mu.Lock()
	defer mu.Unlock()
	if len(views) != 3 || views[2] != domain.ViewSuccess {
		t.Fatalf("expected open, select, success changes, got %v", views)
	}
}
