package quiz

import (
	"sync"
	"time"

	"advent-calendar-service/internal/domain"
)

const (
	DefaultSuccessDelay    = 600 * time.Millisecond
	DefaultWrongResetDelay = 800 * time.Millisecond
)

// Delays configures how long the visual cues are held.
type Delays struct {
	Success    time.Duration
	WrongReset time.Duration
}

// DefaultDelays returns the stock cue durations.
func DefaultDelays() Delays {
	return Delays{Success: DefaultSuccessDelay, WrongReset: DefaultWrongResetDelay}
}

func (d Delays) of(kind TimerKind) time.Duration {
	switch kind {
	case TimerSuccess:
		return d.Success
	case TimerWrongReset:
		return d.WrongReset
	}
	return 0
}

// Props is what the parent hands the modal when opening it.
type Props struct {
	Day         *domain.Day
	IsCompleted bool
	OnClose     func()
	OnComplete  func()
}

// Modal owns one State and carries out the effects of its transitions.
// All methods are safe for concurrent use; callbacks run without the modal
// lock held.
type Modal struct {
	scheduler Scheduler
	delays    Delays
	onChange  func(State)

	mu       sync.Mutex
	state    State
	props    Props
	stops    map[TimerKind]func() bool
	disposed bool
}

// ModalOption customises a Modal.
type ModalOption func(*Modal)

// WithOnChange registers a hook invoked with the new state after every
// transition that was not a no-op.
func WithOnChange(fn func(State)) ModalOption {
	return func(m *Modal) { m.onChange = fn }
}

// WithDelays overrides the cue durations.
func WithDelays(d Delays) ModalOption {
	return func(m *Modal) { m.delays = d }
}

func NewModal(scheduler Scheduler, opts ...ModalOption) *Modal {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	m := &Modal{
		scheduler: scheduler,
		delays:    DefaultDelays(),
		state:     InitialState(),
		stops:     make(map[TimerKind]func() bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open shows the modal for props.Day, replacing any previous props.
func (m *Modal) Open(props Props) {
	m.dispatch(Open{Day: props.Day, IsCompleted: props.IsCompleted}, &props)
}

// Select handles a click on option index.
func (m *Modal) Select(index int) {
	m.dispatch(Select{Index: index}, nil)
}

// Close dismisses the modal. Pending cue timers are cancelled.
func (m *Modal) Close() {
	m.dispatch(Close{}, nil)
}

// Dispose cancels every timer and ignores all later events. It does not
// invoke OnClose.
func (m *Modal) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	for kind, stop := range m.stops {
		stop()
		delete(m.stops, kind)
	}
}

// State returns a copy of the current state.
func (m *Modal) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View renders the current state.
func (m *Modal) View() *domain.View {
	return Render(m.State())
}

func (m *Modal) dispatch(e Event, props *Props) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}

	prev := m.state
	next, effects := Transition(prev, e)
	m.state = next
	// Callbacks come from the props in force when the event arrived; Open
	// installs new ones only after its own effects are collected.
	current := m.props
	if props != nil {
		m.props = *props
	}

	var callbacks []func()
	for _, effect := range effects {
		switch eff := effect.(type) {
		case StartTimer:
			m.startLocked(eff)
		case StopTimer:
			if stop, ok := m.stops[eff.Kind]; ok {
				stop()
				delete(m.stops, eff.Kind)
			}
		case NotifyComplete:
			if current.OnComplete != nil {
				callbacks = append(callbacks, current.OnComplete)
			}
		case NotifyClose:
			if current.OnClose != nil {
				callbacks = append(callbacks, current.OnClose)
			}
		}
	}
	changed := props != nil || len(effects) > 0 || next != prev
	onChange := m.onChange
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	if changed && onChange != nil {
		onChange(next)
	}
}

func (m *Modal) startLocked(eff StartTimer) {
	if stop, ok := m.stops[eff.Kind]; ok {
		stop()
	}
	kind, token := eff.Kind, eff.Token
	m.stops[kind] = m.scheduler.AfterFunc(m.delays.of(kind), func() {
		m.fire(kind, token)
	})
}

func (m *Modal) fire(kind TimerKind, token uint64) {
	m.mu.Lock()
	if m.state.token(kind) == token {
		delete(m.stops, kind)
	}
	m.mu.Unlock()
	m.dispatch(TimerFired{Kind: kind, Token: token}, nil)
}
