package app

import (
	"sync"
	"time"

	"advent-calendar-service/internal/domain"
	"advent-calendar-service/internal/quiz"
)

// Session is one client's modal plus the subscribers that mirror it.
type Session struct {
	id        string
	userID    string
	createdAt time.Time
	modal     *quiz.Modal

	mu          sync.Mutex
	dayID       int
	subscribers map[chan domain.ModalUpdate]struct{}
}

func newSession(id, userID string, scheduler quiz.Scheduler, delays quiz.Delays, now time.Time) *Session {
	s := &Session{
		id:          id,
		userID:      userID,
		createdAt:   now,
		subscribers: make(map[chan domain.ModalUpdate]struct{}),
	}
	s.modal = quiz.NewModal(scheduler, quiz.WithDelays(delays), quiz.WithOnChange(s.changed))
	return s
}

// NewSession is exported for infrastructure layers and tests that need a
// session outside the service.
func NewSession(id, userID string, scheduler quiz.Scheduler) *Session {
	return newSession(id, userID, scheduler, quiz.DefaultDelays(), time.Now())
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// CreatedAt is when the session was started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// View renders the session's modal.
func (s *Session) View() *domain.View { return s.modal.View() }

func (s *Session) open(day domain.Day, completed bool, onComplete func(dayID int)) *domain.View {
	s.mu.Lock()
	s.dayID = day.ID
	s.mu.Unlock()

	dayID := day.ID
	s.modal.Open(quiz.Props{
		Day:         &day,
		IsCompleted: completed,
		OnComplete: func() {
			if onComplete != nil {
				onComplete(dayID)
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			// The modal may have been closed while the completion was persisted.
			view := s.modal.View()
			if view == nil || view.DayID != dayID || view.State != domain.ViewSuccess {
				return
			}
			s.broadcastLocked(domain.ModalUpdate{Type: domain.UpdateCompleted, DayID: dayID, View: view})
		},
		OnClose: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.modal.State().Open {
				return
			}
			s.broadcastLocked(domain.ModalUpdate{Type: domain.UpdateClosed, DayID: dayID})
		},
	})
	return s.modal.View()
}

func (s *Session) selectOption(index int) { s.modal.Select(index) }

func (s *Session) close() { s.modal.Close() }

// dispose stops the modal's timers and closes every subscriber channel.
func (s *Session) dispose() {
	s.modal.Dispose()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// changed renders the modal's current state rather than the state handed in,
// under the session lock, so subscribers never see the modal go backwards
// when dispatches finish out of order.
func (s *Session) changed(quiz.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.modal.View()
	if view == nil {
		return
	}
	s.broadcastLocked(domain.ModalUpdate{Type: domain.UpdateView, DayID: view.DayID, View: view})
}

func (s *Session) currentDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayID
}

func (s *Session) subscribe() (<-chan domain.ModalUpdate, func()) {
	ch := make(chan domain.ModalUpdate, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if view := s.modal.View(); view != nil {
		ch <- domain.ModalUpdate{Type: domain.UpdateView, DayID: view.DayID, View: view}
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked must be called with s.mu held. Lock order is s.mu then the
// modal's own lock; the modal never calls back into the session while holding it.
func (s *Session) broadcastLocked(update domain.ModalUpdate) {
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest update so a slow client never blocks the modal.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
