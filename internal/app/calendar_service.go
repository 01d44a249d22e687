package app

import (
	"context"
	"fmt"
	"time"

	"advent-calendar-service/internal/domain"
	"advent-calendar-service/internal/quiz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DayRepository loads day content (from cache/backing store).
type DayRepository interface {
	GetDay(ctx context.Context, dayID int) (domain.Day, error)
	ListDays(ctx context.Context) ([]domain.Day, error)
}

// CompletionRepository persists which days a user has answered correctly.
// MarkCompleted must be idempotent.
type CompletionRepository interface {
	IsCompleted(ctx context.Context, userID string, dayID int) (bool, error)
	MarkCompleted(ctx context.Context, userID string, dayID int) error
	ListCompleted(ctx context.Context, userID string) ([]int, error)
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// UnlockPolicy decides when a door may be opened. Day N unlocks at
// Start + N-1 days; a zero Start unlocks everything.
type UnlockPolicy struct {
	Start time.Time
}

// Unlocked reports whether dayID is open at now.
func (p UnlockPolicy) Unlocked(dayID int, now time.Time) bool {
	if p.Start.IsZero() {
		return true
	}
	return !now.Before(p.Start.AddDate(0, 0, dayID-1))
}

const completionTimeout = 5 * time.Second

// CalendarService is the parent of every modal: it feeds days in, owns
// completion persistence and tracks live sessions.
type CalendarService struct {
	days        DayRepository
	completions CompletionRepository
	sessions    SessionRepository

	scheduler quiz.Scheduler
	delays    quiz.Delays
	unlock    UnlockPolicy
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option customises a CalendarService.
type Option func(*CalendarService)

func WithScheduler(s quiz.Scheduler) Option { return func(c *CalendarService) { c.scheduler = s } }
func WithDelays(d quiz.Delays) Option       { return func(c *CalendarService) { c.delays = d } }
func WithUnlockPolicy(p UnlockPolicy) Option {
	return func(c *CalendarService) { c.unlock = p }
}
func WithLogger(l *zap.Logger) Option { return func(c *CalendarService) { c.logger = l } }

// WithClock is test-only for deterministic unlock checks.
func WithClock(now func() time.Time) Option { return func(c *CalendarService) { c.now = now } }

func NewCalendarService(days DayRepository, completions CompletionRepository, sessions SessionRepository, opts ...Option) *CalendarService {
	s := &CalendarService{
		days:        days,
		completions: completions,
		sessions:    sessions,
		scheduler:   quiz.TimerScheduler{},
		delays:      quiz.DefaultDelays(),
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grid lists every day with the user's completion and lock flags.
func (s *CalendarService) Grid(ctx context.Context, userID string) (domain.Grid, error) {
	days, err := s.days.ListDays(ctx)
	if err != nil {
		return domain.Grid{}, err
	}
	completed, err := s.completions.ListCompleted(ctx, userID)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("list completions: %w", err)
	}
	done := make(map[int]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}

	now := s.now()
	grid := domain.Grid{
		UserID: userID,
		Tiles:  make([]domain.Tile, 0, len(days)),
	}
	for _, day := range days {
		_, isDone := done[day.ID]
		grid.Tiles = append(grid.Tiles, domain.Tile{
			ID:        day.ID,
			Title:     day.Title,
			Colors:    day.Colors,
			LogoURL:   day.LogoURL,
			Completed: isDone,
			Locked:    !s.unlock.Unlocked(day.ID, now),
		})
		if isDone {
			grid.Progress.Completed++
		}
	}
	grid.Progress.Total = len(days)
	return grid, nil
}

// StartSession creates a closed modal for a client connection.
func (s *CalendarService) StartSession(_ context.Context, userID string) (*Session, error) {
	session := newSession(s.newID(), userID, s.scheduler, s.delays, s.now())
	s.sessions.Save(session)
	s.logger.Debug("session started", zap.String("session", session.id), zap.String("user", userID))
	return session, nil
}

// OpenDay opens the session's modal on dayID. A day the user already
// completed opens straight onto its story.
func (s *CalendarService) OpenDay(ctx context.Context, sessionID string, dayID int) (*domain.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !s.unlock.Unlocked(dayID, s.now()) {
		return nil, domain.ErrDayLocked
	}
	day, err := s.days.GetDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	completed, err := s.completions.IsCompleted(ctx, session.userID, dayID)
	if err != nil {
		return nil, fmt.Errorf("check completion: %w", err)
	}

	userID := session.userID
	view := session.open(day, completed, func(dayID int) {
		s.markCompleted(userID, dayID)
	})
	s.logger.Debug("day opened",
		zap.String("session", sessionID),
		zap.Int("day", dayID),
		zap.Bool("completed", completed))
	return view, nil
}

// SelectOption forwards an option click to the session's modal.
func (s *CalendarService) SelectOption(_ context.Context, sessionID string, index int) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.selectOption(index)
	return nil
}

// CloseDay dismisses the session's modal.
func (s *CalendarService) CloseDay(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.logger.Debug("day closed", zap.String("session", sessionID), zap.Int("day", session.currentDay()))
	session.close()
	return nil
}

// Subscribe returns a channel that receives modal updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *CalendarService) Subscribe(_ context.Context, sessionID string) (<-chan domain.ModalUpdate, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// EndSession disposes the session's modal and forgets it.
func (s *CalendarService) EndSession(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.dispose()
	s.sessions.Delete(sessionID)
	s.logger.Debug("session ended",
		zap.String("session", sessionID),
		zap.Duration("lifetime", s.now().Sub(session.CreatedAt())))
}

func (s *CalendarService) markCompleted(userID string, dayID int) {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	if err := s.completions.MarkCompleted(ctx, userID, dayID); err != nil {
		s.logger.Error("persist completion failed",
			zap.String("user", userID),
			zap.Int("day", dayID),
			zap.Error(err))
		return
	}
	s.logger.Info("day completed", zap.String("user", userID), zap.Int("day", dayID))
}
