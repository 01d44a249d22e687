package memory

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"advent-calendar-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DayLoader fetches day content from a backing store (YAML file, Postgres).
type DayLoader interface {
	LoadDay(ctx context.Context, dayID int) (domain.Day, error)
	LoadDays(ctx context.Context) ([]domain.Day, error)
}

// DayRepository caches days with TTL to avoid repeated loader hits.
type DayRepository struct {
	loader DayLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu        sync.RWMutex
	cache     map[int]cachedDay
	all       []domain.Day
	allExpiry time.Time
}

type cachedDay struct {
	day       domain.Day
	expiresAt time.Time
}

func NewDayRepository(loader DayLoader, ttl time.Duration) *DayRepository {
	return &DayRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedDay),
	}
}

func (r *DayRepository) GetDay(ctx context.Context, dayID int) (domain.Day, error) {
	if day, ok := r.cached(dayID); ok {
		return day, nil
	}

	result, err, _ := r.sf.Do("day:"+strconv.Itoa(dayID), func() (interface{}, error) {
		if day, ok := r.cached(dayID); ok {
			return day, nil
		}

		day, err := r.loader.LoadDay(ctx, dayID)
		if err != nil {
			return domain.Day{}, err
		}

		r.mu.Lock()
		r.cache[dayID] = cachedDay{day: day, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return day, nil
	})
	if err != nil {
		return domain.Day{}, err
	}
	return result.(domain.Day), nil
}

// ListDays returns every day ordered by id.
func (r *DayRepository) ListDays(ctx context.Context) ([]domain.Day, error) {
	now := r.clock()
	r.mu.RLock()
	if r.all != nil && r.allExpiry.After(now) {
		days := append([]domain.Day(nil), r.all...)
		r.mu.RUnlock()
		return days, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("all", func() (interface{}, error) {
		days, err := r.loader.LoadDays(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.all = days
		r.allExpiry = expiresAt
		for _, day := range days {
			r.cache[day.ID] = cachedDay{day: day, expiresAt: expiresAt}
		}
		r.mu.Unlock()
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Day(nil), result.([]domain.Day)...), nil
}

func (r *DayRepository) cached(dayID int) (domain.Day, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[dayID]; ok && entry.expiresAt.After(now) {
		return entry.day, true
	}
	return domain.Day{}, false
}

func (r *DayRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDayLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticDayLoader struct {
	days map[int]domain.Day
}

func NewStaticDayLoader(days []domain.Day) *StaticDayLoader {
	byID := make(map[int]domain.Day, len(days))
	for _, day := range days {
		byID[day.ID] = day
	}
	return &StaticDayLoader{days: byID}
}

func (l *StaticDayLoader) LoadDay(_ context.Context, dayID int) (domain.Day, error) {
	if day, ok := l.days[dayID]; ok {
		return day, nil
	}
	return domain.Day{}, domain.ErrDayNotFound
}

func (l *StaticDayLoader) LoadDays(_ context.Context) ([]domain.Day, error) {
	days := make([]domain.Day, 0, len(l.days))
	for _, day := range l.days {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })
	return days, nil
}
