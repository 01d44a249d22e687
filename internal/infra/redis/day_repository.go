package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"advent-calendar-service/internal/domain"
	"advent-calendar-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DayRepository caches days in Redis and falls back to a loader on cache miss.
// Days are stored as JSON in one hash: HSET calendar:days {dayID} {json}
type DayRepository struct {
	client *redis.Client
	loader memory.DayLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

const (
	daysKey  = "calendar:days"
	countKey = "calendar:days:count"
)

func NewDayRepository(client *redis.Client, loader memory.DayLoader, ttl time.Duration, logger *zap.Logger) *DayRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DayRepository) GetDay(ctx context.Context, dayID int) (domain.Day, error) {
	field := strconv.Itoa(dayID)
	if day, ok := r.cached(ctx, field); ok {
		return day, nil
	}

	result, err, _ := r.sf.Do("day:"+field, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if day, ok := r.cached(ctx, field); ok {
			return day, nil
		}

		day, err := r.loader.LoadDay(ctx, dayID)
		if err != nil {
			return domain.Day{}, err
		}
		r.store(ctx, false, day)
		return day, nil
	})
	if err != nil {
		return domain.Day{}, err
	}
	return result.(domain.Day), nil
}

// ListDays serves the whole hash when it is warm, otherwise reloads every day.
func (r *DayRepository) ListDays(ctx context.Context) ([]domain.Day, error) {
	if days, ok := r.cachedAll(ctx); ok {
		return days, nil
	}

	result, err, _ := r.sf.Do("all", func() (interface{}, error) {
		days, err := r.loader.LoadDays(ctx)
		if err != nil {
			return nil, err
		}
		r.store(ctx, true, days...)
		sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Day(nil), result.([]domain.Day)...), nil
}

// Invalidate drops the cached catalogue, e.g. after reseeding.
func (r *DayRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, daysKey, countKey).Err()
}

func (r *DayRepository) cached(ctx context.Context, field string) (domain.Day, bool) {
	raw, err := r.client.HGet(ctx, daysKey, field).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("day cache read failed", zap.String("day", field), zap.Error(err))
		}
		return domain.Day{}, false
	}
	var day domain.Day
	if err := json.Unmarshal([]byte(raw), &day); err != nil {
		r.logger.Warn("day cache entry corrupt", zap.String("day", field), zap.Error(err))
		return domain.Day{}, false
	}
	return day, true
}

func (r *DayRepository) cachedAll(ctx context.Context) ([]domain.Day, bool) {
	entries, err := r.client.HGetAll(ctx, daysKey).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	// A partially warm hash (filled by GetDay) cannot answer a listing.
	count, err := r.loaderCount(ctx)
	if err != nil || count != len(entries) {
		return nil, false
	}
	days := make([]domain.Day, 0, len(entries))
	for _, raw := range entries {
		var day domain.Day
		if err := json.Unmarshal([]byte(raw), &day); err != nil {
			return nil, false
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })
	return days, true
}

func (r *DayRepository) loaderCount(ctx context.Context) (int, error) {
	raw, err := r.client.Get(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (r *DayRepository) store(ctx context.Context, complete bool, days ...domain.Day) {
	ttl := r.ttlWithJitter()
	pipe := r.client.Pipeline()
	for _, day := range days {
		data, err := json.Marshal(day)
		if err != nil {
			r.logger.Warn("encode day failed", zap.Int("day", day.ID), zap.Error(err))
			continue
		}
		pipe.HSet(ctx, daysKey, strconv.Itoa(day.ID), data)
	}
	if complete {
		pipe.Set(ctx, countKey, len(days), ttl)
	}
	if ttl > 0 {
		pipe.Expire(ctx, daysKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// best-effort: the loader stays the source of truth
		r.logger.Warn("day cache write failed", zap.Error(err))
	}
}

func (r *DayRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
