package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"advent-calendar-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DayLoader loads day JSONB from Postgres.
type DayLoader struct {
	pool *pgxpool.Pool
}

func NewDayLoader(pool *pgxpool.Pool) *DayLoader {
	return &DayLoader{pool: pool}
}

func (l *DayLoader) LoadDay(ctx context.Context, dayID int) (domain.Day, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM days WHERE id=$1`, dayID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Day{}, domain.ErrDayNotFound
	}
	if err != nil {
		return domain.Day{}, fmt.Errorf("load day: %w", err)
	}
	return decodeDay(dayID, raw)
}

func (l *DayLoader) LoadDays(ctx context.Context) ([]domain.Day, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM days ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		var (
			id  int
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		day, err := decodeDay(id, raw)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	return days, nil
}

func decodeDay(id int, raw []byte) (domain.Day, error) {
	var day domain.Day
	if err := json.Unmarshal(raw, &day); err != nil {
		return domain.Day{}, fmt.Errorf("unmarshal day %d: %w", id, err)
	}
	// The row key wins over whatever the document claims.
	day.ID = id
	return day, nil
}
