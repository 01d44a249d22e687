package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advent-calendar-service/internal/domain"
	"github.com/uptrace/bun"
)

type dayRow struct {
	bun.BaseModel `bun:"table:days"`

	ID        int       `bun:"id,pk"`
	Data      string    `bun:"data,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// SeedDays upserts the catalogue into the days table.
func SeedDays(ctx context.Context, db *bun.DB, days []domain.Day) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]dayRow, 0, len(days))
	for _, day := range days {
		if err := day.Validate(); err != nil {
			return 0, err
		}
		data, err := json.Marshal(day)
		if err != nil {
			return 0, fmt.Errorf("marshal day %d: %w", day.ID, err)
		}
		rows = append(rows, dayRow{ID: day.ID, Data: string(data), UpdatedAt: now})
	}

	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed days: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}
