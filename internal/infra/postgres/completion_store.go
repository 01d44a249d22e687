package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// CompletionStore persists completions in the completions table.
type CompletionStore struct {
	pool *pgxpool.Pool
}

func NewCompletionStore(pool *pgxpool.Pool) *CompletionStore {
	return &CompletionStore{pool: pool}
}

func (s *CompletionStore) IsCompleted(ctx context.Context, userID string, dayID int) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM completions WHERE user_id=$1 AND day_id=$2)`,
		userID, dayID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return ok, nil
}

func (s *CompletionStore) MarkCompleted(ctx context.Context, userID string, dayID int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO completions (user_id, day_id) VALUES ($1, $2) ON CONFLICT (user_id, day_id) DO NOTHING`,
		userID, dayID)
	if err != nil {
		return fmt.Errorf("mark completion: %w", err)
	}
	return nil
}

func (s *CompletionStore) ListCompleted(ctx context.Context, userID string) ([]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT day_id FROM completions WHERE user_id=$1 ORDER BY day_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, 24)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
