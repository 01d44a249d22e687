package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// CompletionStore keeps one Redis set of completed day ids per user:
// SADD calendar:completions:{userID} {dayID}
type CompletionStore struct {
	client *redis.Client
}

func NewCompletionStore(client *redis.Client) *CompletionStore {
	return &CompletionStore{client: client}
}

func (s *CompletionStore) IsCompleted(ctx context.Context, userID string, dayID int) (bool, error) {
	return s.client.SIsMember(ctx, s.key(userID), dayID).Result()
}

func (s *CompletionStore) MarkCompleted(ctx context.Context, userID string, dayID int) error {
	return s.client.SAdd(ctx, s.key(userID), dayID).Err()
}

func (s *CompletionStore) ListCompleted(ctx context.Context, userID string) ([]int, error) {
	members, err := s.client.SMembers(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("completion member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *CompletionStore) key(userID string) string {
	return "calendar:completions:" + userID
}
