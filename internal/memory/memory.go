// Package memory keeps per-user dialogue history in Redis so follow-up
// questions can be answered with context. It degrades gracefully: when
// Redis is down every read returns an empty history and writes report
// failure, and the assistant keeps answering without context.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

const maxTurnContentRunes = 1000

// ErrDisabled is returned by writes when the memory has no backing store.
var ErrDisabled = errors.New("context memory is disabled")

// Memory stores bounded conversation histories keyed by user id, each
// expiring after a period of inactivity.
type Memory struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// New creates a context memory over the given Redis client. A nil client
// disables the memory entirely: reads are empty, writes fail with
// ErrDisabled.
func New(client *redis.Client, maxTurns int, ttl time.Duration) *Memory {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Memory{client: client, maxTurns: maxTurns, ttl: ttl}
}

// Enabled reports whether the memory has a backing store.
func (m *Memory) Enabled() bool {
	return m.client != nil
}

func contextKey(userID string) string {
	return "context:" + userID
}

// Get returns the user's dialogue history, most recent turn last. Any
// failure, including corrupt stored data, yields an empty history.
func (m *Memory) Get(ctx context.Context, userID string) []domain.ConversationTurn {
	if m.client == nil {
		return nil
	}

	key := contextKey(userID)
	data, err := m.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("memory: get context for user %s failed: %v", userID, err)
		}
		return nil
	}

	var turns []domain.ConversationTurn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		log.Printf("memory: corrupt context for user %s, dropping: %v", userID, err)
		if delErr := m.client.Del(ctx, key).Err(); delErr != nil {
			log.Printf("memory: delete corrupt context for user %s failed: %v", userID, delErr)
		}
		return nil
	}

	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}

	return turns
}

// Save appends one turn to the user's history, truncating long content,
// dropping the oldest turns beyond the cap and refreshing the TTL. The
// turn is dropped and an error returned when the store is disabled or
// the write fails.
func (m *Memory) Save(ctx context.Context, userID string, role domain.Role, content string) error {
	if m.client == nil {
		return ErrDisabled
	}

	if !domain.IsValidRole(role) {
		return domain.ErrInvalidRole
	}

	turns := m.Get(ctx, userID)
	turns = append(turns, domain.ConversationTurn{
		Role:      role,
		Content:   truncateRunes(content, maxTurnContentRunes),
		Timestamp: time.Now().UTC(),
	})
	if len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	if err := m.client.Set(ctx, contextKey(userID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	return nil
}

// Clear removes the user's dialogue history.
func (m *Memory) Clear(ctx context.Context, userID string) error {
	if m.client == nil {
		return ErrDisabled
	}

	if err := m.client.Del(ctx, contextKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	return nil
}

// Stats describes the state of the context store, for monitoring.
type Stats struct {
	Status     string `json:"status"`
	UsedMemory string `json:"used_memory,omitempty"`
	TotalKeys  int64  `json:"total_keys,omitempty"`
}

// Stats reports Redis memory usage and key count for the context store.
func (m *Memory) Stats(ctx context.Context) *Stats {
	if m.client == nil {
		return &Stats{Status: "disabled"}
	}

	keys, err := m.client.DBSize(ctx).Result()
	if err != nil {
		return &Stats{Status: "error"}
	}

	used, _ := m.client.Info(ctx, "memory").Result()
	return &Stats{Status: "active", UsedMemory: used, TotalKeys: keys}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
