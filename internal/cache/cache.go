// Package cache provides the score cache used by reranking. Lookups are
// best effort: a cache failure is never allowed to fail a query, so the
// Store API has no error returns.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Store is a best-effort string cache. Implementations log failures and
// degrade to cache misses instead of returning errors.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Delete(ctx context.Context, key string)
}

// Key builds a stable cache key from a prefix and arbitrary parts. Parts
// are hashed so long passages and unbounded user input stay within key
// size limits.
func Key(prefix string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return prefix + ":" + hex.EncodeToString(h[:])
}
