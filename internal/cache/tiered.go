package cache

import "context"

// Tiered layers a local cache in front of a shared one. Reads check
// local first and backfill it on a shared hit; writes and deletes go to
// both tiers.
type Tiered struct {
	local  Store
	shared Store
}

func NewTiered(local, shared Store) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, key string) (string, bool) {
	if value, ok := t.local.Get(ctx, key); ok {
		return value, true
	}

	value, ok := t.shared.Get(ctx, key)
	if ok {
		t.local.Set(ctx, key, value)
	}
	return value, ok
}

func (t *Tiered) Set(ctx context.Context, key, value string) {
	t.local.Set(ctx, key, value)
	t.shared.Set(ctx, key, value)
}

func (t *Tiered) Delete(ctx context.Context, key string) {
	t.local.Delete(ctx, key)
	t.shared.Delete(ctx, key)
}
