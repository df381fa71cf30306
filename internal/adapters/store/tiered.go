package store

import (
	"context"
	"errors"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
)

// TieredStore puts a fast store in front of a durable one. Hits in the
// durable tier are promoted into the fast tier; writes go through to both,
// durable first.
type TieredStore struct {
	hot     ports.EntryStore
	durable ports.EntryStore
}

// NewTieredStore combines hot and durable tiers.
func NewTieredStore(hot, durable ports.EntryStore) *TieredStore {
	return &TieredStore{
		hot:     hot,
		durable: durable,
	}
}

// Get checks the hot tier first, then the durable tier.
func (t *TieredStore) Get(ctx context.Context, fp string) (*ports.CacheEntry, error) {
	if entry, err := t.hot.Get(ctx, fp); err == nil {
		return entry, nil
	}

	entry, err := t.durable.Get(ctx, fp)
	if err != nil {
		return nil, err
	}

	// Promotion failure only costs a slower next lookup.
	_ = t.hot.Put(ctx, entry)
	return entry, nil
}

// Put persists to the durable tier and then warms the hot tier. The entry
// only counts as stored once the durable write succeeds.
func (t *TieredStore) Put(ctx context.Context, entry *ports.CacheEntry) error {
	if err := t.durable.Put(ctx, entry); err != nil {
		return err
	}
	_ = t.hot.Put(ctx, entry)
	return nil
}

// Has checks either tier.
func (t *TieredStore) Has(ctx context.Context, fp string) bool {
	return t.hot.Has(ctx, fp) || t.durable.Has(ctx, fp)
}

// Keys lists the durable tier, which is a superset of the hot tier.
func (t *TieredStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return t.durable.Keys(ctx, pattern)
}

// Stats reports the durable tier.
func (t *TieredStore) Stats(ctx context.Context) (*ports.StoreStats, error) {
	return t.durable.Stats(ctx)
}

// Clear empties both tiers.
func (t *TieredStore) Clear(ctx context.Context) error {
	return errors.Join(t.hot.Clear(ctx), t.durable.Clear(ctx))
}

// Close closes both tiers.
func (t *TieredStore) Close() error {
	return errors.Join(t.hot.Close(), t.durable.Close())
}

// Ensure TieredStore implements EntryStore
var _ ports.EntryStore = (*TieredStore)(nil)
