package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
)

const (
	defaultQueryTimeout = 5 * time.Second
	scanBatch           = 256
)

// RedisStore implements EntryStore on Redis. Entries are msgpack-encoded
// and written with SETNX and no expiry, so the first write wins and entries
// live until an operator clears them.
type RedisStore struct {
	client       *redis.Client
	prefix       string
	queryTimeout time.Duration
}

// NewRedisStore wraps client. The store owns the client and closes it on
// Close.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:       client,
		prefix:       prefix,
		queryTimeout: defaultQueryTimeout,
	}
}

// NewRedisStoreFromURL parses a redis:// URL and connects.
func NewRedisStoreFromURL(ctx context.Context, rawURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not reach redis: %w", err)
	}

	return NewRedisStore(client, prefix), nil
}

func (r *RedisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, r.queryTimeout)
}

func (r *RedisStore) key(fp string) string {
	if r.prefix == "" {
		return fp
	}
	return r.prefix + ":" + fp
}

func (r *RedisStore) fingerprintOf(key string) string {
	if r.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, r.prefix+":")
}

// Get fetches and decodes the entry for fp.
func (r *RedisStore) Get(ctx context.Context, fp string) (*ports.CacheEntry, error) {
	if err := checkFingerprint(fp); err != nil {
		return nil, err
	}

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	data, err := r.client.Get(qctx, r.key(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read cache entry: %w", err)
	}

	var entry ports.CacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCorruptEntry, err)
	}
	if entry.Completion == nil || entry.Fingerprint != fp {
		return nil, fmt.Errorf("%w: %s", ports.ErrCorruptEntry, fp)
	}
	entry.Size = int64(len(data))

	return &entry, nil
}

// Put writes entry with SETNX.
func (r *RedisStore) Put(ctx context.Context, entry *ports.CacheEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	data, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("could not encode cache entry: %w", err)
	}

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if err := r.client.SetNX(qctx, r.key(entry.Fingerprint), data, 0).Err(); err != nil {
		return fmt.Errorf("could not write cache entry: %w", err)
	}
	return nil
}

// Has checks if fp exists.
func (r *RedisStore) Has(ctx context.Context, fp string) bool {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	n, err := r.client.Exists(qctx, r.key(fp)).Result()
	return err == nil && n > 0
}

// Keys scans the prefix and returns fingerprints matching pattern.
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	match, err := keyFilter(pattern)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = r.scan(ctx, func(key string) error {
		fp := r.fingerprintOf(key)
		if checkFingerprint(fp) == nil && match(fp) {
			keys = append(keys, fp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedKeys(keys), nil
}

// Stats counts entries under the prefix and sums their encoded sizes.
// Redis keeps no creation time, so entry ages are left zero.
func (r *RedisStore) Stats(ctx context.Context) (*ports.StoreStats, error) {
	stats := &ports.StoreStats{
		Backend:  "redis",
		Location: r.client.Options().Addr + "/" + r.prefix,
	}

	err := r.scan(ctx, func(key string) error {
		if checkFingerprint(r.fingerprintOf(key)) != nil {
			return nil
		}
		qctx, cancel := r.queryCtx(ctx)
		defer cancel()
		n, err := r.client.StrLen(qctx, key).Result()
		if err != nil {
			return err
		}
		stats.TotalEntries++
		stats.TotalSize += n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Clear deletes every entry under the prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	var batch []string
	err := r.scan(ctx, func(key string) error {
		if checkFingerprint(r.fingerprintOf(key)) == nil {
			batch = append(batch, key)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	return r.client.Del(qctx, batch...).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// scan iterates the keys under the prefix.
func (r *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	match := "*"
	if r.prefix != "" {
		match = r.prefix + ":*"
	}

	var cursor uint64
	for {
		qctx, cancel := r.queryCtx(ctx)
		keys, next, err := r.client.Scan(qctx, cursor, match, scanBatch).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("could not scan cache keys: %w", err)
		}
		for _, k := range keys {
			if err := fn(k); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ensure RedisStore implements EntryStore
var _ ports.EntryStore = (*RedisStore)(nil)
