package ports

import (
	"context"
	"errors"
	"time"

	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
)

// Errors returned by EntryStore implementations.
var (
	// ErrEntryNotFound reports a miss.
	ErrEntryNotFound = errors.New("cache entry not found")
	// ErrCorruptEntry reports an entry that exists but cannot be decoded.
	// Callers treat it as a miss.
	ErrCorruptEntry = errors.New("cache entry unreadable")
	// ErrInvalidFingerprint reports a key that is not a well-formed fingerprint.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
)

// CacheEntry is one persisted completion keyed by its prompt fingerprint.
// Entries are immutable once written.
type CacheEntry struct {
	Fingerprint string                 `json:"fingerprint" msgpack:"fingerprint"`
	Model       string                 `json:"model,omitempty" msgpack:"model"`
	Completion  *completion.Completion `json:"completion" msgpack:"completion"`
	CreatedAt   time.Time              `json:"created_at" msgpack:"created_at"`
	Size        int64                  `json:"size,omitempty" msgpack:"-"`
}

// StoreStats describes the contents of a backing store.
type StoreStats struct {
	Backend      string    `json:"backend"`
	Location     string    `json:"location"`
	TotalEntries int64     `json:"total_entries"`
	TotalSize    int64     `json:"total_size"`
	OldestEntry  time.Time `json:"oldest_entry,omitempty"`
	NewestEntry  time.Time `json:"newest_entry,omitempty"`
}

// EntryStore is the key-value persistence behind the prompt cache. Swapping
// the backing store (disk, SQLite, Redis, memory) never changes PromptCache.
type EntryStore interface {
	// Get returns the entry for fp, ErrEntryNotFound on miss, or
	// ErrCorruptEntry when the stored bytes cannot be decoded.
	Get(ctx context.Context, fp string) (*CacheEntry, error)

	// Put persists entry. It is safe to call when an entry already exists.
	Put(ctx context.Context, entry *CacheEntry) error

	// Has checks for an entry without decoding it.
	Has(ctx context.Context, fp string) bool

	// Keys returns fingerprints whose text matches pattern (empty = all).
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Stats returns size and age information.
	Stats(ctx context.Context) (*StoreStats, error)

	// Clear deletes every entry. Only operators call this; the pipeline never does.
	Clear(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ComputeFunc performs the real completion request on a cache miss.
type ComputeFunc func(ctx context.Context) (*completion.Completion, error)

// CacheStats counts prompt cache activity for the current process.
type CacheStats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Computes    int64   `json:"computes"`
	Stores      int64   `json:"stores"`
	StoreErrors int64   `json:"store_errors"`
	Corrupt     int64   `json:"corrupt"`
	HitRate     float64 `json:"hit_rate"` // percentage
}

// PromptCache memoizes completions by prompt. Callers receive either the
// enabled or the disabled variant and never branch on which one they hold.
type PromptCache interface {
	// Fingerprint returns the key this cache uses for prompt.
	Fingerprint(prompt string) string

	// Lookup returns the stored completion for fp. Unreadable entries are
	// reported as a miss.
	Lookup(ctx context.Context, fp string) (*completion.Completion, bool)

	// Store persists c under fp.
	Store(ctx context.Context, fp string, c *completion.Completion) error

	// GetOrCompute returns the cached completion for prompt, or calls compute,
	// stores its result and returns it. When storing fails the computed
	// completion is still returned alongside an error wrapping
	// errors.ErrPersistFailed.
	GetOrCompute(ctx context.Context, prompt string, compute ComputeFunc) (*completion.Completion, error)

	// Enabled reports whether this cache persists anything.
	Enabled() bool

	// Stats returns activity counters.
	Stats() CacheStats
}
