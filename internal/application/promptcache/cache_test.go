package promptcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jbctechsolutions/docsmith/internal/adapters/store"
	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/testutil"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tracing"
)

const docPrompt = "Document the method `def add(a, b): return a + b`"

// readOnlyStore rejects every write.
type readOnlyStore struct {
	*store.MemoryStore
}

func (readOnlyStore) Put(context.Context, *ports.CacheEntry) error {
	return errors.New("read-only file system")
}

func newDiskCache(t *testing.T, dir string) (*Enabled, *store.DiskStore) {
	t.Helper()
	s, err := store.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	return NewEnabled(s, fingerprint.Keyer{}), s
}

func TestEnabled_DocstringScenario(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cache, _ := newDiskCache(t, dir)

	a := testutil.NewCounter("gpt-4-turbo", "Docstring A")
	got, err := cache.GetOrCompute(ctx, docPrompt, a.Compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if got.Content != "Docstring A" {
		t.Fatalf("Content = %q, want Docstring A", got.Content)
	}
	if got.FromCache {
		t.Error("computed completion marked FromCache")
	}

	b := testutil.NewCounter("gpt-4-turbo", "Docstring B")
	got, err = cache.GetOrCompute(ctx, docPrompt, b.Compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if got.Content != "Docstring A" {
		t.Errorf("second call Content = %q, want cached Docstring A", got.Content)
	}
	if !got.FromCache {
		t.Error("stored completion not marked FromCache")
	}
	if b.Calls() != 0 {
		t.Errorf("compute called %d times on a hit, want 0", b.Calls())
	}

	// A fresh process over the same directory still sees the entry.
	restarted, _ := newDiskCache(t, dir)
	got, err = restarted.GetOrCompute(ctx, docPrompt, b.Compute)
	if err != nil {
		t.Fatalf("GetOrCompute() after restart error = %v", err)
	}
	if got.Content != "Docstring A" {
		t.Errorf("after restart Content = %q, want Docstring A", got.Content)
	}
	if b.Calls() != 0 {
		t.Errorf("compute called after restart")
	}
}

func TestDisabled_AlwaysComputes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cache := New(config.CacheConfig{Enabled: false, Dir: dir}, "gpt-4-turbo", nil)

	if cache.Enabled() {
		t.Fatal("Enabled() = true for a disabled configuration")
	}

	c := testutil.NewCounter("gpt-4-turbo", "Docstring A", "Docstring B")
	first, err := cache.GetOrCompute(ctx, docPrompt, c.Compute)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.GetOrCompute(ctx, docPrompt, c.Compute)
	if err != nil {
		t.Fatal(err)
	}

	if first.Content != "Docstring A" || second.Content != "Docstring B" {
		t.Errorf("got %q then %q, want Docstring A then Docstring B", first.Content, second.Content)
	}
	if c.Calls() != 2 {
		t.Errorf("compute called %d times, want 2", c.Calls())
	}
	if _, ok := cache.Lookup(ctx, cache.Fingerprint(docPrompt)); ok {
		t.Error("Lookup() hit on a disabled cache")
	}
	if err := cache.Store(ctx, cache.Fingerprint(docPrompt), first); err != nil {
		t.Errorf("Store() error = %v, want nil", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("disabled cache wrote %d files", len(entries))
	}
}

func TestNew_SelectsVariant(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CacheConfig
		store   ports.EntryStore
		enabled bool
	}{
		{"enabled with store", config.CacheConfig{Enabled: true}, store.NewMemoryStore(), true},
		{"disabled with store", config.CacheConfig{Enabled: false}, store.NewMemoryStore(), false},
		{"enabled without store", config.CacheConfig{Enabled: true}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg, "gpt-4-turbo", tt.store)
			if c.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", c.Enabled(), tt.enabled)
			}
		})
	}
}

func TestEnabled_StoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cache, _ := newDiskCache(t, t.TempDir())
	fp := cache.Fingerprint(docPrompt)
	comp := completion.New("Docstring A", "gpt-4-turbo")

	for i := 0; i < 2; i++ {
		if err := cache.Store(ctx, fp, comp); err != nil {
			t.Fatalf("Store() #%d error = %v", i+1, err)
		}
	}

	got, ok := cache.Lookup(ctx, fp)
	if !ok {
		t.Fatal("Lookup() missed after Store()")
	}
	if got.Content != comp.Content || got.Model != comp.Model {
		t.Errorf("Lookup() = %+v, want %+v", got, comp)
	}
}

func TestEnabled_StoreNil(t *testing.T) {
	cache := NewEnabled(store.NewMemoryStore(), fingerprint.Keyer{})
	err := cache.Store(context.Background(), fingerprint.Fingerprint("p"), nil)
	if !errors.Is(err, domainErrors.ErrNilCompletion) {
		t.Errorf("Store(nil) error = %v, want ErrNilCompletion", err)
	}
}

func TestEnabled_PersistFailureReturnsCompletion(t *testing.T) {
	ctx := context.Background()
	cache := NewEnabled(readOnlyStore{store.NewMemoryStore()}, fingerprint.Keyer{})
	c := testutil.NewCounter("gpt-4-turbo", "Docstring A")

	got, err := cache.GetOrCompute(ctx, docPrompt, c.Compute)
	if !errors.Is(err, domainErrors.ErrPersistFailed) {
		t.Fatalf("error = %v, want ErrPersistFailed", err)
	}
	var pe *domainErrors.PersistError
	if !errors.As(err, &pe) || pe.Fingerprint != cache.Fingerprint(docPrompt) {
		t.Errorf("error = %#v, want *PersistError for the prompt", err)
	}
	if got == nil || got.Content != "Docstring A" {
		t.Fatalf("completion = %+v, want Docstring A despite the persist failure", got)
	}

	stats := cache.Stats()
	if stats.StoreErrors != 1 || stats.Stores != 0 {
		t.Errorf("Stats() = %+v, want one store error and no stores", stats)
	}
}

func TestEnabled_PersistFailureOnReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	ctx := context.Background()
	dir := t.TempDir()
	cache, _ := newDiskCache(t, dir)
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	got, err := cache.GetOrCompute(ctx, docPrompt, testutil.NewCounter("m", "Docstring A").Compute)
	if !errors.Is(err, domainErrors.ErrPersistFailed) {
		t.Fatalf("error = %v, want ErrPersistFailed", err)
	}
	if got == nil || got.Content != "Docstring A" {
		t.Errorf("completion = %+v, want Docstring A", got)
	}
}

func TestEnabled_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	cache, disk := newDiskCache(t, t.TempDir())
	fp := cache.Fingerprint(docPrompt)

	path := disk.Path(fp)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"fingerprint": `), 0o644); err != nil {
		t.Fatal(err)
	}

	c := testutil.NewCounter("gpt-4-turbo", "Docstring A")
	got, err := cache.GetOrCompute(ctx, docPrompt, c.Compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if got.Content != "Docstring A" || c.Calls() != 1 {
		t.Errorf("got %q with %d computes, want fresh Docstring A", got.Content, c.Calls())
	}
	if cache.Stats().Corrupt != 1 {
		t.Errorf("Corrupt = %d, want 1", cache.Stats().Corrupt)
	}

	// The recomputed completion replaced the unreadable entry.
	if _, ok := cache.Lookup(ctx, fp); !ok {
		t.Error("Lookup() missed after the entry was rewritten")
	}
}

func TestEnabled_ComputeErrorStoresNothing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	cache := NewEnabled(mem, fingerprint.Keyer{})

	_, err := cache.GetOrCompute(ctx, docPrompt, testutil.NewFailingCounter(testutil.ErrScripted).Compute)
	if !errors.Is(err, testutil.ErrScripted) || !errors.Is(err, domainErrors.ErrComputeFailed) {
		t.Fatalf("error = %v, want ErrComputeFailed wrapping ErrScripted", err)
	}
	if mem.Has(ctx, cache.Fingerprint(docPrompt)) {
		t.Error("a failed compute left an entry behind")
	}

	_, err = cache.GetOrCompute(ctx, docPrompt, func(context.Context) (*completion.Completion, error) {
		return nil, nil
	})
	if !errors.Is(err, domainErrors.ErrNilCompletion) {
		t.Errorf("nil completion error = %v, want ErrNilCompletion", err)
	}
}

func TestEnabled_ConcurrentCallersShareOneCompute(t *testing.T) {
	ctx := context.Background()
	cache := NewEnabled(store.NewMemoryStore(), fingerprint.Keyer{})

	release := make(chan struct{})
	compute := func(context.Context) (*completion.Completion, error) {
		<-release
		return completion.New("Docstring A", "gpt-4-turbo"), nil
	}

	const n = 8
	results := make([]*completion.Completion, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := cache.GetOrCompute(ctx, docPrompt, compute)
			if err != nil {
				t.Errorf("GetOrCompute() error = %v", err)
				return
			}
			results[i] = c
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := cache.Stats().Computes; got != 1 {
		t.Errorf("Computes = %d, want 1", got)
	}
	for i, r := range results {
		if r == nil || r.Content != "Docstring A" || r.FromCache {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func TestEnabled_KeysAreScopedByModel(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	cfg := config.CacheConfig{Enabled: true, KeyIncludesModel: true}

	turbo := New(cfg, "gpt-4-turbo", mem)
	mini := New(cfg, "gpt-4o-mini", mem)
	if turbo.Fingerprint(docPrompt) == mini.Fingerprint(docPrompt) {
		t.Fatal("different models share a key")
	}

	if _, err := turbo.GetOrCompute(ctx, docPrompt, testutil.NewCounter("gpt-4-turbo", "A").Compute); err != nil {
		t.Fatal(err)
	}
	c := testutil.NewCounter("gpt-4o-mini", "B")
	got, err := mini.GetOrCompute(ctx, docPrompt, c.Compute)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "B" || c.Calls() != 1 {
		t.Errorf("switching model served %q from the other model's entry", got.Content)
	}
}

func TestEnabled_ReturnedCompletionIsACopy(t *testing.T) {
	ctx := context.Background()
	cache := NewEnabled(store.NewMemoryStore(), fingerprint.Keyer{})
	compute := testutil.NewCounter("m", "Docstring A").Compute

	first, err := cache.GetOrCompute(ctx, docPrompt, compute)
	if err != nil {
		t.Fatal(err)
	}
	first.Content = "mutated"

	second, err := cache.GetOrCompute(ctx, docPrompt, compute)
	if err != nil {
		t.Fatal(err)
	}
	if second.Content != "Docstring A" {
		t.Errorf("cached value changed to %q through a returned pointer", second.Content)
	}
}

func TestEnabled_Stats(t *testing.T) {
	ctx := context.Background()
	cache := NewEnabled(store.NewMemoryStore(), fingerprint.Keyer{})
	compute := testutil.NewCounter("m", "x").Compute

	for _, p := range []string{"a", "a", "a", "b"} {
		if _, err := cache.GetOrCompute(ctx, p, compute); err != nil {
			t.Fatal(err)
		}
	}

	got := cache.Stats()
	want := ports.CacheStats{Hits: 2, Misses: 2, Computes: 2, Stores: 2, HitRate: 50}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestEnabled_Tracing(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tracer := tracing.NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer tracer.Shutdown(ctx)

	cache := NewEnabled(store.NewMemoryStore(), fingerprint.Keyer{}, WithTracer(tracer))
	compute := testutil.NewCounter("m", "x").Compute
	for i := 0; i < 2; i++ {
		if _, err := cache.GetOrCompute(ctx, docPrompt, compute); err != nil {
			t.Fatal(err)
		}
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	for i, wantHit := range []bool{false, true} {
		span := spans[i]
		if span.Name() != "cache.get_or_compute" {
			t.Errorf("span name = %q", span.Name())
		}
		var hit, found bool
		for _, kv := range span.Attributes() {
			if kv.Key == "cache.hit" {
				hit, found = kv.Value.AsBool(), true
			}
		}
		if !found || hit != wantHit {
			t.Errorf("span %d cache.hit = %v (found %v), want %v", i, hit, found, wantHit)
		}
	}
}
