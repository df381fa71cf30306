package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
)

const entryExt = ".json"

// DiskStore keeps one JSON document per fingerprint under a namespace
// directory, sharded by the first two hex characters:
//
//	<dir>/ab/abcdef....json
//
// Writes go to a uniquely named temp file in the same shard and are renamed
// into place, so a reader never observes a half-written entry and a crash
// mid-write leaves at most an orphaned temp file.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the namespace directory if needed and returns a store
// rooted at it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the namespace directory.
func (d *DiskStore) Dir() string {
	return d.dir
}

// Path returns the file that holds (or would hold) fp.
func (d *DiskStore) Path(fp string) string {
	return filepath.Join(d.dir, fp[:2], fp+entryExt)
}

// Get reads and decodes the entry for fp.
func (d *DiskStore) Get(_ context.Context, fp string) (*ports.CacheEntry, error) {
	if err := checkFingerprint(fp); err != nil {
		return nil, err
	}

	path := d.Path(fp)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.ErrEntryNotFound
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrCorruptEntry, err)
	}

	var entry ports.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrCorruptEntry, path, err)
	}
	if entry.Completion == nil {
		return nil, fmt.Errorf("%w: %s: missing completion", ports.ErrCorruptEntry, path)
	}
	if entry.Fingerprint != fp {
		return nil, fmt.Errorf("%w: %s: fingerprint mismatch", ports.ErrCorruptEntry, path)
	}
	entry.Size = int64(len(data))

	return &entry, nil
}

// Put writes entry unless a readable one already exists for its fingerprint.
// An unreadable entry is replaced.
func (d *DiskStore) Put(ctx context.Context, entry *ports.CacheEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	if _, err := d.Get(ctx, entry.Fingerprint); err == nil {
		return nil
	}
	path := d.Path(entry.Fingerprint)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode cache entry: %w", err)
	}

	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("could not create shard directory: %w", err)
	}

	tmp := filepath.Join(shard, "."+entry.Fingerprint+"."+uuid.NewString()+".tmp")
	if err := writeSynced(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not commit cache entry: %w", err)
	}

	return nil
}

// writeSynced writes data to a new file and flushes it to stable storage.
func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("could not write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("could not sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	return nil
}

// Has reports whether an entry file exists for fp.
func (d *DiskStore) Has(_ context.Context, fp string) bool {
	if checkFingerprint(fp) != nil {
		return false
	}
	_, err := os.Stat(d.Path(fp))
	return err == nil
}

// Keys returns the fingerprints on disk matching pattern, sorted.
func (d *DiskStore) Keys(_ context.Context, pattern string) ([]string, error) {
	match, err := keyFilter(pattern)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = d.walk(func(fp string, _ fs.FileInfo) {
		if match(fp) {
			keys = append(keys, fp)
		}
	})
	if err != nil {
		return nil, err
	}
	return sortedKeys(keys), nil
}

// Stats summarizes the entries on disk. Entry age is taken from file
// modification time.
func (d *DiskStore) Stats(_ context.Context) (*ports.StoreStats, error) {
	stats := &ports.StoreStats{Backend: "disk", Location: d.dir}

	err := d.walk(func(_ string, info fs.FileInfo) {
		stats.TotalEntries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if stats.OldestEntry.IsZero() || mod.Before(stats.OldestEntry) {
			stats.OldestEntry = mod
		}
		if mod.After(stats.NewestEntry) {
			stats.NewestEntry = mod
		}
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Clear removes every shard directory. Unrelated files in the namespace
// directory are left alone.
func (d *DiskStore) Clear(_ context.Context) error {
	shards, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read cache directory: %w", err)
	}

	var errs []error
	for _, s := range shards {
		if !s.IsDir() || !isShard(s.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.dir, s.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close is a no-op; DiskStore holds no open handles.
func (d *DiskStore) Close() error {
	return nil
}

// walk calls fn for every committed entry file. Temp files and foreign
// files are skipped.
func (d *DiskStore) walk(fn func(fp string, info fs.FileInfo)) error {
	shards, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read cache directory: %w", err)
	}

	for _, s := range shards {
		if !s.IsDir() || !isShard(s.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(d.dir, s.Name()))
		if err != nil {
			return fmt.Errorf("could not read shard %s: %w", s.Name(), err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, entryExt) {
				continue
			}
			fp := strings.TrimSuffix(name, entryExt)
			if !fingerprint.Valid(fp) || !strings.HasPrefix(fp, s.Name()) {
				continue
			}
			info, err := f.Info()
			if err != nil {
				// Removed between ReadDir and Info.
				continue
			}
			fn(fp, info)
		}
	}
	return nil
}

func isShard(name string) bool {
	return len(name) == 2 && fingerprint.Valid(name+strings.Repeat("0", fingerprint.Size-2))
}

// Ensure DiskStore implements EntryStore
var _ ports.EntryStore = (*DiskStore)(nil)
