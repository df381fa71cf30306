// Package store provides EntryStore backends for the prompt cache.
//
// Every backend is append-only from the pipeline's point of view: an entry
// that exists is never overwritten, and nothing expires. Clear exists for
// operators and is never called during a run.
package store

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
)

// checkFingerprint rejects keys that are not fingerprints, which also keeps
// path separators out of the disk layout.
func checkFingerprint(fp string) error {
	if !fingerprint.Valid(fp) {
		return fmt.Errorf("%w: %q", ports.ErrInvalidFingerprint, fp)
	}
	return nil
}

// checkEntry validates an entry before it is written.
func checkEntry(entry *ports.CacheEntry) error {
	if entry == nil || entry.Completion == nil {
		return fmt.Errorf("%w: entry has no completion", ports.ErrCorruptEntry)
	}
	return checkFingerprint(entry.Fingerprint)
}

// cloneEntry returns a deep copy so callers cannot mutate stored state.
func cloneEntry(entry *ports.CacheEntry) *ports.CacheEntry {
	if entry == nil {
		return nil
	}
	cp := *entry
	cp.Completion = entry.Completion.Clone()
	return &cp
}

// keyFilter compiles a Keys pattern; an empty pattern matches everything.
func keyFilter(pattern string) (func(string) bool, error) {
	if pattern == "" {
		return func(string) bool { return true }, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid key pattern: %w", err)
	}
	return re.MatchString, nil
}

// sortedKeys sorts keys in place and returns them, never nil.
func sortedKeys(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	sort.Strings(keys)
	return keys
}
