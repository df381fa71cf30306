package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
)

func TestNewDiskStore(t *testing.T) {
	t.Run("creates missing namespace", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		s, err := NewDiskStore(dir)
		if err != nil {
			t.Fatalf("NewDiskStore() error = %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("namespace %s was not created", dir)
		}
		if s.Dir() != dir {
			t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
		}
	})

	t.Run("empty dir", func(t *testing.T) {
		if _, err := NewDiskStore(""); err == nil {
			t.Error("NewDiskStore(\"\") should fail")
		}
	})

	t.Run("namespace is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "occupied")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewDiskStore(filepath.Join(file, "cache")); err == nil {
			t.Error("NewDiskStore() under a regular file should fail")
		}
	})
}

func TestDiskStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}

	e := newEntry("Document method foo", "Docstring A")
	if err := s.Put(ctx, e); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	want := filepath.Join(dir, e.Fingerprint[:2], e.Fingerprint+".json")
	if s.Path(e.Fingerprint) != want {
		t.Errorf("Path() = %q, want %q", s.Path(e.Fingerprint), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("entry file missing: %v", err)
	}
	if !strings.Contains(string(data), "Docstring A") {
		t.Errorf("entry file does not contain the completion: %s", data)
	}

	// No temp files left behind after a successful write.
	files, err := os.ReadDir(filepath.Dir(want))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", f.Name())
		}
	}
}

func TestDiskStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	e := newEntry("persist me", "Docstring A")
	if err := first.Put(ctx, e); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	first.Close()

	second, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	got, err := second.Get(ctx, e.Fingerprint)
	if err != nil {
		t.Fatalf("Get() after restart error = %v", err)
	}
	if got.Completion.Content != "Docstring A" {
		t.Errorf("Content = %q, want Docstring A", got.Completion.Content)
	}
}

func TestDiskStore_CorruptEntries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content func(fp string) string
	}{
		{"truncated json", func(string) string { return `{"fingerprint": "` }},
		{"not json", func(string) string { return "hello world" }},
		{"missing completion", func(fp string) string { return `{"fingerprint":"` + fp + `"}` }},
		{"fingerprint mismatch", func(string) string {
			return `{"fingerprint":"` + fingerprint.Fingerprint("other") + `","completion":{"content":"x"}}`
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDiskStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewDiskStore() error = %v", err)
			}
			fp := fingerprint.Fingerprint("corrupt " + tt.name)
			path := s.Path(fp)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.content(fp)), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err = s.Get(ctx, fp)
			if !errors.Is(err, ports.ErrCorruptEntry) {
				t.Errorf("Get() error = %v, want ErrCorruptEntry", err)
			}

			// A later Put repairs the entry.
			e := newEntry("corrupt "+tt.name, "repaired")
			if err := s.Put(ctx, e); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := s.Get(ctx, fp)
			if err != nil {
				t.Fatalf("Get() after repair error = %v", err)
			}
			if got.Completion.Content != "repaired" {
				t.Errorf("Content = %q, want repaired", got.Completion.Content)
			}
		})
	}
}

func TestDiskStore_InvalidFingerprint(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}

	for _, fp := range []string{"", "../secrets", strings.Repeat("G", fingerprint.Size)} {
		if _, err := s.Get(context.Background(), fp); !errors.Is(err, ports.ErrInvalidFingerprint) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidFingerprint", fp, err)
		}
		if s.Has(context.Background(), fp) {
			t.Errorf("Has(%q) = true", fp)
		}
	}
}

func TestDiskStore_IgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}

	e := newEntry("real", "doc")
	if err := s.Put(ctx, e); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	shard := filepath.Join(dir, e.Fingerprint[:2])
	mustWrite(t, filepath.Join(dir, "README.txt"), "not an entry")
	mustWrite(t, filepath.Join(shard, "."+e.Fingerprint+".abc.tmp"), "half written")
	mustWrite(t, filepath.Join(shard, "notes.json"), "{}")
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatal(err)
	}

	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != e.Fingerprint {
		t.Errorf("Keys() = %v, want [%s]", keys, e.Fingerprint)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.txt")); err != nil {
		t.Error("Clear() removed a file outside the shards")
	}
	if _, err := os.Stat(filepath.Join(dir, "logs")); err != nil {
		t.Error("Clear() removed a non-shard directory")
	}
}

func TestDiskStore_ReadOnlyNamespace(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	if err := s.Put(context.Background(), newEntry("p", "c")); err == nil {
		t.Error("Put() into a read-only namespace should fail")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
