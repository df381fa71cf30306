package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
)

var (
	defaultIgnoredDirs = []string{
		"__pycache__", "venv", "node_modules", "dist", "build", "out",
		"target", "bin", "obj", "lib", "include", "logs",
	}
	defaultIgnoredFiles = []string{"Thumbs.db", "desktop.ini"}
)

// Retriever lists the source files of a project. Hidden entries and common
// build, dependency and log directories are skipped.
type Retriever struct {
	root         string
	ignoredDirs  map[string]bool
	ignoredFiles map[string]bool
}

// NewRetriever returns a retriever rooted at the project directory root.
func NewRetriever(root string) (*Retriever, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrTargetNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domainErrors.ErrTargetNotFound, root)
	}

	r := &Retriever{
		root:         root,
		ignoredDirs:  make(map[string]bool, len(defaultIgnoredDirs)),
		ignoredFiles: make(map[string]bool, len(defaultIgnoredFiles)),
	}
	for _, d := range defaultIgnoredDirs {
		r.ignoredDirs[d] = true
	}
	for _, f := range defaultIgnoredFiles {
		r.ignoredFiles[f] = true
	}
	return r, nil
}

// Root returns the project directory.
func (r *Retriever) Root() string {
	return r.root
}

// Mapping groups every file by extension (without the dot). Paths are
// slash-separated, relative to the root and sorted.
func (r *Retriever) Mapping() (map[string][]string, error) {
	mapping := make(map[string][]string)

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != r.root && (strings.HasPrefix(name, ".") || r.ignoredDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || r.ignoredFiles[name] || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		mapping[ext] = append(mapping[ext], filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", r.root, err)
	}

	for _, files := range mapping {
		sort.Strings(files)
	}
	return mapping, nil
}

// Files returns the files with extension ext (without the dot).
func (r *Retriever) Files(ext string) ([]string, error) {
	mapping, err := r.Mapping()
	if err != nil {
		return nil, err
	}
	files := mapping[strings.TrimPrefix(ext, ".")]
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// Read returns the content of the project file rel.
func (r *Retriever) Read(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), nil
}
