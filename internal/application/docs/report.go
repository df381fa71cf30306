package docs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EmptyFileNote is recorded for files with no source code.
const EmptyFileNote = "This file is empty."

// GlobalScope names the pseudo-class holding module-level functions.
const GlobalScope = "global"

// Doc is one generated piece of documentation.
type Doc struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning,omitempty"`
}

// MethodDoc documents one method or function.
type MethodDoc struct {
	Name string `json:"name"`
	Doc
}

// ClassDoc documents a class, or the module-level functions when Name is
// GlobalScope.
type ClassDoc struct {
	Name    string      `json:"name"`
	Summary *Doc        `json:"summary,omitempty"`
	Methods []MethodDoc `json:"methods"`
}

// FileDoc documents one source file.
type FileDoc struct {
	Path    string     `json:"path"`
	Empty   bool       `json:"empty,omitempty"`
	Note    string     `json:"note,omitempty"`
	Classes []ClassDoc `json:"classes,omitempty"`
}

// Symbols counts the documented methods and class summaries of the file.
func (f FileDoc) Symbols() int {
	n := 0
	for _, c := range f.Classes {
		n += len(c.Methods)
		if c.Summary != nil {
			n++
		}
	}
	return n
}

// Report is the output of a documentation run.
type Report struct {
	Project  string    `json:"project"`
	Language string    `json:"language"`
	Files    []FileDoc `json:"files"`
	Readme   *Doc      `json:"readme,omitempty"`
}

// Symbols counts documented methods and class summaries.
func (r *Report) Symbols() int {
	n := 0
	for _, f := range r.Files {
		n += f.Symbols()
	}
	return n
}

// WriteJSON writes the report to path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	return writeJSON(path, "report", r)
}

func writeJSON(path, what string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", what, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", what, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	return nil
}

// ReadReport loads a report written by WriteJSON.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}
