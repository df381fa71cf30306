package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jbctechsolutions/docsmith/internal/infrastructure/logging"
)

// FileQuality holds the assessments of one source file, keyed by dimension.
type FileQuality struct {
	Path        string
	Empty       bool
	Assessments map[string]Doc
}

// QualityReport is the output of a software quality run. Dimensions maps
// each quality dimension to the assessment of every non-empty file.
type QualityReport struct {
	Project    string                    `json:"project"`
	Language   string                    `json:"language"`
	Dimensions map[string]map[string]Doc `json:"dimensions"`
	Empty      []string                  `json:"empty,omitempty"`
}

// NewQualityReport creates a report with an entry for every dimension.
func NewQualityReport(project, language string) *QualityReport {
	r := &QualityReport{
		Project:    project,
		Language:   language,
		Dimensions: make(map[string]map[string]Doc, len(QualityDimensions)),
	}
	for _, d := range QualityDimensions {
		r.Dimensions[d] = map[string]Doc{}
	}
	return r
}

// Add merges the assessments of one file.
func (r *QualityReport) Add(fq FileQuality) {
	if fq.Empty {
		r.Empty = append(r.Empty, fq.Path)
		return
	}
	for dim, d := range fq.Assessments {
		if r.Dimensions[dim] == nil {
			r.Dimensions[dim] = map[string]Doc{}
		}
		r.Dimensions[dim][fq.Path] = d
	}
}

// Assessments counts the file assessments across all dimensions.
func (r *QualityReport) Assessments() int {
	n := 0
	for _, files := range r.Dimensions {
		n += len(files)
	}
	return n
}

// Paths lists the assessed files in sorted order.
func (r *QualityReport) Paths() []string {
	seen := make(map[string]bool)
	for _, files := range r.Dimensions {
		for path := range files {
			seen[path] = true
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// WriteJSON writes the report to path, creating parent directories.
func (r *QualityReport) WriteJSON(path string) error {
	return writeJSON(path, "quality report", r)
}

// ReadQualityReport loads a report written by QualityReport.WriteJSON.
func ReadQualityReport(path string) (*QualityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality report: %w", err)
	}
	var r QualityReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode quality report %s: %w", path, err)
	}
	return &r, nil
}

// Quality assesses every source file of the project against each of
// QualityDimensions. Prompts go through the same model and cache as Run.
func (a *Agent) Quality(ctx context.Context) (*QualityReport, error) {
	var report *QualityReport
	err := a.observe(ctx, func(ctx context.Context) (int, error) {
		files, err := a.Files()
		if err != nil {
			return 0, err
		}
		r, err := a.quality(ctx, files)
		if err != nil {
			return 0, err
		}
		report = r
		return len(files), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (a *Agent) quality(ctx context.Context, files []string) (*QualityReport, error) {
	results := make([]FileQuality, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, path := range files {
		g.Go(func() error {
			fq, err := a.AssessFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = fq
			if a.progress != nil {
				a.progress(path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := NewQualityReport(a.project, a.lang.Name)
	for _, fq := range results {
		report.Add(fq)
	}
	return report, nil
}

// AssessFile runs every quality prompt over the project file path.
func (a *Agent) AssessFile(ctx context.Context, path string) (FileQuality, error) {
	ctx = logging.WithFile(ctx, path)
	ctx, span := a.tracer.StartFileSpan(ctx, path)

	fq, err := a.assessFile(ctx, path)
	if err != nil {
		span.EndWithError(err)
		return fq, err
	}
	span.SetAssessments(len(fq.Assessments))
	span.End()
	return fq, nil
}

func (a *Agent) assessFile(ctx context.Context, path string) (FileQuality, error) {
	fq := FileQuality{Path: path}

	code, err := a.retriever.Read(path)
	if err != nil {
		return fq, err
	}
	if strings.TrimSpace(code) == "" {
		fq.Empty = true
		return fq, nil
	}
	a.logger.DebugContext(ctx, "assessing file quality")

	fq.Assessments = make(map[string]Doc, len(QualityDimensions))
	for _, dim := range QualityDimensions {
		prompt, err := a.prompts.Render(QualityPrompt(dim), sourceData{
			Language:   a.lang.Display,
			SourceCode: code,
		})
		if err != nil {
			return fq, err
		}
		d, err := a.ask(logging.WithSymbol(ctx, dim), prompt)
		if err != nil {
			return fq, fmt.Errorf("%s: %s: %w", path, dim, err)
		}
		fq.Assessments[dim] = d
	}
	return fq, nil
}
