package output

import (
	"fmt"
	"strings"

	"github.com/jbctechsolutions/docsmith/internal/application/docs"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
)

// ReportRenderer renders documentation reports as a tree.
type ReportRenderer struct {
	formatter *Formatter
	maxWidth  int
}

// NewReportRenderer creates a new report renderer with the given formatter.
func NewReportRenderer(formatter *Formatter) *ReportRenderer {
	return &ReportRenderer{
		formatter: formatter,
		maxWidth:  72,
	}
}

// RenderReport renders every documented file, class and method.
func (r *ReportRenderer) RenderReport(report *docs.Report) {
	f := r.formatter
	_ = f.Header(fmt.Sprintf("Documentation: %s (%s)", report.Project, report.Language))

	for _, file := range report.Files {
		_ = f.Println("")
		if file.Empty {
			_ = f.Println("%s %s", f.Bold(file.Path), f.Dim("("+file.Note+")"))
			continue
		}
		_ = f.Println("%s", f.Bold(file.Path))
		for i, class := range file.Classes {
			r.renderClass(class, i == len(file.Classes)-1)
		}
	}

	if report.Readme != nil {
		_ = f.Println("")
		_ = f.Header("README")
		_ = f.Println("%s", report.Readme.Text)
	}
}

func (r *ReportRenderer) renderClass(class docs.ClassDoc, last bool) {
	f := r.formatter
	branch, indent := "├── ", "│   "
	if last {
		branch, indent = "└── ", "    "
	}

	title := "class " + class.Name
	if class.Name == docs.GlobalScope {
		title = "module functions"
	}
	_ = f.Println("%s%s", branch, f.Colorize(title, ColorCyan))
	if class.Summary != nil {
		_ = f.Println("%s%s", indent, f.Dim(r.truncate(class.Summary.Text)))
	}

	for i, m := range class.Methods {
		mb := "├── "
		if i == len(class.Methods)-1 {
			mb = "└── "
		}
		_ = f.Println("%s%s%s: %s", indent, mb, m.Name, r.truncate(m.Text))
	}
}

// truncate flattens text to one line of at most maxWidth runes.
func (r *ReportRenderer) truncate(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	runes := []rune(line)
	if len(runes) <= r.maxWidth {
		return line
	}
	return string(runes[:r.maxWidth-3]) + "..."
}

// RenderSummary renders cache and cost totals for a run.
func (r *ReportRenderer) RenderSummary(report *docs.Report, s usage.Summary) {
	f := r.formatter
	_ = f.Println("")
	_ = f.Header("Summary")
	_ = f.Item("Files", fmt.Sprintf("%d", len(report.Files)))
	_ = f.Item("Symbols", fmt.Sprintf("%d", report.Symbols()))
	r.renderUsage(s)
}

// RenderQuality renders one row per dimension and assessed file.
func (r *ReportRenderer) RenderQuality(report *docs.QualityReport) {
	f := r.formatter
	_ = f.Header(fmt.Sprintf("Software quality: %s (%s)", report.Project, report.Language))

	paths := report.Paths()
	table := TableData{
		Columns: []TableColumn{{Header: "DIMENSION"}, {Header: "FILE"}, {Header: "ASSESSMENT"}},
	}
	for _, dim := range docs.QualityDimensions {
		for _, path := range paths {
			d, ok := report.Dimensions[dim][path]
			if !ok {
				continue
			}
			table.Rows = append(table.Rows, []string{dim, path, r.truncate(d.Text)})
		}
	}
	_ = f.Table(table)

	for _, path := range report.Empty {
		_ = f.Println("%s %s", f.Bold(path), f.Dim("("+docs.EmptyFileNote+")"))
	}
}

// RenderQualitySummary renders assessment and usage totals for a quality run.
func (r *ReportRenderer) RenderQualitySummary(report *docs.QualityReport, s usage.Summary) {
	f := r.formatter
	_ = f.Println("")
	_ = f.Header("Summary")
	_ = f.Item("Files", fmt.Sprintf("%d", len(report.Paths())+len(report.Empty)))
	_ = f.Item("Assessments", fmt.Sprintf("%d", report.Assessments()))
	r.renderUsage(s)
}

func (r *ReportRenderer) renderUsage(s usage.Summary) {
	f := r.formatter
	_ = f.Item("Model calls", fmt.Sprintf("%d (%d cached, %.1f%% hit rate)", s.Calls, s.Hits, s.HitRate))
	if s.Cost != nil {
		_ = f.Item("Tokens", fmt.Sprintf("%d in, %d out", s.Cost.TotalInputTokens, s.Cost.TotalOutputTokens))
		_ = f.Item("Cost", fmt.Sprintf("$%.4f", s.Cost.TotalCost))
		if s.Cost.SavedCost > 0 {
			_ = f.Item("Saved by cache", fmt.Sprintf("$%.4f", s.Cost.SavedCost))
		}
	}
}
