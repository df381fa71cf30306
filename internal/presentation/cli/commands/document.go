package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/docsmith/internal/application/docs"
	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// ReadmeFile is the name of the generated README under the working directory.
const ReadmeFile = "README.md"

// DocumentResult is the JSON output of the document command.
type DocumentResult struct {
	Report     *docs.Report     `json:"report"`
	Usage      usage.Summary    `json:"usage"`
	Cache      ports.CacheStats `json:"cache"`
	ReportPath string           `json:"report_path"`
	UsagePath  string           `json:"usage_path"`
	ReadmePath string           `json:"readme_path,omitempty"`
}

// agentFlags are the flags shared by commands that run an agent.
type agentFlags struct {
	language    string
	concurrency int
}

func (f *agentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "source language: python, java (default from config)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "files processed in parallel (default from config)")
}

type documentOptions struct {
	agentFlags
	readme bool
	tree   bool
}

// NewDocumentCmd creates the document command.
func NewDocumentCmd() *cobra.Command {
	var opts documentOptions

	cmd := &cobra.Command{
		Use:   "document <path>",
		Short: "Generate documentation for a project",
		Long: `Generate in-code documentation for every source file under path.

The report is written to <working_dir>/<report_file> and token usage to
<working_dir>/<usage_file>. Prompts already answered are served from the
prompt cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.readme, "readme", false, "also generate a README")
	cmd.Flags().BoolVar(&opts.tree, "tree", false, "print the documentation tree")

	return cmd
}

func runDocument(cmd *cobra.Command, target string, opts documentOptions) error {
	app := GetAppContext()
	if app == nil {
		return errNotInitialized
	}
	formatter := app.Formatter
	container := app.Container

	agent, bar, err := prepareAgent(cmd, app, target, opts.agentFlags)
	if err != nil {
		return err
	}
	textOut := formatter.Format() != output.FormatJSON

	ctx := cmd.Context()
	report, err := agent.Run(ctx)
	bar.done()
	if err != nil {
		return fmt.Errorf("documentation failed: %w", err)
	}

	result := DocumentResult{
		Report:     report,
		ReportPath: container.ReportPath(),
		UsagePath:  container.UsagePath(),
	}

	if opts.readme {
		if _, err := agent.Readme(ctx, report); err != nil {
			return fmt.Errorf("readme generation failed: %w", err)
		}
		result.ReadmePath = filepath.Join(app.Config.Docs.WorkingDir, ReadmeFile)
	}

	if err := report.WriteJSON(result.ReportPath); err != nil {
		return err
	}
	if report.Readme != nil {
		if err := os.WriteFile(result.ReadmePath, []byte(report.Readme.Text+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write README: %w", err)
		}
	}
	if err := container.Tracker().WriteJSON(result.UsagePath); err != nil {
		return err
	}

	result.Usage = container.Tracker().Summary()
	result.Cache = container.PromptCache().Stats()

	if !textOut {
		return formatter.JSON(result)
	}

	renderer := output.NewReportRenderer(formatter)
	if opts.tree {
		renderer.RenderReport(report)
	}
	renderer.RenderSummary(report, result.Usage)
	_ = formatter.Println("")
	_ = formatter.Success("Report written to %s", result.ReportPath)
	_ = formatter.Success("Usage written to %s", result.UsagePath)
	if result.ReadmePath != "" {
		_ = formatter.Success("README written to %s", result.ReadmePath)
	}
	return nil
}

// progress drives a progress bar from agent callbacks. A nil bar is a no-op.
type progress struct {
	bar *output.ProgressBar
}

func (p *progress) step(path string) {
	if p.bar != nil {
		p.bar.Increment(path)
	}
}

func (p *progress) done() {
	if p.bar != nil {
		p.bar.Complete()
	}
}

// prepareAgent applies flags over the loaded config and creates an agent for
// target. Text output gets a progress bar on stderr sized to the file count.
func prepareAgent(cmd *cobra.Command, app *AppContext, target string, flags agentFlags) (*docs.Agent, *progress, error) {
	if flags.language != "" {
		app.Config.Docs.Language = flags.language
	}
	if flags.concurrency > 0 {
		app.Config.Docs.Concurrency = flags.concurrency
	}
	if err := app.Config.Docs.Validate(); err != nil {
		return nil, nil, err
	}

	p := &progress{}
	var opts []docs.Option
	textOut := app.Formatter.Format() != output.FormatJSON
	if textOut {
		opts = append(opts, docs.WithProgress(p.step))
	}

	agent, err := app.Container.NewAgent(target, opts...)
	if err != nil {
		return nil, nil, err
	}

	if textOut {
		files, err := agent.Files()
		if err != nil {
			return nil, nil, err
		}
		p.bar = output.NewProgressBar(len(files), "",
			output.WithProgressBarWriter(cmd.ErrOrStderr()),
			output.WithProgressBarColor(app.Formatter.ColorEnabled()),
		)
	}
	return agent, p, nil
}
