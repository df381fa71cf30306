package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/docsmith/internal/application/docs"
	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// QualityResult is the JSON output of the quality command.
type QualityResult struct {
	Report      *docs.QualityReport `json:"report"`
	Usage       usage.Summary       `json:"usage"`
	Cache       ports.CacheStats    `json:"cache"`
	QualityPath string              `json:"quality_path"`
	UsagePath   string              `json:"usage_path"`
}

type qualityOptions struct {
	agentFlags
	table bool
}

// NewQualityCmd creates the quality command.
func NewQualityCmd() *cobra.Command {
	var opts qualityOptions

	cmd := &cobra.Command{
		Use:   "quality <path>",
		Short: "Assess the software quality of a project",
		Long: `Assess every source file under path against the ISO/IEC 25010 quality
characteristics: functional suitability, maintainability, performance
efficiency, portability, reliability, security and usability.

The assessments are written to <working_dir>/<quality_file> and token usage
to <working_dir>/<usage_file>. Prompts go through the prompt cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuality(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.table, "table", false, "print every assessment")

	return cmd
}

func runQuality(cmd *cobra.Command, target string, opts qualityOptions) error {
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

	report, err := agent.Quality(cmd.Context())
	bar.done()
	if err != nil {
		return fmt.Errorf("quality assessment failed: %w", err)
	}

	result := QualityResult{
		Report:      report,
		QualityPath: container.QualityPath(),
		UsagePath:   container.UsagePath(),
	}
	if err := report.WriteJSON(result.QualityPath); err != nil {
		return err
	}
	if err := container.Tracker().WriteJSON(result.UsagePath); err != nil {
		return err
	}
	result.Usage = container.Tracker().Summary()
	result.Cache = container.PromptCache().Stats()

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}

	renderer := output.NewReportRenderer(formatter)
	if opts.table {
		renderer.RenderQuality(report)
	}
	renderer.RenderQualitySummary(report, result.Usage)
	_ = formatter.Println("")
	_ = formatter.Success("Quality report written to %s", result.QualityPath)
	_ = formatter.Success("Usage written to %s", result.UsagePath)
	return nil
}
