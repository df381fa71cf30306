package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// VersionInfo holds version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version, build information, and platform details for docsmith.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return runVersion(formatter, short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}

func runVersion(formatter *output.Formatter, short bool) error {
	jsonOut := formatter.Format() == output.FormatJSON

	if short {
		if jsonOut {
			return formatter.JSON(map[string]string{"version": Version})
		}
		return formatter.Println("%s", Version)
	}

	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if jsonOut {
		return formatter.JSON(info)
	}

	_ = formatter.Header("Docsmith")
	_ = formatter.Item("Version", info.Version)
	_ = formatter.Item("Git Commit", info.GitCommit)
	_ = formatter.Item("Build Date", info.BuildDate)
	_ = formatter.Item("Go Version", info.GoVersion)
	_ = formatter.Item("Platform", info.Platform)

	return nil
}
