package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// InitResult holds the result of the config init command for JSON output.
type InitResult struct {
	ConfigFile  string `json:"config_file"`
	Initialized bool   `json:"initialized"`
}

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration",
		Long: `Show the effective configuration or write a default config file.

Configuration is read from ~/.docsmith/config.yaml (or --config) and then
overridden by environment variables such as USE_CACHE, CACHE_DIR,
WORKING_DIR, LLM_MODEL_NAME and OPENAI_API_KEY.`,
	}

	cmd.AddCommand(NewConfigShowCmd())
	cmd.AddCommand(NewConfigInitCmd())

	return cmd
}

// NewConfigShowCmd creates the config show command.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := GetAppContext()
			if app == nil {
				return errNotInitialized
			}

			cfg := *app.Config
			if cfg.Provider.APIKey != "" {
				cfg.Provider.APIKey = "********"
			}

			if app.Formatter.Format() == output.FormatJSON {
				return app.Formatter.JSON(cfg)
			}

			data, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = app.Formatter.Writer().Write(data)
			return err
		},
	}
}

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration to ~/.docsmith/config.yaml, or to the
path given with --config. The API key is never written; set OPENAI_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}
			return runConfigInit(formatter, globalFlags.ConfigFile, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")

	return cmd
}

func runConfigInit(formatter *output.Formatter, path string, force bool) error {
	loader, err := config.NewLoader("")
	if err != nil {
		return fmt.Errorf("failed to create config loader: %w", err)
	}
	if path == "" {
		path = loader.DefaultConfigPath()
	}

	result := InitResult{ConfigFile: path}
	if _, err := os.Stat(path); err == nil && !force {
		if formatter.Format() == output.FormatJSON {
			return formatter.JSON(result)
		}
		_ = formatter.Warning("Config already exists at %s", path)
		_ = formatter.Info("Use --force to overwrite it.")
		return nil
	}

	if err := loader.Save(config.NewDefaultConfig(), path); err != nil {
		return err
	}
	result.Initialized = true

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result)
	}
	_ = formatter.Success("Wrote %s", path)
	return nil
}
