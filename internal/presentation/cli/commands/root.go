// Package commands implements the CLI commands for docsmith.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/docsmith/internal/application"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config    *config.Config
	Formatter *output.Formatter
	Flags     *GlobalFlags
	Container *application.Container
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex // Protects appCtx for thread-safe access
)

// skipInit lists commands that run without configuration or a container.
var skipInit = map[string]bool{
	"help":       true,
	"version":    true,
	"completion": true,
	"init":       true,
}

// NewRootCmd creates the root command for the docsmith CLI. Container
// options are applied when the application is initialized.
func NewRootCmd(opts ...application.Option) *cobra.Command {
	globalFlags = GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "docsmith",
		Short: "Docsmith - LLM-written in-code documentation",
		Long: `Docsmith documents a source tree with a language model.

For every file it asks the model which classes and functions exist, writes a
docstring for each and summarizes each class. Every prompt is answered through
a persistent response cache, so re-running on unchanged code costs nothing.

Key features:
  • Python and Java projects
  • Prompt cache on disk, SQLite or Redis
  • Token and cost accounting per run
  • README generation from the collected documentation
  • Software quality assessments per ISO/IEC 25010 characteristic`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipInit[cmd.Name()] {
				return nil
			}
			return initializeApp(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.docsmith/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewDocumentCmd())
	rootCmd.AddCommand(NewQualityCmd())
	rootCmd.AddCommand(NewCacheCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// newFormatter builds the formatter for cmd from the global flags.
func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	), nil
}

// initializeApp initializes the application context.
func initializeApp(cmd *cobra.Command, opts []application.Option) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return err
	}

	opts = append([]application.Option{application.WithVerbose(globalFlags.Verbose)}, opts...)
	container, err := application.NewContainer(cmd.Context(), cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	appCtxMu.Lock()
	previous := appCtx
	appCtx = &AppContext{
		Config:    cfg,
		Formatter: formatter,
		Flags:     &globalFlags,
		Container: container,
	}
	appCtxMu.Unlock()

	if previous != nil && previous.Container != nil {
		_ = previous.Container.Close()
	}
	return nil
}

// loadConfig resolves configuration from the file, the environment and the
// defaults, and validates it.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Resolve(configPath)
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter(output.WithWriter(os.Stderr), output.WithColor(output.IsColorSupported()))
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
func GetContainer() *application.Container {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Container
	}
	return nil
}

// errNotInitialized is returned by commands that need a container.
var errNotInitialized = errors.New("application not initialized")

// Shutdown releases the resources held by the application context.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx != nil && appCtx.Container != nil {
		_ = appCtx.Container.Close()
	}
	appCtx = nil
}

// Execute runs the root command with graceful shutdown support.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	formatter := GetFormatter()
	Shutdown()

	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		_ = formatter.Warning("Interrupted, shutting down...")
		os.Exit(130) // Standard exit code for SIGINT
	default:
		_ = formatter.Error("%s", err.Error())
		os.Exit(1)
	}
}
