package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/docsmith/internal/adapters/store"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := testutil.TempDir(t)
	cfg := config.NewDefaultConfig()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Docs.WorkingDir = filepath.Join(dir, "work")
	cfg.Logging.Level = "error"
	return cfg
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)

	container, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Config() == nil {
		t.Error("Config should not be nil")
	}
	if container.Logger() == nil {
		t.Error("Logger should not be nil")
	}
	if container.Tracer() == nil {
		t.Error("Tracer should not be nil")
	}
	if container.Store() == nil {
		t.Error("Store should not be nil when caching is enabled")
	}
	if !container.PromptCache().Enabled() {
		t.Error("PromptCache should be enabled")
	}
	if container.Provider() == nil {
		t.Error("Provider should not be nil")
	}
	if container.Model() == nil || container.Model().Name() != config.DefaultModel {
		t.Error("Model should use the configured model")
	}
	if container.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
	if container.CostCalculator() == nil {
		t.Error("CostCalculator should not be nil")
	}
	if _, err := os.Stat(cfg.Cache.Dir); err != nil {
		t.Errorf("cache dir should exist: %v", err)
	}
}

func TestNewContainer_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	container, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Store() != nil {
		t.Error("Store should be nil when caching is disabled")
	}
	if container.PromptCache().Enabled() {
		t.Error("PromptCache should be disabled")
	}
	if _, err := os.Stat(cfg.Cache.Dir); !os.IsNotExist(err) {
		t.Errorf("disabled cache should not create %s", cfg.Cache.Dir)
	}
}

func TestNewContainer_Options(t *testing.T) {
	cfg := testConfig(t)
	p := testutil.NewFakeProvider()
	s := store.NewMemoryStore()

	container, err := NewContainer(context.Background(), cfg, WithProvider(p), WithStore(s), WithVerbose(true))
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	if container.Provider() != p {
		t.Error("WithProvider was ignored")
	}
	if container.Store() != s {
		t.Error("WithStore was ignored")
	}
}

func TestNewContainer_BadPromptsDir(t *testing.T) {
	cfg := testConfig(t)
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "readme.tmpl", "{{.Project")
	cfg.Docs.PromptsDir = dir

	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Error("expected error for invalid prompt template")
	}
}

func TestContainer_NewAgent(t *testing.T) {
	cfg := testConfig(t)
	root := filepath.Join(testutil.TempDir(t), "proj")
	testutil.WriteFile(t, root, "app.py", "")

	container, err := NewContainer(context.Background(), cfg, WithProvider(testutil.NewFakeProvider()))
	if err != nil {
		t.Fatal(err)
	}
	defer container.Close()

	agent, err := container.NewAgent(root)
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	if agent.Project() != "proj" {
		t.Errorf("Project() = %q", agent.Project())
	}

	report, err := agent.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || !report.Files[0].Empty {
		t.Errorf("report = %+v", report)
	}

	if got, want := container.ReportPath(), filepath.Join(cfg.Docs.WorkingDir, config.DefaultReportFile); got != want {
		t.Errorf("ReportPath() = %q, want %q", got, want)
	}
	if got, want := container.UsagePath(), filepath.Join(cfg.Docs.WorkingDir, config.DefaultUsageFile); got != want {
		t.Errorf("UsagePath() = %q, want %q", got, want)
	}
	if got, want := container.QualityPath(), filepath.Join(cfg.Docs.WorkingDir, config.DefaultQualityFile); got != want {
		t.Errorf("QualityPath() = %q, want %q", got, want)
	}
}
