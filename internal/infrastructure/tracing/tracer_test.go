package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled {
		t.Error("expected tracing to be disabled by default")
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("ExporterType = %s, want none", cfg.ExporterType)
	}
	if cfg.ServiceName != "docsmith" {
		t.Errorf("ServiceName = %s, want docsmith", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %f, want 1.0", cfg.SampleRate)
	}
}

func TestNew_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false, ExporterType: ExporterStdout}},
		{"no exporter", Config{Enabled: true, ExporterType: ExporterNone}},
		{"empty exporter", Config{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tracer.Enabled() {
				t.Error("tracer should not export")
			}
			_, rs := tracer.StartRunSpan(context.Background(), "IIRA", "python")
			rs.End()
			if err := tracer.Shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown() = %v", err)
			}
		})
	}
}

func TestNew_UnsupportedExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, ExporterType: "jaeger"})
	if err == nil || !strings.Contains(err.Error(), "unsupported exporter") {
		t.Errorf("err = %v, want unsupported exporter", err)
	}
}

func TestNew_StdoutExporter(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}

	tracer, err := New(ctx, Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "docsmith-test",
		Environment:  "test",
		SampleRate:   1.0,
		Output:       buf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tracer.Enabled() {
		t.Fatal("expected an exporting tracer")
	}

	ctx, rs := tracer.StartRunSpan(ctx, "IIRA", "python")
	_, fs := tracer.StartFileSpan(ctx, "app.py")
	fs.SetSymbols(2, 5)
	fs.End()
	rs.SetFileCount(1)
	rs.End()

	if err := tracer.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	for _, want := range []string{"docs.run", "docs.file", "docsmith-test"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("exported spans missing %q", want)
		}
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{1.5, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-0.5, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased"},
	}

	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	tracer := Default()
	if tracer.Enabled() {
		t.Error("default tracer owns no provider")
	}
	_, span := tracer.Start(context.Background(), "test")
	span.End()
}
