package output

import (
	"os"
	"path/filepath"
	"testing"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDetectColorSupport(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	tests := []struct {
		name string
		env  map[string]string
		out  *os.File
		want bool
	}{
		{"no color wins", map[string]string{"NO_COLOR": "", "FORCE_COLOR": "1"}, nil, false},
		{"force color", map[string]string{"FORCE_COLOR": "1"}, nil, true},
		{"no output", map[string]string{"TERM": "xterm"}, nil, false},
		{"regular file", map[string]string{"TERM": "xterm"}, file, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectColorSupport(envLookup(tt.env), tt.out); got != tt.want {
				t.Errorf("DetectColorSupport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsColorSupported_Cached(t *testing.T) {
	first := IsColorSupported()
	if IsColorSupported() != first {
		t.Error("IsColorSupported should return a stable result")
	}
}
