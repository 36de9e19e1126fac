package testsupport

import (
	"path/filepath"
	"testing"

	"taggenius/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.LLM.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.JobPollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithProgressStride overrides the progress write frequency.
func WithProgressStride(stride int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.ProgressStride = stride
	}
}

// WithModel overrides the classifier model name.
func WithModel(model string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.Model = model
	}
}
