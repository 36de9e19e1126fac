package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"taggenius/internal/config"
	"taggenius/internal/tags"
)

func TestLoadDefaultsUseEnvAPIKeyAndExpandPaths(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "taggenius")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("data dir = %q, want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("log dir = %q", cfg.Paths.LogDir)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env value", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != config.Default().LLM.Model {
		t.Fatalf("model = %q", cfg.LLM.Model)
	}
	if cfg.Workflow.HeartbeatTimeout <= cfg.Workflow.HeartbeatInterval {
		t.Fatal("default heartbeat timeout must exceed the interval")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.SocketPath() != filepath.Join(wantData, "taggeniusd.sock") {
		t.Fatalf("socket path = %q", cfg.SocketPath())
	}
}

func TestLoadParsesConfigFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	body := `
[paths]
data_dir = "` + filepath.Join(base, "data") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[llm]
api_key = "file-key"
model = "custom-model"

[workflow]
progress_stride = 10

[tagging]
sub_genres = 2

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.LLM.APIKey != "file-key" || cfg.LLM.Model != "custom-model" {
		t.Fatalf("llm section: %+v", cfg.LLM)
	}
	if cfg.Workflow.ProgressStride != 10 {
		t.Fatalf("progress stride = %d", cfg.Workflow.ProgressStride)
	}
	if cfg.Workflow.JobPollInterval != config.Default().Workflow.JobPollInterval {
		t.Fatalf("unset fields must fall back to defaults: %+v", cfg.Workflow)
	}
	if cfg.Tagging.SubGenres != 2 {
		t.Fatalf("tagging: %+v", cfg.Tagging)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not normalized: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected validation failure without an API key")
	}
}

func TestLexiconDisabledByDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Lexicon.Enabled {
		t.Fatal("lexicon enrichment must be opt-in")
	}
	if cfg.Lexicon.BaseURL != "http://localhost:48624" {
		t.Fatalf("Lexicon.BaseURL = %q", cfg.Lexicon.BaseURL)
	}
	cfg.LLM.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad base url", func(c *config.Config) { c.LLM.BaseURL = "ftp://nope" }},
		{"bad lexicon url", func(c *config.Config) {
			c.Lexicon.Enabled = true
			c.Lexicon.BaseURL = "localhost:48624"
		}},
		{"heartbeat timeout too small", func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }},
		{"negative tag count", func(c *config.Config) { c.Tagging.SubGenres = -1 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "yaml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LLM.APIKey = "key"
			cfg.Logging.Level = "info"
			cfg.Logging.Format = "console"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("sample config is empty")
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestTaggingDetailConfigSkipsZeroCounts(t *testing.T) {
	tagging := config.Tagging{SubGenres: 2, EnergyVibes: 1}
	detail := tagging.DetailConfig()
	if len(detail) != 2 {
		t.Fatalf("detail = %v", detail)
	}
	if detail[tags.GroupSubGenre] != 2 || detail[tags.GroupEnergyVibe] != 1 {
		t.Fatalf("detail = %v", detail)
	}
	if err := detail.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/music")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "music") {
		t.Fatalf("ExpandPath = %q", got)
	}

	got, err = config.ExpandPath("/absolute/path")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != "/absolute/path" {
		t.Fatalf("ExpandPath = %q", got)
	}
}
