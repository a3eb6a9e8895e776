package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts := cfg.AlignOptions()
	if opts != align.DefaultOptions() {
		t.Errorf("Expected default align options, got %+v", opts)
	}
	if b := cfg.Bounds(); b.MinSpeakers != 1 || b.MaxSpeakers != 10 {
		t.Errorf("Unexpected bounds: %+v", b)
	}
	if cfg.Transcription.SampleRate != 16000 || cfg.Output.Dir != "output" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Redis.TTL != 7*24*time.Hour {
		t.Errorf("Unexpected redis TTL: %v", cfg.Redis.TTL)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
alignment:
  strategy: aggressive
  gap_threshold: 0.5
diarization:
  provider: http
  url: http://localhost:9000
  max_speakers: 4
output:
  formats: [json, yaml]
redis:
  ttl: 1h
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("SPEAKER_ALIGN_DIARIZATION_URL", "http://diarizer:9000")
	t.Setenv("SPEAKER_ALIGN_TRANSCRIPTION_LANGUAGE", "de")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("strategy", "smart", "")
	flags.Int("min-speakers", 1, "")
	if err := flags.Parse([]string{"--min-speakers=2"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AlignOptions().Strategy != align.StrategyAggressive {
		t.Errorf("Unchanged flag should not override the file, got %s", cfg.Alignment.Strategy)
	}
	if cfg.Alignment.GapThreshold != 0.5 || cfg.Alignment.MinSegmentDuration != 0.5 {
		t.Errorf("Unexpected alignment config: %+v", cfg.Alignment)
	}
	if cfg.Diarization.URL != "http://diarizer:9000" {
		t.Errorf("Env should override the file, got %s", cfg.Diarization.URL)
	}
	if cfg.Transcription.Language != "de" {
		t.Errorf("Expected language from env, got %q", cfg.Transcription.Language)
	}
	if b := cfg.Bounds(); b.MinSpeakers != 2 || b.MaxSpeakers != 4 {
		t.Errorf("Unexpected bounds: %+v", b)
	}
	if len(cfg.Output.Formats) != 2 || cfg.Output.Formats[1] != "yaml" {
		t.Errorf("Unexpected formats: %v", cfg.Output.Formats)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("Unexpected TTL: %v", cfg.Redis.TTL)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(*Config)
	}{
		{"Unknown strategy", func(c *Config) { c.Alignment.Strategy = "fuzzy" }},
		{"Negative gap", func(c *Config) { c.Alignment.GapThreshold = -1 }},
		{"Inverted bounds", func(c *Config) {
			c.Diarization.MinSpeakers = 5
			c.Diarization.MaxSpeakers = 2
		}},
		{"Unknown format", func(c *Config) { c.Output.Formats = []string{"pdf"} }},
		{"Zero sample rate", func(c *Config) { c.Transcription.SampleRate = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			cfg, err := Load("", nil)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	if err := SetupLogging(LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := SetupLogging(LogConfig{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level")
	}
	if err := SetupLogging(LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("Expected error for invalid format")
	}
	SetupLogging(LogConfig{Level: "info", Format: "text"})
}
