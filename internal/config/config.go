package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
	"github.com/amanullahtanweer/speaker-align/internal/diarizer"
	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SPEAKER_ALIGN"

type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Diarization   DiarizationConfig   `mapstructure:"diarization"`
	Alignment     AlignmentConfig     `mapstructure:"alignment"`
	Output        OutputConfig        `mapstructure:"output"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Server        ServerConfig        `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

type TranscriptionConfig struct {
	Provider       string  `mapstructure:"provider"` // "vosk" or "assemblyai"
	VoskServerURL  string  `mapstructure:"vosk_server_url"`
	AssemblyAPIKey string  `mapstructure:"assemblyai_api_key"`
	AssemblyURL    string  `mapstructure:"assemblyai_url"`
	SampleRate     int     `mapstructure:"sample_rate"`
	ChunkMillis    int     `mapstructure:"chunk_ms"`
	TimeLimit      float64 `mapstructure:"time_limit"` // seconds, 0 = whole file
	Language       string  `mapstructure:"language"`   // recorded on results, e.g. "en"
}

type DiarizationConfig struct {
	Provider    string   `mapstructure:"provider"` // "http", "command", "rttm", "json" or "none"
	URL         string   `mapstructure:"url"`
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
	RTTMPath    string   `mapstructure:"rttm_path"`
	JSONPath    string   `mapstructure:"json_path"`
	MinSpeakers int      `mapstructure:"min_speakers"`
	MaxSpeakers int      `mapstructure:"max_speakers"`
}

type AlignmentConfig struct {
	Strategy           string  `mapstructure:"strategy"`
	MinSegmentDuration float64 `mapstructure:"min_segment_duration"`
	GapThreshold       float64 `mapstructure:"gap_threshold"`
}

type OutputConfig struct {
	Dir      string   `mapstructure:"dir"`
	Formats  []string `mapstructure:"formats"`
	EventLog bool     `mapstructure:"event_log"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	SaveTranscripts bool   `mapstructure:"save_transcripts"`
	RecordingsDir   string `mapstructure:"recordings_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("transcription.provider", "vosk")
	v.SetDefault("transcription.vosk_server_url", "ws://localhost:2700")
	v.SetDefault("transcription.assemblyai_api_key", "")
	v.SetDefault("transcription.assemblyai_url", "")
	v.SetDefault("transcription.sample_rate", 16000)
	v.SetDefault("transcription.chunk_ms", 100)
	v.SetDefault("transcription.time_limit", 0.0)
	v.SetDefault("transcription.language", "")

	v.SetDefault("diarization.provider", "none")
	v.SetDefault("diarization.url", "")
	v.SetDefault("diarization.command", "")
	v.SetDefault("diarization.args", []string{})
	v.SetDefault("diarization.rttm_path", "")
	v.SetDefault("diarization.json_path", "")
	v.SetDefault("diarization.min_speakers", 1)
	v.SetDefault("diarization.max_speakers", 10)

	v.SetDefault("alignment.strategy", align.StrategySmart.String())
	v.SetDefault("alignment.min_segment_duration", 0.5)
	v.SetDefault("alignment.gap_threshold", 0.3)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.formats", []string{"json", "csv", "txt"})
	v.SetDefault("output.event_log", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "speaker-align:")
	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.save_transcripts", true)
	v.SetDefault("server.recordings_dir", "recordings")
}

// flagKeys maps CLI flag names onto config keys
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"provider":       "transcription.provider",
	"vosk-url":       "transcription.vosk_server_url",
	"sample-rate":    "transcription.sample_rate",
	"time-limit":     "transcription.time_limit",
	"language":       "transcription.language",
	"diarizer":       "diarization.provider",
	"diarizer-url":   "diarization.url",
	"rttm":           "diarization.rttm_path",
	"turns":          "diarization.json_path",
	"min-speakers":   "diarization.min_speakers",
	"max-speakers":   "diarization.max_speakers",
	"strategy":       "alignment.strategy",
	"min-segment":    "alignment.min_segment_duration",
	"gap-threshold":  "alignment.gap_threshold",
	"output":         "output.dir",
	"format":         "output.formats",
	"event-log":      "output.event_log",
	"redis":          "redis.enabled",
	"redis-addr":     "redis.addr",
	"host":           "server.host",
	"port":           "server.port",
	"recordings-dir": "server.recordings_dir",
}

// Load reads configuration from path (optional), SPEAKER_ALIGN_* environment
// variables and the flags that were set on the command line, in increasing
// order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := align.ParseStrategy(c.Alignment.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Alignment.MinSegmentDuration < 0 {
		errs = append(errs, fmt.Errorf("alignment.min_segment_duration must not be negative"))
	}
	if c.Alignment.GapThreshold < 0 {
		errs = append(errs, fmt.Errorf("alignment.gap_threshold must not be negative"))
	}
	if err := c.Bounds().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := output.ParseFormats(c.Output.Formats); err != nil {
		errs = append(errs, err)
	}
	if c.Transcription.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("transcription.sample_rate must be positive"))
	}
	if c.Transcription.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("transcription.time_limit must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AlignOptions converts the alignment section, assuming Validate passed
func (c *Config) AlignOptions() align.Options {
	strategy, _ := align.ParseStrategy(c.Alignment.Strategy)
	return align.Options{
		Strategy:     strategy,
		MinDuration:  c.Alignment.MinSegmentDuration,
		GapThreshold: c.Alignment.GapThreshold,
	}
}

// DiarizerConfig converts the diarization section for diarizer.New
func (c *Config) DiarizerConfig() diarizer.Config {
	return diarizer.Config{
		Provider: c.Diarization.Provider,
		URL:      c.Diarization.URL,
		Command:  c.Diarization.Command,
		Args:     c.Diarization.Args,
		RTTMPath: c.Diarization.RTTMPath,
		JSONPath: c.Diarization.JSONPath,
	}
}

// TranscriberConfig converts the transcription section for transcriber.New
func (c *Config) TranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider:       c.Transcription.Provider,
		VoskServerURL:  c.Transcription.VoskServerURL,
		AssemblyAPIKey: c.Transcription.AssemblyAPIKey,
		AssemblyURL:    c.Transcription.AssemblyURL,
		SampleRate:     c.Transcription.SampleRate,
	}
}

func (c *Config) Bounds() diarizer.Bounds {
	return diarizer.Bounds{MinSpeakers: c.Diarization.MinSpeakers, MaxSpeakers: c.Diarization.MaxSpeakers}
}

// SetupLogging applies level and formatter to the standard logrus logger
func SetupLogging(c LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	switch c.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format: %s", c.Format)
	}
	return nil
}
