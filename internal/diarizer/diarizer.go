package diarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// ErrUnavailable signals that no diarization could be produced for the input.
// Callers treat it as degraded input, not as a failure.
var ErrUnavailable = errors.New("diarization unavailable")

// Bounds constrains the number of speakers the model may find
type Bounds struct {
	MinSpeakers int
	MaxSpeakers int
}

// Validate checks 1 <= MinSpeakers <= MaxSpeakers
func (b Bounds) Validate() error {
	if b.MinSpeakers < 1 {
		return fmt.Errorf("min speakers must be at least 1, got %d", b.MinSpeakers)
	}
	if b.MaxSpeakers < b.MinSpeakers {
		return fmt.Errorf("max speakers (%d) below min speakers (%d)", b.MaxSpeakers, b.MinSpeakers)
	}
	return nil
}

// Diarizer produces raw speaker turns for an audio file
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error)
}

// Noop never diarizes.
type Noop struct{}

func (Noop) Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error) {
	return nil, ErrUnavailable
}

// Config selects and configures a provider
type Config struct {
	Provider string // "http", "command", "rttm", "json" or "none"
	URL      string
	Command  string
	Args     []string
	RTTMPath string
	JSONPath string
}

// New creates a diarizer for the configured provider
func New(cfg Config) (Diarizer, error) {
	switch cfg.Provider {
	case "", "none":
		return Noop{}, nil
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("http diarizer requires a URL")
		}
		return NewHTTPDiarizer(cfg.URL), nil
	case "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("command diarizer requires a command")
		}
		return &CommandDiarizer{Command: cfg.Command, Args: cfg.Args}, nil
	case "rttm":
		return RTTMFile{Path: cfg.RTTMPath}, nil
	case "json":
		return JSONFile{Path: cfg.JSONPath}, nil
	default:
		return nil, fmt.Errorf("unknown diarization provider: %s", cfg.Provider)
	}
}

// rawTurn is the JSON shape shared by the HTTP and command providers
type rawTurn struct {
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
	Speaker string   `json:"speaker"`
}

// toTurns drops entries missing a start or end
func toTurns(raw []rawTurn) []align.SpeakerTurn {
	turns := make([]align.SpeakerTurn, 0, len(raw))
	for _, r := range raw {
		if r.Start == nil || r.End == nil {
			continue
		}
		turns = append(turns, align.SpeakerTurn{Start: *r.Start, End: *r.End, Speaker: r.Speaker})
	}
	return turns
}
