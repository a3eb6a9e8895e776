package processor

import (
	"fmt"

	"github.com/amanullahtanweer/speaker-align/internal/config"
	"github.com/amanullahtanweer/speaker-align/internal/diarizer"
	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
)

// FromConfig wires the configured transcription and diarization providers
func FromConfig(cfg *config.Config, store Store) (*Processor, error) {
	d, err := diarizer.New(cfg.DiarizerConfig())
	if err != nil {
		return nil, fmt.Errorf("diarizer: %w", err)
	}
	formats, err := output.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return nil, err
	}

	tcfg := cfg.TranscriberConfig()
	newTranscriber := func() (transcriber.Transcriber, error) {
		return transcriber.New(tcfg)
	}

	return New(Config{
		Provider:    cfg.Transcription.Provider,
		Align:       cfg.AlignOptions(),
		Bounds:      cfg.Bounds(),
		OutputDir:   cfg.Output.Dir,
		Formats:     formats,
		EventLog:    cfg.Output.EventLog,
		TimeLimit:   cfg.Transcription.TimeLimit,
		ChunkMillis: cfg.Transcription.ChunkMillis,
		SampleRate:  cfg.Transcription.SampleRate,
		Language:    cfg.Transcription.Language,
	}, newTranscriber, d, store)
}
