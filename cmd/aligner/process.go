package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amanullahtanweer/speaker-align/internal/config"
	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/amanullahtanweer/speaker-align/internal/processor"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const inputDir = "input"

func addAlignFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "output", "output directory")
	f.StringSlice("format", []string{"json", "csv", "txt"}, "output formats: json, csv, txt, yaml, md, rttm")
	f.Bool("event-log", false, "write a JSONL event log per job")
	f.String("strategy", "smart", "alignment strategy: strict, smart, aggressive")
	f.Float64("min-segment", 0.5, "drop speaker turns shorter than this (seconds)")
	f.Float64("gap-threshold", 0.3, "merge same-speaker turns closer than this (seconds)")
	f.Int("min-speakers", 1, "minimum number of speakers")
	f.Int("max-speakers", 10, "maximum number of speakers")
}

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process AUDIO_FILE",
		Short: "Transcribe and diarize a WAV file, then align the two",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			audioPath, err := resolveInput(args[0])
			if err != nil {
				return err
			}
			return runProcess(cmd.Context(), cfg, audioPath)
		},
	}
	addAlignFlags(cmd)
	f := cmd.Flags()
	f.String("provider", "vosk", "transcription provider: vosk, assemblyai")
	f.String("vosk-url", "ws://localhost:2700", "Vosk server websocket URL")
	f.Int("sample-rate", 16000, "transcriber sample rate")
	f.Float64("time-limit", 0, "only transcribe the first N seconds")
	f.String("language", "", "language tag recorded on the result, e.g. en")
	f.String("diarizer", "none", "diarization provider: http, command, rttm, json, none")
	f.String("diarizer-url", "", "diarization service URL")
	return cmd
}

// resolveInput falls back to the input/ directory for bare file names
func resolveInput(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	candidate := filepath.Join(inputDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	var available []string
	if entries, err := os.ReadDir(inputDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				available = append(available, e.Name())
			}
		}
	}
	if len(available) > 0 {
		return "", fmt.Errorf("file not found: %s (available in %s/: %v)", path, inputDir, available)
	}
	return "", fmt.Errorf("file not found: %s", path)
}

func runProcess(ctx context.Context, cfg *config.Config, audioPath string) error {
	var st processor.Store
	if cfg.Redis.Enabled {
		rs := openStore(cfg)
		defer rs.Close()
		st = rs
	}

	proc, err := processor.FromConfig(cfg, st)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"audio_file":   audioPath,
		"provider":     cfg.Transcription.Provider,
		"diarizer":     cfg.Diarization.Provider,
		"min_speakers": cfg.Diarization.MinSpeakers,
		"max_speakers": cfg.Diarization.MaxSpeakers,
		"strategy":     cfg.Alignment.Strategy,
	}).Info("Processing")
	if cfg.Transcription.TimeLimit > 0 {
		log.Infof("Time limit: %.0f seconds", cfg.Transcription.TimeLimit)
	}

	rec, err := proc.Process(ctx, audioPath)
	if err != nil {
		return err
	}
	fmt.Print(output.Summary(rec))
	return nil
}
