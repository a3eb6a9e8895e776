package main

import (
	"fmt"

	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/amanullahtanweer/speaker-align/internal/processor"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
	"github.com/spf13/cobra"
)

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align TRANSCRIPT_JSON",
		Short: "Align an existing transcript with speaker turns from an RTTM or JSON file",
		Long: "Align a Whisper-style JSON transcript with speaker turns read from --rttm or --turns.\n" +
			"Without either, every segment is reported as Unknown.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			switch {
			case cfg.Diarization.RTTMPath != "":
				cfg.Diarization.Provider = "rttm"
			case cfg.Diarization.JSONPath != "":
				cfg.Diarization.Provider = "json"
			default:
				cfg.Diarization.Provider = "none"
			}

			tr, err := transcriber.LoadTranscriptFile(args[0])
			if err != nil {
				return err
			}

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

			audioName, _ := cmd.Flags().GetString("audio")
			if audioName == "" {
				audioName = args[0]
			}
			rec, err := proc.ProcessTranscript(cmd.Context(), audioName, tr, 0)
			if err != nil {
				return err
			}
			fmt.Print(output.Summary(rec))
			return nil
		},
	}
	addAlignFlags(cmd)
	f := cmd.Flags()
	f.String("rttm", "", "RTTM file with speaker turns")
	f.String("turns", "", "JSON file with speaker turns")
	f.String("audio", "", "audio file name recorded in the result (defaults to the transcript path)")
	return cmd
}
