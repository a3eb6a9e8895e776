package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Print a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs := openStore(cfg)
			defer rs.Close()

			rec, err := rs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("as")
			switch output.Format(format) {
			case output.FormatJSON:
				return output.WriteJSON(os.Stdout, rec)
			case output.FormatYAML:
				return output.WriteYAML(os.Stdout, rec)
			case output.FormatCSV:
				return output.WriteCSV(os.Stdout, rec)
			case output.FormatMarkdown:
				return output.WriteMarkdown(os.Stdout, rec)
			case output.FormatTranscript:
				return output.WriteTranscript(os.Stdout, rec)
			case output.FormatRTTM:
				return output.WriteRTTM(os.Stdout, rec)
			case "summary":
				fmt.Print(output.Summary(rec))
				return nil
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
		},
	}
	cmd.Flags().String("as", "txt", "print as: txt, json, yaml, csv, md, rttm, summary")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs := openStore(cfg)
			defer rs.Close()

			limit, _ := cmd.Flags().GetInt64("limit")
			entries, err := rs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB ID\tAUDIO\tSEGMENTS\tUNKNOWN\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", e.JobID, e.AudioFile, e.Segments, e.Unknown, e.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64("limit", 20, "maximum number of results")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete JOB_ID...",
		Short: "Remove stored results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs := openStore(cfg)
			defer rs.Close()

			for _, id := range args {
				if err := rs.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", id)
			}
			return nil
		},
	}
}
