package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Timestamp formats seconds as MM:SS, minutes growing past 59
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func WriteJSON(w io.Writer, rec *Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

func WriteYAML(w io.Writer, rec *Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per segment: start,end,text,speaker
func WriteCSV(w io.Writer, rec *Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "text", "speaker"}); err != nil {
		return err
	}
	for _, s := range rec.Segments {
		row := []string{
			strconv.FormatFloat(s.Start, 'f', -1, 64),
			strconv.FormatFloat(s.End, 'f', -1, 64),
			s.Text,
			s.Speaker,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTranscript writes the human-readable transcript. With diarization,
// a speaker header opens every run of segments by the same speaker.
func WriteTranscript(w io.Writer, rec *Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcript: %s\n", rec.AudioFile)
	fmt.Fprintf(&b, "Language: %s\n", rec.Language)
	fmt.Fprintf(&b, "Diarization: %s\n\n", yesNo(rec.HasSpeakerDiarization))

	if rec.HasSpeakerDiarization {
		b.WriteString("=== TRANSCRIPT BY SPEAKER ===\n\n")
		current := ""
		for i, s := range rec.Segments {
			if i == 0 || s.Speaker != current {
				current = s.Speaker
				fmt.Fprintf(&b, "\n[%s]:\n", current)
			}
			fmt.Fprintf(&b, "%s - %s\n", Timestamp(s.Start), s.Text)
		}
	} else {
		b.WriteString("=== TRANSCRIPT ===\n\n")
		b.WriteString(rec.Text)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdown writes a report with a stats table and the segments
func WriteMarkdown(w io.Writer, rec *Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.AudioFile)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Language | %s |\n", rec.Language)
	fmt.Fprintf(&b, "| Diarization | %s |\n", yesNo(rec.HasSpeakerDiarization))
	fmt.Fprintf(&b, "| Strategy | %s |\n", rec.AlignmentStrategy)
	fmt.Fprintf(&b, "| Segments | %d |\n", len(rec.Segments))
	fmt.Fprintf(&b, "| Unknown | %d |\n", rec.UnknownCount())
	fmt.Fprintf(&b, "| Speakers | %s |\n", strings.Join(rec.Speakers(), ", "))
	fmt.Fprintf(&b, "| Transcription time | %.1fs |\n", rec.TranscriptionTime)
	fmt.Fprintf(&b, "| Diarization time | %.1fs |\n\n", rec.DiarizationTime)

	b.WriteString("## Transcript\n\n")
	for _, s := range rec.Segments {
		fmt.Fprintf(&b, "- **%s** `%s`: %s\n", s.Speaker, Timestamp(s.Start), s.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
