package output

import (
	"fmt"
	"strings"
)

// Summary renders the post-processing report printed by the CLI
func Summary(rec *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Segments: %d\n", len(rec.Segments))

	if rec.HasSpeakerDiarization {
		speakers := rec.Speakers()
		fmt.Fprintf(&b, "Speakers: %d (%s)\n", len(speakers), strings.Join(speakers, ", "))
		fmt.Fprintf(&b, "Strategy: %s\n", rec.AlignmentStrategy)

		if unknown := rec.UnknownCount(); unknown > 0 {
			fmt.Fprintf(&b, "Unknown segments: %d (%.1f%%)\n", unknown, float64(unknown)/float64(len(rec.Segments))*100)
		} else {
			b.WriteString("All segments attributed to a speaker\n")
		}

		st := rec.DiarizationStats
		b.WriteString("Diarization stats:\n")
		fmt.Fprintf(&b, "  turns before filter: %d\n", st.TurnsBeforeFilter)
		fmt.Fprintf(&b, "  turns after filter: %d\n", st.TurnsAfterFilter)
		fmt.Fprintf(&b, "  unique speakers: %d\n", st.UniqueSpeakers)
	}
	if rejected := rec.DiarizationStats.RejectedSpans; rejected > 0 {
		fmt.Fprintf(&b, "Rejected spans: %d\n", rejected)
	}

	fmt.Fprintf(&b, "Language: %s\n", rec.Language)
	fmt.Fprintf(&b, "Text: %d characters\n", len(rec.Text))
	fmt.Fprintf(&b, "Transcription time: %.1fs\n", rec.TranscriptionTime)
	fmt.Fprintf(&b, "Diarization time: %.1fs\n", rec.DiarizationTime)
	return b.String()
}
