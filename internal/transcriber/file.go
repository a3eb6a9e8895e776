package transcriber

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// whisperOutput matches Whisper / faster-whisper verbose JSON
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start *float64 `json:"start"`
		End   *float64 `json:"end"`
		Text  string   `json:"text"`
	} `json:"segments"`
}

// LoadTranscriptFile reads a Whisper-style JSON transcript. Segments missing
// a start or end are kept with NaN timing so alignment rejects and counts them.
func LoadTranscriptFile(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to read transcript: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Transcript{}, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}

	tr := Transcript{
		Language: out.Language,
		Text:     strings.TrimSpace(out.Text),
		Spans:    make([]align.TranscriptSpan, 0, len(out.Segments)),
	}
	var text []string
	for _, s := range out.Segments {
		tr.Spans = append(tr.Spans, align.TranscriptSpan{Start: seconds(s.Start), End: seconds(s.End), Text: s.Text})
		text = append(text, strings.TrimSpace(s.Text))
	}
	if tr.Text == "" {
		tr.Text = strings.Join(text, " ")
	}
	return tr, nil
}

func seconds(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
