package align

import (
	"fmt"
	"math"
)

// Unknown marks a span no speaker could be attributed to.
const Unknown = "Unknown"

// SpeakerTurn is a contiguous interval attributed to one speaker by diarization
type SpeakerTurn struct {
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Speaker string  `json:"speaker" yaml:"speaker"`
}

// Duration returns End - Start
func (t SpeakerTurn) Duration() float64 {
	return t.End - t.Start
}

func (t SpeakerTurn) midpoint() float64 {
	return (t.Start + t.End) / 2
}

// TranscriptSpan is a contiguous interval of transcribed text
type TranscriptSpan struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

func (s TranscriptSpan) midpoint() float64 {
	return (s.Start + s.End) / 2
}

// valid reports whether the span carries usable timing
func (s TranscriptSpan) valid() bool {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return false
	}
	return s.Start >= 0 && s.End >= s.Start
}

// AlignedSpan is a transcript span attributed to a canonical speaker or Unknown
type AlignedSpan struct {
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Text    string  `json:"text" yaml:"text"`
	Speaker string  `json:"speaker" yaml:"speaker"`
}

func (s AlignedSpan) midpoint() float64 {
	return (s.Start + s.End) / 2
}

// SpeakerName returns the canonical identifier for the n-th speaker (1-based)
func SpeakerName(n int) string {
	return fmt.Sprintf("Speaker %d", n)
}
