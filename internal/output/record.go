package output

import (
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// Record is the persisted result of one processing job
type Record struct {
	JobID                 string              `json:"job_id" yaml:"job_id"`
	AudioFile             string              `json:"audio_file" yaml:"audio_file"`
	Text                  string              `json:"transcription" yaml:"transcription"`
	Segments              []align.AlignedSpan `json:"segments" yaml:"segments"`
	Turns                 []align.SpeakerTurn `json:"speaker_turns,omitempty" yaml:"speaker_turns,omitempty"`
	Language              string              `json:"language" yaml:"language"`
	HasSpeakerDiarization bool                `json:"has_speaker_diarization" yaml:"has_speaker_diarization"`
	TranscriptionTime     float64             `json:"transcription_time" yaml:"transcription_time"`
	DiarizationTime       float64             `json:"diarization_time" yaml:"diarization_time"`
	DiarizationStats      align.Stats         `json:"diarization_stats" yaml:"diarization_stats"`
	AlignmentStrategy     string              `json:"alignment_strategy" yaml:"alignment_strategy"`
	CreatedAt             time.Time           `json:"created_at" yaml:"created_at"`
}

// Speakers returns the distinct speakers in segment order
func (r *Record) Speakers() []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, s := range r.Segments {
		if !seen[s.Speaker] {
			seen[s.Speaker] = true
			speakers = append(speakers, s.Speaker)
		}
	}
	return speakers
}

// UnknownCount returns how many segments have no speaker
func (r *Record) UnknownCount() int {
	return align.CountUnknown(r.Segments)
}
