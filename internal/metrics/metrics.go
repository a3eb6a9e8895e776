package metrics

import (
	"fmt"
	"sync"
	"time"
)

// JobMetrics tracks one processing job. Stage timings are recorded from
// concurrent goroutines, so every access goes through mu.
type JobMetrics struct {
	Provider          string
	JobID             string
	StartTime         time.Time
	EndTime           time.Time
	AudioSeconds      float64
	TranscriptionTime time.Duration
	DiarizationTime   time.Duration
	AlignmentTime     time.Duration
	Segments          int
	UnknownSegments   int
	Speakers          int
	Diarized          bool
	mu                sync.Mutex
}

func NewJobMetrics(provider, jobID string) *JobMetrics {
	return &JobMetrics{
		Provider:  provider,
		JobID:     jobID,
		StartTime: time.Now(),
	}
}

func (m *JobMetrics) SetAudioSeconds(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioSeconds = seconds
}

func (m *JobMetrics) RecordTranscription(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranscriptionTime = d
}

func (m *JobMetrics) RecordDiarization(d time.Duration, diarized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiarizationTime = d
	m.Diarized = diarized
}

func (m *JobMetrics) RecordAlignment(d time.Duration, segments, unknown, speakers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AlignmentTime = d
	m.Segments = segments
	m.UnknownSegments = unknown
	m.Speakers = speakers
}

func (m *JobMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// unknownPercent is the share of segments left Unknown, 0 when there are none
func (m *JobMetrics) unknownPercent() float64 {
	if m.Segments == 0 {
		return 0
	}
	return float64(m.UnknownSegments) / float64(m.Segments) * 100
}

func (m *JobMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	var rtf float64
	if m.AudioSeconds > 0 {
		rtf = duration.Seconds() / m.AudioSeconds
	}

	return fmt.Sprintf(
		"Provider: %s\n"+
			"Job: %s\n"+
			"Duration: %v\n"+
			"Audio Duration: %.2f seconds\n"+
			"Transcription Time: %v\n"+
			"Diarization Time: %v\n"+
			"Alignment Time: %v\n"+
			"Speaker Diarization: %t\n"+
			"Speakers: %d\n"+
			"Segments: %d\n"+
			"Unknown Segments: %d (%.1f%%)\n"+
			"Real-time Factor: %.2fx\n",
		m.Provider,
		m.JobID,
		duration,
		m.AudioSeconds,
		m.TranscriptionTime,
		m.DiarizationTime,
		m.AlignmentTime,
		m.Diarized,
		m.Speakers,
		m.Segments,
		m.UnknownSegments,
		m.unknownPercent(),
		rtf,
	)
}
