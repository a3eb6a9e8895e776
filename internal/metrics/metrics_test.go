package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestUnknownPercent(t *testing.T) {
	testCases := []struct {
		segments, unknown int
		want              float64
	}{
		{0, 0, 0},
		{4, 1, 25},
		{10, 10, 100},
	}
	for _, tc := range testCases {
		m := NewJobMetrics("vosk", "job")
		m.RecordAlignment(time.Millisecond, tc.segments, tc.unknown, 2)
		if got := m.unknownPercent(); got != tc.want {
			t.Errorf("%d/%d: expected %v, got %v", tc.unknown, tc.segments, tc.want, got)
		}
	}
}

func TestSummary(t *testing.T) {
	m := NewJobMetrics("assemblyai", "abc123")
	m.SetAudioSeconds(60)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.RecordTranscription(2 * time.Second)
	}()
	go func() {
		defer wg.Done()
		m.RecordDiarization(3*time.Second, true)
	}()
	wg.Wait()

	m.RecordAlignment(time.Millisecond, 8, 2, 3)
	m.Finalize()

	summary := m.Summary()
	for _, want := range []string{
		"Provider: assemblyai",
		"Job: abc123",
		"Audio Duration: 60.00 seconds",
		"Diarization Time: 3s",
		"Speaker Diarization: true",
		"Unknown Segments: 2 (25.0%)",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}
}
