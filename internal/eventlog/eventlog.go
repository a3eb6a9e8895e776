package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JobLogger writes structured JSONL job logs to a file. A nil *JobLogger is
// valid and discards everything.
type JobLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

type logRecord struct {
	Timestamp string            `json:"ts"`
	Event     string            `json:"event"`
	JobID     string            `json:"job_id"`
	Duration  float64           `json:"duration_seconds,omitempty"`
	Count     int               `json:"count,omitempty"`
	Error     string            `json:"error,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// New creates a logger under outputDir. Filename is timestamp + job id.
func New(outputDir, jobID string, started time.Time) (*JobLogger, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	shortID := jobID
	if len(jobID) > 8 {
		shortID = jobID[:8]
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_job_%s.jsonl", started.Format("20060102_150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &JobLogger{file: f, path: filename}, nil
}

// Path returns the log file location
func (jl *JobLogger) Path() string {
	if jl == nil {
		return ""
	}
	return jl.path
}

func (jl *JobLogger) Close() error {
	if jl == nil {
		return nil
	}
	jl.mu.Lock()
	defer jl.mu.Unlock()
	if jl.file != nil {
		err := jl.file.Close()
		jl.file = nil
		return err
	}
	return nil
}

func (jl *JobLogger) write(rec logRecord) {
	if jl == nil {
		return
	}
	jl.mu.Lock()
	defer jl.mu.Unlock()
	if jl.file == nil {
		return
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	_ = json.NewEncoder(jl.file).Encode(rec)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (jl *JobLogger) LogJobStart(jobID, audioFile, strategy string, started time.Time) {
	jl.write(logRecord{Timestamp: started.Format(time.RFC3339Nano), Event: "job_start", JobID: jobID,
		Details: map[string]string{"audio_file": audioFile, "strategy": strategy}})
}

func (jl *JobLogger) LogTranscription(jobID string, d time.Duration, spans int, err error) {
	jl.write(logRecord{Event: "transcription", JobID: jobID, Duration: d.Seconds(), Count: spans, Error: errString(err)})
}

func (jl *JobLogger) LogDiarization(jobID string, d time.Duration, turns int, err error) {
	jl.write(logRecord{Event: "diarization", JobID: jobID, Duration: d.Seconds(), Count: turns, Error: errString(err)})
}

func (jl *JobLogger) LogAlignment(jobID string, d time.Duration, segments, unknown int) {
	jl.write(logRecord{Event: "alignment", JobID: jobID, Duration: d.Seconds(), Count: segments,
		Details: map[string]string{"unknown": fmt.Sprint(unknown)}})
}

func (jl *JobLogger) LogPersist(jobID, target, location string, err error) {
	jl.write(logRecord{Event: "persist", JobID: jobID, Error: errString(err),
		Details: map[string]string{"target": target, "location": location}})
}

func (jl *JobLogger) LogJobEnd(jobID string, ended time.Time, status string) {
	jl.write(logRecord{Timestamp: ended.Format(time.RFC3339Nano), Event: "job_end", JobID: jobID,
		Details: map[string]string{"status": status}})
}
