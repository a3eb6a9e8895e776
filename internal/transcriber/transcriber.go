package transcriber

import "fmt"

// Transcriber is the common interface for all streaming transcription providers
type Transcriber interface {
	// ProcessAudio queues 16-bit little-endian mono PCM for recognition.
	ProcessAudio(audioData []byte) error
	// Finish signals end of audio. Results is closed once the provider has
	// delivered its last result.
	Finish() error
	Results() <-chan TranscriptionResult
	GetFullTranscript() string
	AddMarker(marker string)
	Close() error
}

// TranscriptionResult represents a transcription result
type TranscriptionResult struct {
	Text       string
	IsFinal    bool
	Start      float64 // seconds from stream start
	End        float64
	Timed      bool // Start/End are known
	Confidence float64
}

// Config selects and configures a provider
type Config struct {
	Provider       string // "vosk" or "assemblyai"
	VoskServerURL  string
	AssemblyAPIKey string
	AssemblyURL    string // overrides AssemblyAIWebSocketURL, used by tests
	SampleRate     int
}

// New creates a transcriber for the configured provider
func New(cfg Config) (Transcriber, error) {
	switch cfg.Provider {
	case "vosk":
		return NewVoskTranscriber(cfg.VoskServerURL, cfg.SampleRate)
	case "assemblyai":
		url := cfg.AssemblyURL
		if url == "" {
			url = AssemblyAIWebSocketURL
		}
		return NewAssemblyAITranscriber(url, cfg.AssemblyAPIKey, cfg.SampleRate)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
