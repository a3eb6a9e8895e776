package transcriber

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	AssemblyAIWebSocketURL = "wss://streaming.assemblyai.com/v3/ws"
	assemblyTargetRate     = 16000

	// AssemblyAI accepts chunks between 50ms and 1000ms; at 16kHz 16-bit
	// that is 1600 bytes up to 30400 bytes (950ms, under the limit)
	minChunkBytes = 1600
	maxChunkBytes = 30400
)

type AssemblyAITranscriber struct {
	conn        *websocket.Conn
	results     chan TranscriptionResult
	done        chan struct{}
	closeOnce   sync.Once
	fullText    strings.Builder
	mu          sync.Mutex
	writeMu     sync.Mutex
	sampleRate  int
	sessionID   string
	audioBuffer []byte
	bufferMu    sync.Mutex
	stopSending chan struct{}
	finishOnce  sync.Once
	wg          sync.WaitGroup
}

// AssemblyAIWord carries word timing in milliseconds from stream start
type AssemblyAIWord struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

// AssemblyAIMessage covers the v3 streaming message types we use
type AssemblyAIMessage struct {
	Type               string           `json:"type"`
	ID                 string           `json:"id,omitempty"`
	Transcript         string           `json:"transcript,omitempty"`
	TurnIsFormatted    bool             `json:"turn_is_formatted,omitempty"`
	EndOfTurn          bool             `json:"end_of_turn,omitempty"`
	Words              []AssemblyAIWord `json:"words,omitempty"`
	AudioDurationSec   float64          `json:"audio_duration_seconds,omitempty"`
	SessionDurationSec float64          `json:"session_duration_seconds,omitempty"`
}

func NewAssemblyAITranscriber(baseURL, apiKey string, sampleRate int) (*AssemblyAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}

	url := fmt.Sprintf("%s?sample_rate=%d&format_turns=true", baseURL, assemblyTargetRate)

	header := http.Header{}
	header.Add("Authorization", apiKey)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}

	at := &AssemblyAITranscriber{
		conn:        conn,
		results:     make(chan TranscriptionResult, 100),
		done:        make(chan struct{}),
		sampleRate:  sampleRate,
		audioBuffer: make([]byte, 0, 8000),
		stopSending: make(chan struct{}),
	}

	go at.handleResults()

	at.wg.Add(1)
	go at.audioSender()

	log.Println("AssemblyAI transcriber initialized")
	return at, nil
}

func (at *AssemblyAITranscriber) audioSender() {
	defer at.wg.Done()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			at.sendBufferedAudio(minChunkBytes)
		case <-at.stopSending:
			return
		}
	}
}

// sendBufferedAudio drains the buffer in chunks of at least minimum bytes
func (at *AssemblyAITranscriber) sendBufferedAudio(minimum int) {
	at.bufferMu.Lock()
	defer at.bufferMu.Unlock()

	for len(at.audioBuffer) > 0 && len(at.audioBuffer) >= minimum {
		size := len(at.audioBuffer)
		if size > maxChunkBytes {
			size = maxChunkBytes
		}

		if err := at.write(websocket.BinaryMessage, at.audioBuffer[:size]); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Failed to send audio to AssemblyAI: %v", err)
			}
			at.audioBuffer = at.audioBuffer[:0]
			return
		}
		at.audioBuffer = at.audioBuffer[size:]
	}
}

func (at *AssemblyAITranscriber) write(messageType int, data []byte) error {
	at.writeMu.Lock()
	defer at.writeMu.Unlock()
	return at.conn.WriteMessage(messageType, data)
}

func (at *AssemblyAITranscriber) ProcessAudio(audioData []byte) error {
	at.bufferMu.Lock()
	defer at.bufferMu.Unlock()

	if at.sampleRate == 8000 {
		audioData = resample8to16(audioData)
	}
	at.audioBuffer = append(at.audioBuffer, audioData...)
	return nil
}

// resample8to16 upsamples 8kHz PCM to 16kHz by linear interpolation
func resample8to16(input []byte) []byte {
	samples := make([]int16, len(input)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(input[i*2 : i*2+2]))
	}
	if len(samples) == 0 {
		return nil
	}

	upsampled := make([]int16, len(samples)*2)
	for i := 0; i < len(samples)-1; i++ {
		upsampled[i*2] = samples[i]
		upsampled[i*2+1] = int16((int32(samples[i]) + int32(samples[i+1])) / 2)
	}
	last := samples[len(samples)-1]
	upsampled[len(upsampled)-2] = last
	upsampled[len(upsampled)-1] = last

	output := make([]byte, len(upsampled)*2)
	for i, sample := range upsampled {
		binary.LittleEndian.PutUint16(output[i*2:i*2+2], uint16(sample))
	}
	return output
}

func (at *AssemblyAITranscriber) handleResults() {
	defer close(at.results)

	for {
		_, message, err := at.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("AssemblyAI WebSocket error: %v", err)
			}
			return
		}

		var msg AssemblyAIMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to parse AssemblyAI message: %v", err)
			continue
		}

		switch msg.Type {
		case "Begin":
			at.sessionID = msg.ID
			log.Printf("AssemblyAI session started: %s", msg.ID)

		case "Turn":
			if msg.Transcript == "" {
				continue
			}
			if !msg.TurnIsFormatted {
				if !at.emit(TranscriptionResult{Text: msg.Transcript}) {
					return
				}
				continue
			}

			at.mu.Lock()
			if at.fullText.Len() > 0 {
				at.fullText.WriteString(" ")
			}
			at.fullText.WriteString(msg.Transcript)
			at.mu.Unlock()

			if !at.emit(turnResult(msg)) {
				return
			}

		case "Termination":
			log.Printf("AssemblyAI session terminated. Audio duration: %.2fs, Session duration: %.2fs",
				msg.AudioDurationSec, msg.SessionDurationSec)
			return
		}
	}
}

// emit delivers a result unless the transcriber has been closed
func (at *AssemblyAITranscriber) emit(r TranscriptionResult) bool {
	select {
	case at.results <- r:
		return true
	case <-at.done:
		return false
	}
}

// turnResult converts a formatted turn into a final, timed result
func turnResult(msg AssemblyAIMessage) TranscriptionResult {
	result := TranscriptionResult{
		Text:    msg.Transcript,
		IsFinal: true,
	}
	if n := len(msg.Words); n > 0 {
		result.Start = float64(msg.Words[0].Start) / 1000
		result.End = float64(msg.Words[n-1].End) / 1000
		result.Timed = true

		var conf float64
		for _, w := range msg.Words {
			conf += w.Confidence
		}
		result.Confidence = conf / float64(n)
	}
	return result
}

func (at *AssemblyAITranscriber) Results() <-chan TranscriptionResult {
	return at.results
}

func (at *AssemblyAITranscriber) GetFullTranscript() string {
	at.mu.Lock()
	defer at.mu.Unlock()
	return at.fullText.String()
}

func (at *AssemblyAITranscriber) AddMarker(marker string) {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.fullText.Len() > 0 {
		at.fullText.WriteString(" ")
	}
	at.fullText.WriteString(marker)
}

// Finish flushes buffered audio and asks AssemblyAI to terminate the session
func (at *AssemblyAITranscriber) Finish() error {
	var err error
	at.finishOnce.Do(func() {
		close(at.stopSending)
		at.wg.Wait()

		// send whatever is left, even below the minimum chunk size
		at.sendBufferedAudio(0)

		msgBytes, _ := json.Marshal(AssemblyAIMessage{Type: "Terminate"})
		err = at.write(websocket.TextMessage, msgBytes)
	})
	return err
}

func (at *AssemblyAITranscriber) Close() error {
	at.closeOnce.Do(func() { close(at.done) })
	if err := at.Finish(); err != nil {
		log.Printf("AssemblyAI terminate failed: %v", err)
	}
	return at.conn.Close()
}
