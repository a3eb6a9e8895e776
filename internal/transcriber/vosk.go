package transcriber

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type VoskTranscriber struct {
	conn       *websocket.Conn
	results    chan TranscriptionResult
	done       chan struct{}
	closeOnce  sync.Once
	fullText   strings.Builder
	mu         sync.Mutex
	writeMu    sync.Mutex
	sampleRate int
}

type voskConfigMessage struct {
	Config struct {
		SampleRate int `json:"sample_rate"`
		Words      int `json:"words"`
	} `json:"config"`
}

type VoskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
	Partial string `json:"partial"`
}

func NewVoskTranscriber(serverURL string, sampleRate int) (*VoskTranscriber, error) {
	// Connect to Vosk server WebSocket
	url := fmt.Sprintf("%s/ws?sample_rate=%d", serverURL, sampleRate)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Vosk server: %w", err)
	}

	// Word timings are needed to place each final result on the timeline
	var cfg voskConfigMessage
	cfg.Config.SampleRate = sampleRate
	cfg.Config.Words = 1
	if err := conn.WriteJSON(cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure Vosk: %w", err)
	}

	vt := &VoskTranscriber{
		conn:       conn,
		results:    make(chan TranscriptionResult, 100),
		done:       make(chan struct{}),
		sampleRate: sampleRate,
	}

	go vt.handleResults()

	return vt, nil
}

func (vt *VoskTranscriber) ProcessAudio(audioData []byte) error {
	vt.writeMu.Lock()
	defer vt.writeMu.Unlock()

	if err := vt.conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
		return fmt.Errorf("failed to send audio to Vosk: %w", err)
	}
	return nil
}

// Finish sends EOF; Vosk answers with the last final result and closes the socket
func (vt *VoskTranscriber) Finish() error {
	vt.writeMu.Lock()
	defer vt.writeMu.Unlock()

	if err := vt.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return fmt.Errorf("failed to send EOF to Vosk: %w", err)
	}
	return nil
}

func (vt *VoskTranscriber) handleResults() {
	defer close(vt.results)

	for {
		_, message, err := vt.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Vosk WebSocket error: %v", err)
			}
			return
		}

		var result VoskResult
		if err := json.Unmarshal(message, &result); err != nil {
			log.Printf("Failed to parse Vosk result: %v", err)
			continue
		}

		if result.Partial != "" {
			if !vt.emit(TranscriptionResult{Text: result.Partial, IsFinal: false}) {
				return
			}
		}

		if result.Text != "" {
			vt.mu.Lock()
			if vt.fullText.Len() > 0 {
				vt.fullText.WriteString(" ")
			}
			vt.fullText.WriteString(result.Text)
			vt.mu.Unlock()

			final := TranscriptionResult{
				Text:    result.Text,
				IsFinal: true,
			}
			if n := len(result.Result); n > 0 {
				final.Start = result.Result[0].Start
				final.End = result.Result[n-1].End
				final.Timed = true

				var conf float64
				for _, w := range result.Result {
					conf += w.Conf
				}
				final.Confidence = conf / float64(n)
			}
			if !vt.emit(final) {
				return
			}
		}
	}
}

// emit delivers a result unless the transcriber has been closed
func (vt *VoskTranscriber) emit(r TranscriptionResult) bool {
	select {
	case vt.results <- r:
		return true
	case <-vt.done:
		return false
	}
}

func (vt *VoskTranscriber) Results() <-chan TranscriptionResult {
	return vt.results
}

func (vt *VoskTranscriber) GetFullTranscript() string {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.fullText.String()
}

func (vt *VoskTranscriber) AddMarker(marker string) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if vt.fullText.Len() > 0 {
		vt.fullText.WriteString(" ")
	}
	vt.fullText.WriteString(marker)
}

func (vt *VoskTranscriber) Close() error {
	vt.closeOnce.Do(func() { close(vt.done) })
	return vt.conn.Close()
}
