package transcriber

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeServer records received audio and replies once the client ends the stream
type fakeServer struct {
	mu        sync.Mutex
	audio     int
	texts     []string
	authToken string
}

func (f *fakeServer) received() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audio, append([]string(nil), f.texts...)
}

func newFakeVosk(t *testing.T, replies []string) (*fakeServer, *httptest.Server) {
	fake := &fakeServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fake.mu.Lock()
			if kind == websocket.BinaryMessage {
				fake.audio += len(data)
			} else {
				fake.texts = append(fake.texts, string(data))
			}
			fake.mu.Unlock()

			if kind == websocket.TextMessage && strings.Contains(string(data), "eof") {
				for _, reply := range replies {
					conn.WriteMessage(websocket.TextMessage, []byte(reply))
				}
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return fake, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestVoskTranscribePCM(t *testing.T) {
	fake, srv := newFakeVosk(t, []string{
		`{"partial": "hello"}`,
		`{"result": [{"word": "hello", "start": 0.5, "end": 0.9, "conf": 1.0}, {"word": "there", "start": 1.0, "end": 1.4, "conf": 0.8}], "text": "hello there"}`,
		`{"text": "untimed"}`,
	})

	vt, err := NewVoskTranscriber(wsURL(srv), 16000)
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}
	defer vt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := TranscribePCM(ctx, vt, make([]byte, 6400), 3200)
	if err != nil {
		t.Fatalf("TranscribePCM failed: %v", err)
	}

	if len(tr.Spans) != 1 {
		t.Fatalf("Expected 1 timed span, got %d", len(tr.Spans))
	}
	span := tr.Spans[0]
	if span.Start != 0.5 || span.End != 1.4 || span.Text != "hello there" {
		t.Errorf("Unexpected span: %+v", span)
	}
	if tr.Text != "hello there untimed" {
		t.Errorf("Unexpected full transcript: %q", tr.Text)
	}

	audio, texts := fake.received()
	if audio != 6400 {
		t.Errorf("Expected 6400 audio bytes, got %d", audio)
	}
	if len(texts) == 0 || !strings.Contains(texts[0], `"words":1`) {
		t.Errorf("Expected a config message requesting words, got %v", texts)
	}
}

func TestVoskCloseUnblocksUnreadResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(data), "eof") {
				for i := 0; i < 150; i++ {
					conn.WriteMessage(websocket.TextMessage, []byte(`{"partial": "still talking"}`))
				}
			}
		}
	}))
	defer srv.Close()

	vt, err := NewVoskTranscriber(wsURL(srv), 16000)
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}
	if err := vt.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(vt.results) < cap(vt.results) {
		if time.Now().After(deadline) {
			t.Fatalf("Results buffer never filled: %d", len(vt.results))
		}
		time.Sleep(10 * time.Millisecond)
	}

	vt.Close()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-vt.Results():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("Results not closed after Close")
		}
	}
}

func TestAssemblyAITranscribePCM(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.authToken = r.Header.Get("Authorization")
		fake.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteJSON(AssemblyAIMessage{Type: "Begin", ID: "sess-1"})
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				fake.mu.Lock()
				fake.audio += len(data)
				fake.mu.Unlock()
				continue
			}

			var msg AssemblyAIMessage
			if json.Unmarshal(data, &msg) == nil && msg.Type == "Terminate" {
				conn.WriteJSON(AssemblyAIMessage{Type: "Turn", Transcript: "good morn"})
				conn.WriteJSON(AssemblyAIMessage{
					Type:            "Turn",
					Transcript:      "Good morning.",
					TurnIsFormatted: true,
					EndOfTurn:       true,
					Words: []AssemblyAIWord{
						{Text: "Good", Start: 1200, End: 1500, Confidence: 0.9},
						{Text: "morning.", Start: 1550, End: 2100, Confidence: 0.7},
					},
				})
				conn.WriteJSON(AssemblyAIMessage{Type: "Termination", AudioDurationSec: 2.1})
				return
			}
		}
	}))
	defer srv.Close()

	at, err := NewAssemblyAITranscriber(wsURL(srv), "secret", 16000)
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}
	defer at.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := TranscribePCM(ctx, at, make([]byte, 4000), 1000)
	if err != nil {
		t.Fatalf("TranscribePCM failed: %v", err)
	}

	if len(tr.Spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(tr.Spans))
	}
	span := tr.Spans[0]
	if span.Start != 1.2 || span.End != 2.1 || span.Text != "Good morning." {
		t.Errorf("Unexpected span: %+v", span)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.authToken != "secret" {
		t.Errorf("Expected API key in Authorization header, got %q", fake.authToken)
	}
	if fake.audio != 4000 {
		t.Errorf("Expected 4000 audio bytes, got %d", fake.audio)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{Provider: "assemblyai"}); err == nil {
		t.Error("Expected error without an API key")
	}
	if _, err := New(Config{Provider: "whisper"}); err == nil {
		t.Error("Expected error for an unknown provider")
	}
}

func TestCollectSkipsPartials(t *testing.T) {
	results := make(chan TranscriptionResult, 4)
	results <- TranscriptionResult{Text: "par", IsFinal: false}
	results <- TranscriptionResult{Text: "final", IsFinal: true, Start: 1, End: 2, Timed: true}
	results <- TranscriptionResult{Text: "no timing", IsFinal: true}
	results <- TranscriptionResult{Text: "  ", IsFinal: true, Timed: true}
	close(results)

	spans, untimed, err := Collect(context.Background(), results)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "final" {
		t.Errorf("Unexpected spans: %v", spans)
	}
	if untimed != 1 {
		t.Errorf("Expected 1 untimed result, got %d", untimed)
	}
}

func TestCollectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Collect(ctx, make(chan TranscriptionResult))
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestResample8to16(t *testing.T) {
	input := make([]byte, 4)
	binary.LittleEndian.PutUint16(input[0:2], uint16(100))
	binary.LittleEndian.PutUint16(input[2:4], uint16(200))

	output := resample8to16(input)
	if len(output) != 8 {
		t.Fatalf("Expected 8 bytes, got %d", len(output))
	}

	expected := []int16{100, 150, 200, 200}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(output[i*2 : i*2+2]))
		if got != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestLoadTranscriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	content := `{
		"language": "en",
		"segments": [
			{"start": 0.0, "end": 2.5, "text": " Hello everyone."},
			{"start": 2.5, "end": 4.0, "text": " Welcome."}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write transcript: %v", err)
	}

	tr, err := LoadTranscriptFile(path)
	if err != nil {
		t.Fatalf("LoadTranscriptFile failed: %v", err)
	}
	if tr.Language != "en" {
		t.Errorf("Expected language en, got %s", tr.Language)
	}
	if len(tr.Spans) != 2 || tr.Spans[1].Start != 2.5 {
		t.Errorf("Unexpected spans: %v", tr.Spans)
	}
	if tr.Text != "Hello everyone. Welcome." {
		t.Errorf("Unexpected text: %q", tr.Text)
	}

	if _, err := LoadTranscriptFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestLoadTranscriptFileMissingTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	content := `{"segments": [
		{"end": 30, "text": "no start"},
		{"text": "no times"},
		{"start": 20, "end": 21, "text": "ok"}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write transcript: %v", err)
	}

	tr, err := LoadTranscriptFile(path)
	if err != nil {
		t.Fatalf("LoadTranscriptFile failed: %v", err)
	}
	if len(tr.Spans) != 3 || !math.IsNaN(tr.Spans[0].Start) || !math.IsNaN(tr.Spans[1].End) {
		t.Fatalf("Expected untimed segments to carry NaN timing, got %v", tr.Spans)
	}

	opts := align.DefaultOptions()
	opts.MinDuration = 0
	result := align.Reconcile(tr.Spans, []align.SpeakerTurn{{Start: 19, End: 22, Speaker: "REAL"}}, opts)
	if result.Stats.RejectedSpans != 2 {
		t.Errorf("Expected 2 rejected spans, got %d", result.Stats.RejectedSpans)
	}
	if len(result.Spans) != 1 || result.Spans[0].Speaker != "Speaker 1" {
		t.Errorf("Unexpected spans: %v", result.Spans)
	}
}
