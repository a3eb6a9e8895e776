package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CyCoreSystems/audiosocket"
	"github.com/amanullahtanweer/speaker-align/internal/align"
	"github.com/amanullahtanweer/speaker-align/internal/audio"
	"github.com/amanullahtanweer/speaker-align/internal/processor"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host            string
	Port            int
	Provider        string // transcription provider name, for logs
	SampleRate      int    // of the incoming slin audio
	RecordingsDir   string // call audio, read back by the diarizer
	TranscriptsDir  string
	SaveTranscripts bool
	ProcessTimeout  time.Duration
}

type Server struct {
	config         Config
	newTranscriber processor.TranscriberFactory
	processor      *processor.Processor
	listener       net.Listener
	wg             sync.WaitGroup
	shutdown       chan struct{}
}

// Session is one AudioSocket call
type Session struct {
	id          uuid.UUID
	conn        net.Conn
	transcriber transcriber.Transcriber
	server      *Server
	audioBuffer []byte
	startTime   time.Time
	mu          sync.Mutex
	spans       []align.TranscriptSpan
	untimed     int
	done        chan struct{}
}

// New creates a server. proc may be nil, in which case calls are only
// transcribed and recorded.
func New(config Config, newTranscriber processor.TranscriberFactory, proc *processor.Processor) (*Server, error) {
	if newTranscriber == nil {
		return nil, fmt.Errorf("no transcription provider configured")
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 8000
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 10 * time.Minute
	}
	if config.RecordingsDir == "" {
		config.RecordingsDir = "recordings"
	}
	for _, dir := range []string{config.RecordingsDir, config.TranscriptsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Server{
		config:         config,
		newTranscriber: newTranscriber,
		processor:      proc,
		shutdown:       make(chan struct{}),
	}, nil
}

// Listen binds the configured address
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve accepts calls until Stop
func (s *Server) Serve() error {
	log.Printf("AudioSocket server listening on %s", s.listener.Addr())
	log.Printf("Transcription provider: %s", s.config.Provider)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Stop closes the listener and waits for calls in flight, including their
// post-call processing.
func (s *Server) Stop() {
	close(s.shutdown)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	log.Printf("New connection from %s", conn.RemoteAddr())

	id, err := audiosocket.GetID(conn)
	if err != nil {
		log.Printf("Failed to get ID: %v", err)
		return
	}

	log.Printf("Session %s started with %s", id, s.config.Provider)

	sessionTranscriber, err := s.newTranscriber()
	if err != nil {
		log.Errorf("Failed to create transcriber for session %s: %v", id, err)
		return
	}
	defer sessionTranscriber.Close()

	session := &Session{
		id:          id,
		conn:        conn,
		transcriber: sessionTranscriber,
		server:      s,
		audioBuffer: make([]byte, 0, s.config.SampleRate*2*60),
		startTime:   time.Now(),
		done:        make(chan struct{}),
	}
	go session.handleTranscription()

	for {
		msg, err := audiosocket.NextMessage(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("Session %s: Failed to read message: %v", id, err)
			}
			break
		}

		if err := session.handleMessage(msg); err != nil {
			log.Printf("Session %s: Error handling message: %v", id, err)
			break
		}

		if msg.Kind() == audiosocket.KindHangup {
			log.Printf("Session %s: Received hangup", id)
			break
		}
	}

	session.finalize()

	duration := time.Since(session.startTime)
	log.Printf("Session %s ended (Duration: %v, Provider: %s)", id, duration, s.config.Provider)
}

func (session *Session) handleMessage(msg audiosocket.Message) error {
	switch msg.Kind() {
	case audiosocket.KindSlin:
		audioData := msg.Payload()
		if len(audioData) > 0 {
			if err := session.transcriber.ProcessAudio(audioData); err != nil {
				return fmt.Errorf("failed to process audio: %w", err)
			}
			session.audioBuffer = append(session.audioBuffer, audioData...)
		}

	case audiosocket.KindDTMF:
		if len(msg.Payload()) > 0 {
			digit := msg.Payload()[0]
			log.Printf("Session %s: DTMF digit: %c", session.id, digit)
			session.transcriber.AddMarker(fmt.Sprintf("[DTMF: %c]", digit))
		}

	case audiosocket.KindSilence:
		log.Debugf("Session %s: Silence detected", session.id)
		session.transcriber.AddMarker("[SILENCE]")

	case audiosocket.KindError:
		return fmt.Errorf("received error code: %d", msg.ErrorCode())
	}

	return nil
}

// handleTranscription logs results as they arrive and keeps the timed
// finals for alignment. It returns when the transcriber closes Results.
func (session *Session) handleTranscription() {
	defer close(session.done)

	for result := range session.transcriber.Results() {
		if strings.TrimSpace(result.Text) == "" {
			continue
		}
		if !result.IsFinal {
			log.Debugf("[%s] Session %s Partial: %s", session.server.config.Provider, session.id, result.Text)
			continue
		}

		log.Printf("[%s] Session %s Final: %s", session.server.config.Provider, session.id, result.Text)
		session.mu.Lock()
		if result.Timed {
			session.spans = append(session.spans, align.TranscriptSpan{
				Start: result.Start,
				End:   result.End,
				Text:  result.Text,
			})
		} else {
			session.untimed++
		}
		session.mu.Unlock()
	}
}

func (session *Session) baseName() string {
	return fmt.Sprintf("%s_%s", session.startTime.Format("20060102_150405"), session.id.String()[:8])
}

func (session *Session) finalize() {
	cfg := session.server.config

	if err := session.transcriber.Finish(); err != nil {
		log.Warnf("Session %s: Failed to finish transcription: %v", session.id, err)
	}
	select {
	case <-session.done:
	case <-time.After(30 * time.Second):
		log.Warnf("Session %s: Timed out waiting for final transcription results", session.id)
	}
	transcriptionTime := time.Since(session.startTime)

	fullTranscript := session.transcriber.GetFullTranscript()
	session.mu.Lock()
	spans := append([]align.TranscriptSpan(nil), session.spans...)
	untimed := session.untimed
	session.mu.Unlock()
	if untimed > 0 {
		log.Warnf("Session %s: %d final results without word timing", session.id, untimed)
	}

	if cfg.SaveTranscripts && cfg.TranscriptsDir != "" && fullTranscript != "" {
		session.saveTranscript(fullTranscript)
	}

	if len(session.audioBuffer) == 0 {
		log.Printf("Session %s: No audio received, skipping alignment", session.id)
		return
	}

	audioPath := filepath.Join(cfg.RecordingsDir, session.baseName()+".wav")
	pcm := audio.PCM{Data: session.audioBuffer, SampleRate: cfg.SampleRate}
	if err := audio.SaveWAV(audioPath, pcm); err != nil {
		log.Errorf("Session %s: Failed to save audio: %v", session.id, err)
		return
	}
	log.Printf("Session %s: Audio saved to %s (%.2f seconds)", session.id, audioPath, pcm.Duration())

	if session.server.processor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ProcessTimeout)
	defer cancel()

	tr := transcriber.Transcript{Text: fullTranscript, Spans: spans}
	rec, err := session.server.processor.ProcessTranscript(ctx, audioPath, tr, transcriptionTime)
	if err != nil {
		log.Errorf("Session %s: Alignment failed: %v", session.id, err)
		return
	}
	log.WithFields(log.Fields{
		"session_id": session.id.String(),
		"job_id":     rec.JobID,
		"segments":   len(rec.Segments),
		"unknown":    rec.UnknownCount(),
		"diarized":   rec.HasSpeakerDiarization,
	}).Info("Call processed")
}

func (session *Session) saveTranscript(fullTranscript string) {
	cfg := session.server.config

	metadata := fmt.Sprintf("Session ID: %s\nProvider: %s\nStart Time: %s\nDuration: %v\nSample Rate: %dHz\n\n---TRANSCRIPT---\n\n",
		session.id,
		cfg.Provider,
		session.startTime.Format("2006-01-02 15:04:05"),
		time.Since(session.startTime).Round(time.Second),
		cfg.SampleRate,
	)

	filename := filepath.Join(cfg.TranscriptsDir, session.baseName()+"_live.txt")
	if err := os.WriteFile(filename, []byte(metadata+fullTranscript), 0644); err != nil {
		log.Errorf("Failed to save transcript: %v", err)
		return
	}
	log.Printf("Session %s: Transcript saved to %s", session.id, filename)
}
