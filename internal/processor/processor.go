package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
	"github.com/amanullahtanweer/speaker-align/internal/audio"
	"github.com/amanullahtanweer/speaker-align/internal/diarizer"
	"github.com/amanullahtanweer/speaker-align/internal/eventlog"
	"github.com/amanullahtanweer/speaker-align/internal/metrics"
	"github.com/amanullahtanweer/speaker-align/internal/output"
	"github.com/amanullahtanweer/speaker-align/internal/transcriber"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TranscriberFactory opens a fresh streaming session per job
type TranscriberFactory func() (transcriber.Transcriber, error)

// Store persists finished records
type Store interface {
	Save(ctx context.Context, rec *output.Record) (string, error)
}

type Config struct {
	Provider    string // transcription provider name, for metrics
	Align       align.Options
	Bounds      diarizer.Bounds
	OutputDir   string
	Formats     []output.Format
	EventLog    bool
	TimeLimit   float64 // seconds, 0 = whole file
	ChunkMillis int
	SampleRate  int    // expected by the transcriber, 0 accepts any
	Language    string // used when the transcriber reports none
}

type Processor struct {
	config         Config
	newTranscriber TranscriberFactory
	diarizer       diarizer.Diarizer
	store          Store
}

// New validates the configuration. store may be nil.
func New(config Config, newTranscriber TranscriberFactory, d diarizer.Diarizer, store Store) (*Processor, error) {
	if err := config.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid diarization bounds: %w", err)
	}
	if d == nil {
		d = diarizer.Noop{}
	}
	if len(config.Formats) == 0 {
		config.Formats = output.DefaultFormats
	}
	if config.ChunkMillis <= 0 {
		config.ChunkMillis = 100
	}
	return &Processor{
		config:         config,
		newTranscriber: newTranscriber,
		diarizer:       d,
		store:          store,
	}, nil
}

// job carries the per-request state shared by the pipeline stages
type job struct {
	id      string
	started time.Time
	fields  log.Fields
	events  *eventlog.JobLogger
	metrics *metrics.JobMetrics
}

func (p *Processor) startJob(audioPath string) *job {
	j := &job{
		id:      uuid.NewString(),
		started: time.Now(),
	}
	j.fields = log.Fields{"job_id": j.id, "audio_file": filepath.Base(audioPath)}
	j.metrics = metrics.NewJobMetrics(p.config.Provider, j.id)

	if p.config.EventLog {
		events, err := eventlog.New(p.config.OutputDir, j.id, j.started)
		if err != nil {
			log.WithFields(j.fields).Warnf("Failed to open event log: %v", err)
		} else {
			j.events = events
			log.WithFields(j.fields).Debugf("Event log: %s", events.Path())
		}
	}
	j.events.LogJobStart(j.id, filepath.Base(audioPath), p.config.Align.Strategy.String(), j.started)
	return j
}

func (j *job) end(status string) {
	j.metrics.Finalize()
	j.events.LogJobEnd(j.id, time.Now(), status)
	if err := j.events.Close(); err != nil {
		log.WithFields(j.fields).Warnf("Failed to close event log: %v", err)
	}
}

// Process transcribes and diarizes a WAV file concurrently, then aligns,
// writes and stores the result.
func (p *Processor) Process(ctx context.Context, audioPath string) (*output.Record, error) {
	if p.newTranscriber == nil {
		return nil, fmt.Errorf("no transcription provider configured")
	}

	pcm, err := audio.LoadWAV(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}
	if p.config.SampleRate > 0 && pcm.SampleRate != p.config.SampleRate {
		return nil, fmt.Errorf("audio is %d Hz but the transcriber expects %d Hz", pcm.SampleRate, p.config.SampleRate)
	}

	j := p.startJob(audioPath)
	status := "failed"
	defer func() { j.end(status) }()

	diarizePath := audioPath
	if p.config.TimeLimit > 0 && pcm.Duration() > p.config.TimeLimit {
		pcm = pcm.Truncate(p.config.TimeLimit)
		log.WithFields(j.fields).Infof("Audio truncated to the first %.1f seconds", p.config.TimeLimit)

		tmp, err := writeTempWAV(pcm)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		diarizePath = tmp
	}
	j.metrics.SetAudioSeconds(pcm.Duration())

	var (
		wg     sync.WaitGroup
		tr     transcriber.Transcript
		trErr  error
		trTime time.Duration
		diar   diarization
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		tr, trErr = p.transcribe(ctx, pcm)
		trTime = time.Since(start)
	}()
	go func() {
		defer wg.Done()
		diar = p.diarize(ctx, j, diarizePath)
	}()
	wg.Wait()

	j.metrics.RecordTranscription(trTime)
	j.events.LogTranscription(j.id, trTime, len(tr.Spans), trErr)
	if trErr != nil {
		return nil, fmt.Errorf("transcription failed: %w", trErr)
	}
	log.WithFields(j.fields).Infof("Transcribed %d spans in %v", len(tr.Spans), trTime.Round(time.Millisecond))

	rec, err := p.complete(ctx, j, audioPath, tr, trTime, diar)
	if err != nil {
		return nil, err
	}
	status = "ok"
	return rec, nil
}

// ProcessTranscript diarizes audioPath and aligns an existing transcript
// against it. Used for live calls, where transcription ran during the call,
// and for transcripts produced elsewhere.
func (p *Processor) ProcessTranscript(ctx context.Context, audioPath string, tr transcriber.Transcript, transcriptionTime time.Duration) (*output.Record, error) {
	j := p.startJob(audioPath)
	status := "failed"
	defer func() { j.end(status) }()

	j.metrics.RecordTranscription(transcriptionTime)
	j.events.LogTranscription(j.id, transcriptionTime, len(tr.Spans), nil)
	if pcm, err := audio.LoadWAV(audioPath); err == nil {
		j.metrics.SetAudioSeconds(pcm.Duration())
	}

	diar := p.diarize(ctx, j, audioPath)
	rec, err := p.complete(ctx, j, audioPath, tr, transcriptionTime, diar)
	if err != nil {
		return nil, err
	}
	status = "ok"
	return rec, nil
}

func (p *Processor) transcribe(ctx context.Context, pcm audio.PCM) (transcriber.Transcript, error) {
	t, err := p.newTranscriber()
	if err != nil {
		return transcriber.Transcript{}, err
	}
	defer t.Close()

	chunk := audio.ChunkSize(pcm.SampleRate, time.Duration(p.config.ChunkMillis)*time.Millisecond)
	return transcriber.TranscribePCM(ctx, t, pcm.Data, chunk)
}

type diarization struct {
	turns     []align.SpeakerTurn
	available bool // the diarizer returned a result, possibly with no turns
	took      time.Duration
}

// diarize never fails the job: any error leaves turns empty so every span
// ends up Unknown.
func (p *Processor) diarize(ctx context.Context, j *job, audioPath string) diarization {
	start := time.Now()
	turns, err := p.diarizer.Diarize(ctx, audioPath, p.config.Bounds)
	took := time.Since(start)

	j.metrics.RecordDiarization(took, err == nil)
	j.events.LogDiarization(j.id, took, len(turns), err)

	entry := log.WithFields(j.fields)
	switch {
	case errors.Is(err, diarizer.ErrUnavailable):
		entry.Warnf("Speaker diarization unavailable: %v", err)
		return diarization{took: took}
	case err != nil:
		entry.Warnf("Speaker diarization failed, continuing without speakers: %v", err)
		return diarization{took: took}
	}
	entry.Infof("Diarization produced %d turns in %v", len(turns), took.Round(time.Millisecond))
	return diarization{turns: turns, available: true, took: took}
}

func (p *Processor) complete(ctx context.Context, j *job, audioPath string, tr transcriber.Transcript, trTime time.Duration, diar diarization) (*output.Record, error) {
	start := time.Now()
	res := align.Reconcile(tr.Spans, diar.turns, p.config.Align)
	took := time.Since(start)

	unknown := align.CountUnknown(res.Spans)
	j.metrics.RecordAlignment(took, len(res.Spans), unknown, res.Stats.UniqueSpeakers)
	j.events.LogAlignment(j.id, took, len(res.Spans), unknown)
	if res.Stats.RejectedSpans > 0 {
		log.WithFields(j.fields).Warnf("Rejected %d spans with invalid timing", res.Stats.RejectedSpans)
	}

	language := tr.Language
	if language == "" {
		language = p.config.Language
	}
	if language == "" {
		language = "unknown"
	}
	rec := &output.Record{
		JobID:                 j.id,
		AudioFile:             filepath.Base(audioPath),
		Text:                  tr.Text,
		Segments:              res.Spans,
		Turns:                 res.Turns,
		Language:              language,
		HasSpeakerDiarization: diar.available,
		TranscriptionTime:     trTime.Seconds(),
		DiarizationTime:       diar.took.Seconds(),
		DiarizationStats:      res.Stats,
		AlignmentStrategy:     p.config.Align.Strategy.String(),
		CreatedAt:             j.started.UTC(),
	}
	if rec.Segments == nil {
		rec.Segments = []align.AlignedSpan{}
	}

	if err := p.persist(ctx, j, audioPath, rec); err != nil {
		return nil, err
	}

	log.WithFields(j.fields).Debugf("Job metrics:\n%s", j.metrics.Summary())
	return rec, nil
}

func (p *Processor) persist(ctx context.Context, j *job, audioPath string, rec *output.Record) error {
	paths, err := output.WriteFiles(p.config.OutputDir, output.BaseName(audioPath), rec, p.config.Formats)
	for _, path := range paths {
		j.events.LogPersist(j.id, "file", path, nil)
		log.WithFields(j.fields).Infof("Saved %s", path)
	}
	if err != nil {
		j.events.LogPersist(j.id, "file", p.config.OutputDir, err)
		return err
	}

	if p.store == nil {
		return nil
	}
	key, err := p.store.Save(ctx, rec)
	j.events.LogPersist(j.id, "redis", key, err)
	if err != nil {
		// store failures do not fail the job
		log.WithFields(j.fields).Errorf("Failed to store result: %v", err)
		return nil
	}
	log.WithFields(j.fields).Infof("Stored result under %s", key)
	return nil
}

func writeTempWAV(pcm audio.PCM) (string, error) {
	f, err := os.CreateTemp("", "speaker-align-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio: %w", err)
	}
	if err := audio.EncodeWAV(f, pcm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
