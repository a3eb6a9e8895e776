package transcriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/amanullahtanweer/speaker-align/internal/align"
	log "github.com/sirupsen/logrus"
)

// Transcript is the transcription output for one audio input
type Transcript struct {
	Language string
	Text     string
	Spans    []align.TranscriptSpan
}

// Collect drains results into transcript spans until the channel is closed.
// Partial results are skipped; final results without word timing cannot be
// placed on the timeline and are counted in untimed.
func Collect(ctx context.Context, results <-chan TranscriptionResult) (spans []align.TranscriptSpan, untimed int, err error) {
	for {
		select {
		case <-ctx.Done():
			return spans, untimed, ctx.Err()
		case result, ok := <-results:
			if !ok {
				return spans, untimed, nil
			}
			if !result.IsFinal || strings.TrimSpace(result.Text) == "" {
				continue
			}
			if !result.Timed {
				untimed++
				continue
			}
			spans = append(spans, align.TranscriptSpan{
				Start: result.Start,
				End:   result.End,
				Text:  result.Text,
			})
		}
	}
}

// TranscribePCM streams pcm through t in chunkSize pieces, signals the end of
// audio and returns the collected spans.
func TranscribePCM(ctx context.Context, t Transcriber, pcm []byte, chunkSize int) (Transcript, error) {
	if chunkSize <= 0 {
		return Transcript{}, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}

	type collected struct {
		spans   []align.TranscriptSpan
		untimed int
		err     error
	}
	done := make(chan collected, 1)
	go func() {
		spans, untimed, err := Collect(ctx, t.Results())
		done <- collected{spans, untimed, err}
	}()

	for offset := 0; offset < len(pcm); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			return Transcript{}, err
		}
		end := offset + chunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := t.ProcessAudio(pcm[offset:end]); err != nil {
			return Transcript{}, fmt.Errorf("failed to process audio: %w", err)
		}
	}
	if err := t.Finish(); err != nil {
		return Transcript{}, fmt.Errorf("failed to finish transcription: %w", err)
	}

	res := <-done
	if res.err != nil {
		return Transcript{}, res.err
	}
	if res.untimed > 0 {
		log.Warnf("Dropped %d final results without word timing", res.untimed)
	}
	return Transcript{
		Text:  t.GetFullTranscript(),
		Spans: res.spans,
	}, nil
}
