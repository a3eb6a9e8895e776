package diarizer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// RTTMFile reads turns from an RTTM file, the format pyannote and most
// diarization toolkits write. audioPath and bounds are ignored.
type RTTMFile struct {
	Path string
}

func (r RTTMFile) Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error) {
	if r.Path == "" {
		return nil, ErrUnavailable
	}
	f, err := os.Open(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, r.Path)
		}
		return nil, err
	}
	defer f.Close()
	return ParseRTTM(f)
}

// ParseRTTM parses SPEAKER lines:
//
//	SPEAKER <file> <chan> <onset> <duration> <NA> <NA> <label> <NA> <NA>
func ParseRTTM(r io.Reader) ([]align.SpeakerTurn, error) {
	var turns []align.SpeakerTurn
	scan := bufio.NewScanner(r)
	line := 0
	for scan.Scan() {
		line++
		fields := strings.Fields(scan.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") || fields[0] != "SPEAKER" {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("rttm line %d: expected at least 8 fields, got %d", line, len(fields))
		}
		onset, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: onset: %w", line, err)
		}
		duration, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: duration: %w", line, err)
		}
		turns = append(turns, align.SpeakerTurn{Start: onset, End: onset + duration, Speaker: fields[7]})
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

// WriteRTTM writes turns in RTTM format for the given recording id
func WriteRTTM(w io.Writer, recordingID string, turns []align.SpeakerTurn) error {
	for _, t := range turns {
		if _, err := fmt.Fprintf(w, "SPEAKER %s 1 %.3f %.3f <NA> <NA> %s <NA> <NA>\n",
			recordingID, t.Start, t.Duration(), strings.ReplaceAll(t.Speaker, " ", "_")); err != nil {
			return err
		}
	}
	return nil
}
