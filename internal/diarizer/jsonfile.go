package diarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// JSONFile reads turns saved by a previous run, either a bare array or the
// {"segments": [...]} shape returned by the HTTP sidecar.
type JSONFile struct {
	Path string
}

func (j JSONFile) Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error) {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, j.Path)
		}
		return nil, err
	}

	var raw []rawTurn
	if err := json.Unmarshal(data, &raw); err == nil {
		return toTurns(raw), nil
	}
	var resp diarizeResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", j.Path, err)
	}
	if resp.Available != nil && !*resp.Available {
		return nil, ErrUnavailable
	}
	return toTurns(resp.Segments), nil
}
