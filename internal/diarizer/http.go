package diarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/align"
)

// HTTPDiarizer posts audio to a diarization sidecar (e.g. a pyannote service)
// at {baseURL}/diarize and reads back {"available": bool, "segments": [...]}
type HTTPDiarizer struct {
	baseURL string
	c       *http.Client
}

type diarizeResp struct {
	Available *bool     `json:"available,omitempty"`
	Segments  []rawTurn `json:"segments"`
}

func NewHTTPDiarizer(baseURL string) *HTTPDiarizer {
	return &HTTPDiarizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		c:       &http.Client{Timeout: 10 * time.Minute},
	}
}

func (h *HTTPDiarizer) Diarize(ctx context.Context, audioPath string, bounds Bounds) ([]align.SpeakerTurn, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("min_speakers", strconv.Itoa(bounds.MinSpeakers))
	q.Set("max_speakers", strconv.Itoa(bounds.MaxSpeakers))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/diarize?"+q.Encode(), &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarize %s: %s", resp.Status, string(body))
	}

	var out diarizeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("diarize decode: %w", err)
	}
	if out.Available != nil && !*out.Available {
		return nil, ErrUnavailable
	}
	return toTurns(out.Segments), nil
}
