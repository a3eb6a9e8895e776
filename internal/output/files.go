package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amanullahtanweer/speaker-align/internal/diarizer"
)

// Format names an output file kind
type Format string

const (
	FormatJSON       Format = "json"
	FormatCSV        Format = "csv"
	FormatTranscript Format = "txt"
	FormatYAML       Format = "yaml"
	FormatMarkdown   Format = "md"
	FormatRTTM       Format = "rttm"
)

// DefaultFormats are always written by the processor
var DefaultFormats = []Format{FormatJSON, FormatCSV, FormatTranscript}

type writerFunc func(io.Writer, *Record) error

var formats = map[Format]struct {
	suffix string
	write  writerFunc
}{
	FormatJSON:       {"_result.json", WriteJSON},
	FormatCSV:        {"_segments.csv", WriteCSV},
	FormatTranscript: {"_transcript.txt", WriteTranscript},
	FormatYAML:       {"_result.yaml", WriteYAML},
	FormatMarkdown:   {"_report.md", WriteMarkdown},
	FormatRTTM:       {"_speakers.rttm", WriteRTTM},
}

// ParseFormats validates format names, e.g. from config
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := formats[f]; !ok {
			return nil, fmt.Errorf("unknown output format: %s", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// BaseName strips directory and extension from an audio path
func BaseName(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteFiles writes rec in each format to dir/<base><suffix> and returns the
// paths written. The CSV file is skipped when there are no segments, the RTTM
// file when there are no speaker turns.
func WriteFiles(dir, base string, rec *Record, fs []Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, f := range fs {
		spec, ok := formats[f]
		if !ok {
			return paths, fmt.Errorf("unknown output format: %s", f)
		}
		if f == FormatCSV && len(rec.Segments) == 0 {
			continue
		}
		if f == FormatRTTM && len(rec.Turns) == 0 {
			continue
		}

		path := filepath.Join(dir, base+spec.suffix)
		if err := writeFile(path, rec, spec.write); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteRTTM writes the canonical speaker turns, keyed by the audio file name
func WriteRTTM(w io.Writer, rec *Record) error {
	return diarizer.WriteRTTM(w, BaseName(rec.AudioFile), rec.Turns)
}

func writeFile(path string, rec *Record, write writerFunc) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
