package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	wavFormatPCM  = 1
	bitsPerSample = 16
)

// PCM is 16-bit little-endian mono audio
type PCM struct {
	Data       []byte
	SampleRate int
}

// Duration returns the length of the audio in seconds
func (p PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Data)) / float64(p.SampleRate*2)
}

// Truncate keeps the first seconds of audio. A non-positive limit keeps everything.
func (p PCM) Truncate(seconds float64) PCM {
	if seconds <= 0 {
		return p
	}
	n := int(seconds*float64(p.SampleRate)) * 2
	if n >= len(p.Data) {
		return p
	}
	return PCM{Data: p.Data[:n], SampleRate: p.SampleRate}
}

// ChunkSize returns the byte size of d worth of audio at sampleRate
func ChunkSize(sampleRate int, d time.Duration) int {
	return int(int64(sampleRate)*int64(d)/int64(time.Second)) * 2
}

// LoadWAV reads a WAV file and returns its PCM data
func LoadWAV(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, err
	}
	defer f.Close()

	pcm, err := DecodeWAV(f)
	if err != nil {
		return PCM{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV walks the RIFF chunks, reads the format and returns the data
// chunk as mono 16-bit PCM. Stereo input is downmixed.
func DecodeWAV(r io.Reader) (PCM, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return PCM{}, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return PCM{}, fmt.Errorf("not a valid WAV file")
	}

	var format *fmtChunk
	for {
		var id [4]byte
		var size uint32
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return PCM{}, fmt.Errorf("no data chunk: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return PCM{}, fmt.Errorf("failed to read chunk size: %w", err)
		}

		switch string(id[:]) {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return PCM{}, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			format = &fmtChunk{}
			if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, format); err != nil {
				return PCM{}, fmt.Errorf("invalid fmt chunk: %w", err)
			}
		case "data":
			if format == nil {
				return PCM{}, fmt.Errorf("data chunk before fmt chunk")
			}
			if format.AudioFormat != wavFormatPCM || format.BitsPerSample != bitsPerSample {
				return PCM{}, fmt.Errorf("unsupported format %d with %d bits, need 16-bit PCM",
					format.AudioFormat, format.BitsPerSample)
			}
			data, err := io.ReadAll(io.LimitReader(r, int64(size)))
			if err != nil {
				return PCM{}, fmt.Errorf("failed to read data chunk: %w", err)
			}
			if format.NumChannels == 2 {
				data = downmix(data)
			} else if format.NumChannels != 1 {
				return PCM{}, fmt.Errorf("unsupported channel count: %d", format.NumChannels)
			}
			return PCM{Data: data, SampleRate: int(format.SampleRate)}, nil
		default:
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return PCM{}, fmt.Errorf("failed to skip %q chunk: %w", string(id[:]), err)
			}
		}
	}
}

func downmix(stereo []byte) []byte {
	frames := len(stereo) / 4
	mono := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int32(int16(binary.LittleEndian.Uint16(stereo[i*4:])))
		r := int32(int16(binary.LittleEndian.Uint16(stereo[i*4+2:])))
		binary.LittleEndian.PutUint16(mono[i*2:], uint16(int16((l+r)/2)))
	}
	return mono
}

// EncodeWAV writes pcm as a canonical 44-byte-header mono WAV
func EncodeWAV(w io.Writer, pcm PCM) error {
	dataSize := uint32(len(pcm.Data))
	header := struct {
		RIFF     [4]byte
		Size     uint32
		WAVE     [4]byte
		FmtID    [4]byte
		FmtSize  uint32
		Format   fmtChunk
		DataID   [4]byte
		DataSize uint32
	}{
		RIFF:    [4]byte{'R', 'I', 'F', 'F'},
		Size:    36 + dataSize,
		WAVE:    [4]byte{'W', 'A', 'V', 'E'},
		FmtID:   [4]byte{'f', 'm', 't', ' '},
		FmtSize: 16,
		Format: fmtChunk{
			AudioFormat:   wavFormatPCM,
			NumChannels:   1,
			SampleRate:    uint32(pcm.SampleRate),
			ByteRate:      uint32(pcm.SampleRate * 2),
			BlockAlign:    2,
			BitsPerSample: bitsPerSample,
		},
		DataID:   [4]byte{'d', 'a', 't', 'a'},
		DataSize: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	_, err := w.Write(pcm.Data)
	return err
}

// SaveWAV writes pcm to path, creating parent directories
func SaveWAV(path string, pcm PCM) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, pcm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
