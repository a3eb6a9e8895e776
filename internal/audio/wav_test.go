package audio

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"
)

func samples(values ...int16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := PCM{Data: samples(0, 100, -100, 32767, -32768), SampleRate: 16000}

	path := filepath.Join(t.TempDir(), "calls", "test.wav")
	if err := SaveWAV(path, pcm); err != nil {
		t.Fatalf("SaveWAV failed: %v", err)
	}

	loaded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}
	if loaded.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", loaded.SampleRate)
	}
	if !bytes.Equal(loaded.Data, pcm.Data) {
		t.Errorf("PCM data mismatch: got %v, want %v", loaded.Data, pcm.Data)
	}
}

func TestDecodeWAVSkipsExtraChunks(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, PCM{Data: samples(1, 2, 3), SampleRate: 8000}); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	raw := buf.Bytes()

	// insert an odd-sized LIST chunk between fmt and data
	var withList bytes.Buffer
	withList.Write(raw[:36])
	withList.WriteString("LIST")
	binary.Write(&withList, binary.LittleEndian, uint32(3))
	withList.Write([]byte{'a', 'b', 'c', 0})
	withList.Write(raw[36:])

	pcm, err := DecodeWAV(&withList)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if pcm.SampleRate != 8000 || !bytes.Equal(pcm.Data, samples(1, 2, 3)) {
		t.Errorf("Unexpected PCM: %+v", pcm)
	}
}

func TestDecodeWAVStereo(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, fmtChunk{
		AudioFormat: 1, NumChannels: 2, SampleRate: 44100,
		ByteRate: 44100 * 4, BlockAlign: 4, BitsPerSample: 16,
	})
	data := samples(100, 300, -50, -150)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	pcm, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if !bytes.Equal(pcm.Data, samples(200, -100)) {
		t.Errorf("Expected downmixed samples, got %v", pcm.Data)
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	testCases := []struct {
		description string
		input       []byte
	}{
		{"Too short", []byte("RIFF")},
		{"Not a WAV", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"No data chunk", []byte("RIFF\x00\x00\x00\x00WAVE")},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if _, err := DecodeWAV(bytes.NewReader(tc.input)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	pcm := PCM{Data: make([]byte, 16000*2*3), SampleRate: 16000}

	if got := pcm.Truncate(1.5).Duration(); got != 1.5 {
		t.Errorf("Expected 1.5s, got %v", got)
	}
	if got := pcm.Truncate(10).Duration(); got != 3 {
		t.Errorf("Expected the full 3s, got %v", got)
	}
	if got := pcm.Truncate(0).Duration(); got != 3 {
		t.Errorf("Expected no truncation for 0, got %v", got)
	}
}

func TestChunkSize(t *testing.T) {
	testCases := []struct {
		rate int
		d    time.Duration
		want int
	}{
		{8000, 20 * time.Millisecond, 320},
		{16000, 20 * time.Millisecond, 640},
		{16000, 100 * time.Millisecond, 3200},
	}
	for _, tc := range testCases {
		if got := ChunkSize(tc.rate, tc.d); got != tc.want {
			t.Errorf("ChunkSize(%d, %v) = %d, want %d", tc.rate, tc.d, got, tc.want)
		}
	}
}
