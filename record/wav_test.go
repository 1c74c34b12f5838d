package record

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopatchy/artnetengine/artnet"
)

func TestWAVWriteReadRoundTrip(t *testing.T) {
	r := NewRing()

	const frames = 50
	base := time.Unix(0, 0)
	clockMs := int64(0)
	r.nowFn = func() time.Time { return base.Add(time.Duration(clockMs) * time.Millisecond) }

	r.Start([]int{0, 1})
	for i := 0; i < frames; i++ {
		clockMs = int64(i) * 2000 / (frames - 1) // spans exactly 2000ms across the run
		r.Append(artnet.Frame{Values: []byte{byte(i), byte(255 - i)}}, artnet.Address{})
	}

	snap := r.Snapshot()
	var buf bytes.Buffer
	if err := WriteWAV(&buf, snap); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	wav, err := ReadWAV(&buf)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if wav.NumChannels != 2 {
		t.Fatalf("expected 2 channels, got %d", wav.NumChannels)
	}
	if len(wav.Timestamps) != frames {
		t.Fatalf("expected %d frames, got %d", frames, len(wav.Timestamps))
	}
	if wav.SampleRate != 25 {
		t.Fatalf("expected sample_rate 25 for 2000ms/50 frames, got %d", wav.SampleRate)
	}
	for i := 0; i < frames; i++ {
		wantT := int64(i) * 1000 / int64(wav.SampleRate)
		if wav.Timestamps[i] != wantT {
			t.Fatalf("timestamp[%d]: got %d want %d", i, wav.Timestamps[i], wantT)
		}
		if wav.Values[0][i] != byte(i) {
			t.Fatalf("channel 0 sample %d: got %d want %d", i, wav.Values[0][i], i)
		}
	}
}

func TestWAVRejectsNon8Bit(t *testing.T) {
	// Hand-build a minimal 16-bit PCM WAV header to confirm rejection.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, 36)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1)  // PCM
	writeUint16(&buf, 1)  // mono
	writeUint32(&buf, 8000)
	writeUint32(&buf, 16000)
	writeUint16(&buf, 2)
	writeUint16(&buf, 16) // bits per sample
	buf.WriteString("data")
	writeUint32(&buf, 0)

	if _, err := ReadWAV(&buf); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWAVRejectsBadMagic(t *testing.T) {
	if _, err := ReadWAV(bytes.NewReader([]byte("not a wav file"))); err != ErrBadWAV {
		t.Fatalf("expected ErrBadWAV, got %v", err)
	}
}

func TestWAVExportEmptyBufferIsStateError(t *testing.T) {
	r := NewRing()
	if err := SaveWAVFile(filepath.Join(t.TempDir(), "empty.wav"), r.Snapshot()); err != ErrEmptyBuffer {
		t.Fatalf("expected ErrEmptyBuffer, got %v", err)
	}
}

func TestWAVToleratesExtraChunksBeforeData(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, 0) // size not checked on read
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1)
	writeUint16(&buf, 1)
	writeUint32(&buf, 8000)
	writeUint32(&buf, 8000)
	writeUint16(&buf, 1)
	writeUint16(&buf, 8)

	buf.WriteString("LIST")
	writeUint32(&buf, 4)
	buf.Write([]byte{'I', 'N', 'F', 'O'})

	buf.WriteString("data")
	writeUint32(&buf, 3)
	buf.Write([]byte{1, 2, 3})

	wav, err := ReadWAV(&buf)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if len(wav.Timestamps) != 3 {
		t.Fatalf("expected 3 samples after skipping LIST chunk, got %d", len(wav.Timestamps))
	}
}
