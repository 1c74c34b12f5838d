package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gopatchy/artnetengine/artnet"
)

func TestStreamRecorderWritesHeaderAndFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jsonl")
	rec, err := NewStreamRecorder(path)
	if err != nil {
		t.Fatalf("NewStreamRecorder: %v", err)
	}

	rec.Enqueue(artnet.Frame{Net: 1, Subnet: 2, Universe: 3, Length: 2, Values: []byte{10, 20}})
	rec.Enqueue(artnet.Frame{Net: 1, Subnet: 2, Universe: 3, Length: 2, Values: []byte{11, 21}})
	rec.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 records, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], `"format":"artnet-jsonl"`) {
		t.Fatalf("expected header line, got %s", lines[0])
	}
	if !strings.Contains(lines[1], `"values":[10,20]`) {
		t.Fatalf("unexpected first record: %s", lines[1])
	}
}

func TestStreamRecorderDropsAfterStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream2.jsonl")
	rec, err := NewStreamRecorder(path)
	if err != nil {
		t.Fatalf("NewStreamRecorder: %v", err)
	}
	rec.Stop()

	done := make(chan struct{})
	go func() {
		rec.Enqueue(artnet.Frame{Values: []byte{1}})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked after Stop")
	}
}
