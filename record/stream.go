package record

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopatchy/artnetengine/artnet"
)

// StreamMetrics observes the recorder's queue occupancy. Defined here, not
// in internal/metrics, so record has no dependency on the metrics package;
// internal/metrics satisfies it by duck typing.
type StreamMetrics interface {
	SetQueueDepth(n int)
}

type noopStreamMetrics struct{}

func (noopStreamMetrics) SetQueueDepth(int) {}

// StreamRecorder is an unbounded-queue, disk-backed recorder that writes
// one JSONL line per decoded frame regardless of the event filter.
// Failures to write are fatal to the task. On Stop, frames already queued
// are written before the task exits; frames enqueued afterwards are dropped.
type StreamRecorder struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []artnet.Frame
	closed  bool

	origin  time.Time
	done    chan struct{}
	Metrics StreamMetrics
}

// NewStreamRecorder opens path for writing and returns a recorder whose run
// goroutine drains its internal queue to disk. The header line is written
// immediately.
func NewStreamRecorder(path string) (*StreamRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	header, err := encodeHeader(nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("record: write header: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		f.Close()
		return nil, fmt.Errorf("record: write header: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("record: flush header: %w", err)
	}

	r := &StreamRecorder{
		origin:  time.Now(),
		done:    make(chan struct{}),
		Metrics: noopStreamMetrics{},
	}
	r.cond = sync.NewCond(&r.mu)

	go r.run(f, w)
	return r, nil
}

// Enqueue pushes a decoded frame onto the unbounded FIFO. Never blocks the
// receiver loop on disk I/O: the queue is an in-memory slice, so sustained
// recording without disk drain grows memory without bound.
func (r *StreamRecorder) Enqueue(frame artnet.Frame) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.pending = append(r.pending, frame)
	depth := len(r.pending)
	r.mu.Unlock()
	r.Metrics.SetQueueDepth(depth)
	r.cond.Signal()
}

// run drains the queue to disk, one line per frame, until Stop is called and
// every already-queued frame has been written or a write fails.
func (r *StreamRecorder) run(f *os.File, w *bufio.Writer) {
	defer f.Close()
	defer close(r.done)

	for {
		r.mu.Lock()
		for len(r.pending) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.pending) == 0 && r.closed {
			r.mu.Unlock()
			return
		}
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()
		r.Metrics.SetQueueDepth(0)

		for _, frame := range batch {
			if !r.writeFrame(w, frame) {
				return
			}
		}
	}
}

func (r *StreamRecorder) writeFrame(w *bufio.Writer, frame artnet.Frame) bool {
	addr := frame.Address()
	values := make([]int, len(frame.Values))
	for i, v := range frame.Values {
		values[i] = int(v)
	}
	rec := JSONLRecord{
		TMs:      time.Since(r.origin).Milliseconds(),
		Net:      addr.Net,
		Subnet:   addr.Subnet,
		Universe: addr.Universe,
		Length:   frame.Length,
		Values:   values,
	}
	line, err := encodeRecord(rec)
	if err != nil {
		return false
	}
	if _, err := w.Write(line); err != nil {
		return false
	}
	if err := w.WriteByte('\n'); err != nil {
		return false
	}
	return w.Flush() == nil
}

// Stop signals the run goroutine to drain whatever is already queued and
// exit. Frames enqueued concurrently with or after Stop are dropped.
func (r *StreamRecorder) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cond.Signal()
	<-r.done
}
