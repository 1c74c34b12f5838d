package artnet

import (
	"testing"
	"time"
)

type collectingSink struct {
	appended []Frame
}

func (s *collectingSink) Append(frame Frame, addr Address) {
	s.appended = append(s.appended, frame)
}

type collectingQueue struct {
	enqueued []Frame
}

func (q *collectingQueue) Enqueue(frame Frame) {
	q.enqueued = append(q.enqueued, frame)
}

func TestDispatchFilterSemantics(t *testing.T) {
	r := &Receiver{
		Filter:     &Filter{},
		Unfiltered: NewHub(8),
		Filtered:   NewHub(8),
		Metrics:    noopMetrics{},
	}
	r.Filter.Set(&Address{Universe: 5})

	sink := &collectingSink{}
	queue := &collectingQueue{}
	r.BufferedSink = sink
	r.StreamQueue = queue

	unfilteredCh := r.Unfiltered.Subscribe()
	filteredCh := r.Filtered.Subscribe()

	r.dispatch(Frame{Universe: 4})
	r.dispatch(Frame{Universe: 5})

	if len(queue.enqueued) != 2 {
		t.Fatalf("expected both frames on the streaming queue, got %d", len(queue.enqueued))
	}
	if len(sink.appended) != 1 || sink.appended[0].Universe != 5 {
		t.Fatalf("expected only the matching frame on the buffered sink, got %+v", sink.appended)
	}

	var unfilteredCount int
	drain(t, unfilteredCh, &unfilteredCount)
	if unfilteredCount != 2 {
		t.Fatalf("expected both frames on the unfiltered sink, got %d", unfilteredCount)
	}

	var filteredCount int
	drain(t, filteredCh, &filteredCount)
	if filteredCount != 1 {
		t.Fatalf("expected only the matching frame on the filtered sink, got %d", filteredCount)
	}
}

func drain(t *testing.T, ch chan Frame, count *int) {
	t.Helper()
	for {
		select {
		case <-ch:
			*count++
		case <-time.After(10 * time.Millisecond):
			return
		}
	}
}
