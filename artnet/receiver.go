package artnet

import (
	"context"
	"net"
)

// FrameSink receives frames that passed the event filter, such as the
// buffered recorder ring. Implemented by record.Ring without either
// package importing the other's concrete type.
type FrameSink interface {
	Append(frame Frame, addr Address)
}

// StreamQueue receives every decoded frame for disk-backed recording,
// regardless of the event filter. Implemented by record.StreamRecorder.
type StreamQueue interface {
	Enqueue(frame Frame)
}

// ReceiverMetrics lets the receiver report counters without artnet
// depending on the metrics package's concrete types.
type ReceiverMetrics interface {
	IncRxFrames()
	IncRxMalformed()
	IncFilterDropped()
}

type noopMetrics struct{}

func (noopMetrics) IncRxFrames()      {}
func (noopMetrics) IncRxMalformed()   {}
func (noopMetrics) IncFilterDropped() {}

// Receiver owns the bound UDP socket and runs the receive loop that
// decodes ArtDmx packets and fans them out.
type Receiver struct {
	conn   *net.UDPConn
	Filter *Filter

	Unfiltered *Hub
	Filtered   *Hub

	BufferedSink FrameSink
	StreamQueue  StreamQueue

	Metrics ReceiverMetrics
}

// NewReceiver binds cfg's address and returns a Receiver ready to Run. The
// caller owns cancellation via the context passed to Run.
func NewReceiver(ctx context.Context, cfg ReceiverConfig, filter *Filter) (*Receiver, error) {
	conn, err := NewReceiverSocket(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		conn:       conn,
		Filter:     filter,
		Unfiltered: NewHub(64),
		Filtered:   NewHub(64),
		Metrics:    noopMetrics{},
	}, nil
}

// Run executes the receive loop until ctx is cancelled or a fatal socket
// error occurs. Cancellation is cooperative: it is only observed at the
// next recv.
func (r *Receiver) Run(ctx context.Context) error {
	defer r.conn.Close()

	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		frame, err := Decode(buf[:n])
		if err != nil {
			// Malformed packets are dropped silently, only counted
			// for observability.
			r.Metrics.IncRxMalformed()
			continue
		}
		r.Metrics.IncRxFrames()
		r.dispatch(frame)
	}
}

// dispatch fans a decoded frame out in a fixed order: unfiltered sink,
// then filter check, then filtered sink + buffered recorder, then the
// streaming recorder queue.
func (r *Receiver) dispatch(frame Frame) {
	r.Unfiltered.Publish(frame)

	addr := frame.Address()
	if r.Filter.Match(addr) {
		r.Filtered.Publish(frame)
		if r.BufferedSink != nil {
			r.BufferedSink.Append(frame, addr)
		}
	} else {
		r.Metrics.IncFilterDropped()
	}

	if r.StreamQueue != nil {
		r.StreamQueue.Enqueue(frame)
	}
}

// Stop closes the receive socket, unblocking any in-flight ReadFromUDP.
func (r *Receiver) Stop() {
	r.conn.Close()
}
