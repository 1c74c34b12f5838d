package artnet

import (
	"context"
	"fmt"
	"net"
	"time"
)

// SenderMetrics lets the sender report counters without depending on the
// metrics package's concrete types.
type SenderMetrics interface {
	IncTxFrames()
	IncTxErrors()
}

type noopSenderMetrics struct{}

func (noopSenderMetrics) IncTxFrames() {}
func (noopSenderMetrics) IncTxErrors() {}

// Sender ticks at the configured FPS, snapshots the live buffer, and
// transmits an ArtDmx packet.
type Sender struct {
	Buffer  *LiveBuffer
	Metrics SenderMetrics
}

// NewSender wires a Sender against a shared LiveBuffer.
func NewSender(buf *LiveBuffer) *Sender {
	return &Sender{Buffer: buf, Metrics: noopSenderMetrics{}}
}

// ResolveTarget parses cfg's target IP/port into a UDP address, shared by
// the sender task, push_frame, and the player.
func ResolveTarget(cfg SenderConfig) (*net.UDPAddr, error) {
	targetIP := net.ParseIP(cfg.TargetIP)
	if targetIP == nil {
		return nil, fmt.Errorf("artnet: invalid target IP %q", cfg.TargetIP)
	}
	return &net.UDPAddr{IP: targetIP, Port: int(cfg.Port)}, nil
}

// tickInterval converts fps to a tick period: max(1, round(1000/max(fps,1))) ms.
func tickInterval(fps uint32) time.Duration {
	if fps == 0 {
		fps = 1
	}
	ms := int64((1000.0/float64(fps))+0.5)
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// Run transmits at cfg's cadence until ctx is cancelled. Send errors are
// logged via Metrics and swallowed: the wire protocol is lossy by design.
func (s *Sender) Run(ctx context.Context, cfg SenderConfig) error {
	conn, err := NewSenderSocket()
	if err != nil {
		return err
	}
	defer conn.Close()

	target, err := ResolveTarget(cfg)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(tickInterval(cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sendOnce(conn, target, cfg)
		}
	}
}

func (s *Sender) sendOnce(conn *net.UDPConn, target *net.UDPAddr, cfg SenderConfig) {
	data := s.Buffer.Snapshot()
	seq := s.Buffer.NextSequence()
	pkt := Encode(cfg.Net, cfg.Subnet, cfg.Universe, seq, &data)
	if _, err := conn.WriteToUDP(pkt, target); err != nil {
		s.Metrics.IncTxErrors()
		return
	}
	s.Metrics.IncTxFrames()
}

// PushFrame performs a one-shot encode+send of the live buffer's current
// state. It opens and closes its own socket since it is not tied to the
// periodic sender task's lifecycle.
func PushFrame(buf *LiveBuffer, cfg SenderConfig) error {
	conn, err := NewSenderSocket()
	if err != nil {
		return err
	}
	defer conn.Close()

	target, err := ResolveTarget(cfg)
	if err != nil {
		return err
	}

	data := buf.Snapshot()
	seq := buf.NextSequence()
	pkt := Encode(cfg.Net, cfg.Subnet, cfg.Universe, seq, &data)
	_, err = conn.WriteToUDP(pkt, target)
	return err
}
