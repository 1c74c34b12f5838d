package artnet

import (
	"context"
	"testing"
	"time"
)

// TestLoopbackSendReceive exercises the receiver and sender tasks together
// over a real loopback UDP socket pair.
func TestLoopbackSendReceive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recvCfg := ReceiverConfig{BindIP: "127.0.0.1", Port: 16454}
	filter := &Filter{}
	recv, err := NewReceiver(ctx, recvCfg, filter)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}

	ch := recv.Unfiltered.Subscribe()
	defer recv.Unfiltered.Unsubscribe(ch)

	go recv.Run(ctx)

	buf := &LiveBuffer{}
	buf.SetChannel(0, 200)
	buf.SetChannel(511, 7)

	sender := NewSender(buf)
	senderCfg := SenderConfig{TargetIP: "127.0.0.1", Port: 16454, Net: 1, Subnet: 2, Universe: 3, FPS: 10}

	sendCtx, sendCancel := context.WithCancel(ctx)
	defer sendCancel()
	go sender.Run(sendCtx, senderCfg)

	select {
	case frame := <-ch:
		if frame.Net != 1 || frame.Subnet != 2 || frame.Universe != 3 {
			t.Fatalf("unexpected address: %+v", frame.Address())
		}
		if frame.Length != 512 {
			t.Fatalf("expected length 512 (channel 512 set), got %d", frame.Length)
		}
		if frame.Values[0] != 200 || frame.Values[511] != 7 {
			t.Fatalf("unexpected values[0]=%d values[511]=%d", frame.Values[0], frame.Values[511])
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no frame received within 500ms")
	}
}
