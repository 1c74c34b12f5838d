// Package player replays recorded JSONL and WAV sessions as timed Art-Net
// packet streams.
package player

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gopatchy/artnetengine/artnet"
	"github.com/gopatchy/artnetengine/record"
)

// frame is one fully-resolved emission: a 512-byte payload plus addressing,
// at a given offset from playback start.
type frame struct {
	tMs      int64
	net      uint8
	subnet   uint8
	universe uint8
	data     [512]byte
}

// PlayJSONL rebuilds a 512-byte frame per record by scattering each
// record's values into the channels declared (or defaulted to 1..512), and
// overrides addressing per record. Sequence is fixed at 0 for every
// emitted packet, preserving compatibility rather than advancing a counter.
func PlayJSONL(ctx context.Context, path string, cfg artnet.SenderConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("player: open %s: %w", path, err)
	}
	header, records, err := record.ParseJSONLStream(f)
	f.Close()
	if err != nil {
		return err
	}

	channels := header.Channels
	if len(channels) == 0 {
		channels = make([]int, 512)
		for i := range channels {
			channels[i] = i + 1
		}
	}

	frames := make([]frame, 0, len(records))
	for _, rec := range records {
		var data [512]byte
		for i, ch1 := range channels {
			if i >= len(rec.Values) {
				break
			}
			idx := ch1 - 1
			if idx < 0 || idx >= 512 {
				continue
			}
			data[idx] = byte(rec.Values[i])
		}
		frames = append(frames, frame{
			tMs:      rec.TMs,
			net:      rec.Net,
			subnet:   rec.Subnet,
			universe: rec.Universe,
			data:     data,
		})
	}

	return run(ctx, frames, cfg)
}

// PlayWAV treats the file as a dense grid: frame index maps to a
// reconstructed timestamp, and each channel column maps to a live-buffer
// channel index 0..n-1. Addressing comes from the sender's current
// net/subnet/universe rather than from the file.
func PlayWAV(ctx context.Context, path string, cfg artnet.SenderConfig) error {
	wav, err := record.LoadWAVFile(path)
	if err != nil {
		return err
	}

	frames := make([]frame, len(wav.Timestamps))
	for i := range frames {
		var data [512]byte
		for c := 0; c < wav.NumChannels && c < 512; c++ {
			data[c] = wav.Values[c][i]
		}
		frames[i] = frame{
			tMs:      wav.Timestamps[i],
			net:      cfg.Net,
			subnet:   cfg.Subnet,
			universe: cfg.Universe,
			data:     data,
		}
	}

	return run(ctx, frames, cfg)
}

// run implements the common control flow: open a send socket, then for each
// frame in order sleep max(0, t_ms - prev_t_ms) before emitting, preserving
// inter-frame spacing relative to source timestamps rather than wall clock.
// Cancellation halts between frames.
func run(ctx context.Context, frames []frame, cfg artnet.SenderConfig) error {
	conn, err := artnet.NewSenderSocket()
	if err != nil {
		return err
	}
	defer conn.Close()

	target, err := artnet.ResolveTarget(cfg)
	if err != nil {
		return err
	}

	var prevT int64
	for _, fr := range frames {
		wait := fr.tMs - prevT
		if wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(wait) * time.Millisecond):
			}
		}
		prevT = fr.tMs

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pkt := artnet.Encode(fr.net, fr.subnet, fr.universe, 0, &fr.data)
		_, _ = conn.WriteToUDP(pkt, target)
	}
	return nil
}
