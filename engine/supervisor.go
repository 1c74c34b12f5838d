// Package engine implements the supervisor that owns shared state (live
// buffer, event filter, task slots) and exposes the host's command surface
// for starting and stopping the receiver, sender, animator, and player.
package engine

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopatchy/artnetengine/artnet"
	"github.com/gopatchy/artnetengine/internal/metrics"
	"github.com/gopatchy/artnetengine/player"
	"github.com/gopatchy/artnetengine/record"
)

// ErrInvalidChannel reports a 1-based channel parameter outside 1..512 on a
// command that requires a single specific channel.
var ErrInvalidChannel = errors.New("engine: channel must be in 1..512")

// to0Based converts 1-based command-surface channel numbers to the 0-based
// indices record.Ring stores internally.
func to0Based(channels1Based []int) []int {
	out := make([]int, len(channels1Based))
	for i, c := range channels1Based {
		out[i] = c - 1
	}
	return out
}

// to1Based converts record.Ring's normalized 0-based channels back to the
// 1-based numbering every command parameter and result uses.
func to1Based(channels0Based []int) []int {
	out := make([]int, len(channels0Based))
	for i, c := range channels0Based {
		out[i] = c + 1
	}
	return out
}

// taskSlot holds at most one live task's cancellation handle.
type taskSlot struct {
	cancel context.CancelFunc
}

func (s *taskSlot) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Supervisor owns the live buffer, event filter, animation state, and the
// named task slots {receiver, sender, streaming-recorder, player, animator}.
// Starting a slot cancels its previous occupant before installing the new
// one; all other state mutations are short synchronous critical sections.
type Supervisor struct {
	mu sync.Mutex

	Buffer *artnet.LiveBuffer
	Filter *artnet.Filter
	Anim   *artnet.AnimationState
	Ring   *record.Ring

	receiverCfg artnet.ReceiverConfig
	senderCfg   artnet.SenderConfig

	receiverSlot taskSlot
	senderSlot   taskSlot
	playerSlot   taskSlot
	animatorSlot taskSlot

	streamRecorder *record.StreamRecorder
	receiver       *artnet.Receiver
}

// New returns a Supervisor with default configs and an idle live buffer.
func New() *Supervisor {
	ring := record.NewRing()
	ring.Metrics = metrics.RingAdapter{}
	return &Supervisor{
		Buffer:      &artnet.LiveBuffer{},
		Filter:      &artnet.Filter{},
		Anim:        &artnet.AnimationState{},
		Ring:        ring,
		receiverCfg: artnet.DefaultReceiverConfig(),
		senderCfg:   artnet.DefaultSenderConfig(),
	}
}

// GetReceiverConfig returns the current receiver configuration.
func (s *Supervisor) GetReceiverConfig() artnet.ReceiverConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiverCfg
}

// SetReceiverConfig replaces the receiver configuration. Takes effect the
// next time the receiver slot is started.
func (s *Supervisor) SetReceiverConfig(cfg artnet.ReceiverConfig) {
	s.mu.Lock()
	s.receiverCfg = cfg
	s.mu.Unlock()
}

// GetSenderConfig returns the current sender configuration.
func (s *Supervisor) GetSenderConfig() artnet.SenderConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.senderCfg
}

// SetSenderConfig replaces the sender configuration. Takes effect the next
// time the sender slot is started.
func (s *Supervisor) SetSenderConfig(cfg artnet.SenderConfig) {
	s.mu.Lock()
	s.senderCfg = cfg
	s.mu.Unlock()
}

// StartReceiver cancels any previous receiver task, binds a fresh socket per
// the current ReceiverConfig, and starts the receive loop in the
// background.
func (s *Supervisor) StartReceiver() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receiverSlot.stop()

	cfg := s.receiverCfg
	ctx, cancel := context.WithCancel(context.Background())

	recv, err := artnet.NewReceiver(ctx, cfg, s.Filter)
	if err != nil {
		cancel()
		return err
	}
	recv.Metrics = metrics.ReceiverAdapter{}
	recv.BufferedSink = s.Ring
	if s.streamRecorder != nil {
		recv.StreamQueue = s.streamRecorder
	}

	s.receiver = recv
	s.receiverSlot.cancel = cancel

	go func() {
		if err := recv.Run(ctx); err != nil {
			log.Printf("[receiver] terminated: %v", err)
		}
	}()
	return nil
}

// StopReceiver cancels the receiver task, if any.
func (s *Supervisor) StopReceiver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiverSlot.stop()
	s.receiver = nil
}

// StartSender cancels any previous sender task and starts a new one against
// the current SenderConfig.
func (s *Supervisor) StartSender() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.senderSlot.stop()

	cfg := s.senderCfg
	sender := artnet.NewSender(s.Buffer)
	sender.Metrics = metrics.SenderAdapter{}

	ctx, cancel := context.WithCancel(context.Background())
	s.senderSlot.cancel = cancel

	go func() {
		if err := sender.Run(ctx, cfg); err != nil {
			log.Printf("[sender] terminated: %v", err)
		}
	}()
	return nil
}

// StopSender cancels the sender task, if any.
func (s *Supervisor) StopSender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senderSlot.stop()
}

// PushFrame performs a one-shot encode+send of the live buffer's current
// state using the current SenderConfig.
func (s *Supervisor) PushFrame() error {
	s.mu.Lock()
	cfg := s.senderCfg
	s.mu.Unlock()
	return artnet.PushFrame(s.Buffer, cfg)
}

// SetChannel writes one 0-indexed channel (ignored if out of range).
func (s *Supervisor) SetChannel(index int, value byte) {
	s.Buffer.SetChannel(index, value)
}

// SetChannels replaces the entire live buffer; returns false if values is
// not exactly 512 bytes.
func (s *Supervisor) SetChannels(values []byte) bool {
	return s.Buffer.SetChannels(values)
}

// SetEventFilter installs or clears the (net, subnet, universe) filter.
func (s *Supervisor) SetEventFilter(addr *artnet.Address) {
	s.Filter.Set(addr)
}

// StartRecording opens path and starts the streaming JSONL recorder,
// cancelling any previous one.
func (s *Supervisor) StartRecording(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamRecorder != nil {
		s.streamRecorder.Stop()
		s.streamRecorder = nil
	}

	rec, err := record.NewStreamRecorder(path)
	if err != nil {
		return err
	}
	rec.Metrics = metrics.StreamAdapter{}
	s.streamRecorder = rec
	if s.receiver != nil {
		s.receiver.StreamQueue = rec
	}
	return nil
}

// StopRecording stops the streaming recorder, if any.
func (s *Supervisor) StopRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamRecorder != nil {
		s.streamRecorder.Stop()
		s.streamRecorder = nil
	}
	if s.receiver != nil {
		s.receiver.StreamQueue = nil
	}
}

// StartBufferedRecording starts the ring for the given 1-based channels and
// returns the normalized (1-based) channel list.
func (s *Supervisor) StartBufferedRecording(channels1Based []int) []int {
	return to1Based(s.Ring.Start(to0Based(channels1Based)))
}

// StopBufferedRecording marks the ring inactive, retaining its data.
func (s *Supervisor) StopBufferedRecording() {
	s.Ring.Stop()
}

// ClearRecordBuffer drops the ring's data entirely.
func (s *Supervisor) ClearRecordBuffer() {
	s.Ring.Clear()
}

// SetRecordChannels reshapes the ring's column set and returns the
// normalized (1-based) channel list.
func (s *Supervisor) SetRecordChannels(channels1Based []int) []int {
	return to1Based(s.Ring.SetChannels(to0Based(channels1Based)))
}

// GetRecordingPreview returns a downsampled view of one ring channel.
// channel1Based must be in 1..512; channel == 0 is rejected with
// ErrInvalidChannel.
func (s *Supervisor) GetRecordingPreview(channel1Based, maxPoints int) (record.Preview, error) {
	if channel1Based <= 0 || channel1Based > 512 {
		return record.Preview{}, ErrInvalidChannel
	}
	return s.Ring.Preview(channel1Based-1, maxPoints), nil
}

// SaveBufferedRecordingJSONL exports the ring to a JSONL file.
func (s *Supervisor) SaveBufferedRecordingJSONL(path string) error {
	return record.SaveJSONLFile(path, s.Ring.Snapshot())
}

// SaveBufferedRecordingWAV exports the ring to an 8-bit PCM WAV file.
func (s *Supervisor) SaveBufferedRecordingWAV(path string) error {
	return record.SaveWAVFile(path, s.Ring.Snapshot())
}

// LoadRecordingResult is the metadata returned by LoadRecording.
type LoadRecordingResult struct {
	Channels   []int
	FrameCount int
	DurationMs int64
}

// LoadRecording loads a JSONL or WAV file into the ring (inactive). Format
// is chosen by looking at the file's extension.
func (s *Supervisor) LoadRecording(path string) (LoadRecordingResult, error) {
	if isWAVPath(path) {
		wav, err := record.LoadWAVFile(path)
		if err != nil {
			return LoadRecordingResult{}, err
		}
		channels := make([]int, wav.NumChannels)
		for i := range channels {
			channels[i] = i
		}
		addresses := make([]record.Address, len(wav.Timestamps))
		s.Ring.LoadFromData(channels, wav.Timestamps, addresses, wav.Values, false)
		duration := int64(0)
		if len(wav.Timestamps) > 0 {
			duration = wav.Timestamps[len(wav.Timestamps)-1]
		}
		return LoadRecordingResult{Channels: to1Based(channels), FrameCount: len(wav.Timestamps), DurationMs: duration}, nil
	}

	channels, timestamps, addresses, values, err := record.LoadJSONLFile(path)
	if err != nil {
		return LoadRecordingResult{}, err
	}
	s.Ring.LoadFromData(channels, timestamps, addresses, values, false)
	duration := int64(0)
	if len(timestamps) > 0 {
		duration = timestamps[len(timestamps)-1]
	}
	return LoadRecordingResult{Channels: to1Based(channels), FrameCount: len(timestamps), DurationMs: duration}, nil
}

func isWAVPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// PlayFile starts JSONL playback of path in the player slot.
func (s *Supervisor) PlayFile(path string) error {
	return s.startPlayer(func(ctx context.Context, cfg artnet.SenderConfig) error {
		return player.PlayJSONL(ctx, path, cfg)
	})
}

// PlayWAVFile starts WAV playback of path in the player slot.
func (s *Supervisor) PlayWAVFile(path string) error {
	return s.startPlayer(func(ctx context.Context, cfg artnet.SenderConfig) error {
		return player.PlayWAV(ctx, path, cfg)
	})
}

func (s *Supervisor) startPlayer(run func(ctx context.Context, cfg artnet.SenderConfig) error) error {
	s.mu.Lock()
	s.playerSlot.stop()
	cfg := s.senderCfg
	ctx, cancel := context.WithCancel(context.Background())
	s.playerSlot.cancel = cancel
	s.mu.Unlock()

	go func() {
		if err := run(ctx, cfg); err != nil {
			log.Printf("[player] terminated: %v", err)
		}
	}()
	return nil
}

// StopPlayback cancels the player task, if any.
func (s *Supervisor) StopPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerSlot.stop()
}

// StartAnimation installs a new waveform and starts the animator task if it
// is not already running.
func (s *Supervisor) StartAnimation(mode artnet.AnimationMode, frequencyHz float64, master uint8) {
	s.Anim.Set(mode, frequencyHz, master)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.animatorSlot.cancel != nil {
		return // already running: Set above updated its parameters in place
	}

	anim := artnet.NewAnimator(s.Buffer, s.Anim)
	anim.Metrics = metrics.AnimatorAdapter{}
	ctx, cancel := context.WithCancel(context.Background())
	s.animatorSlot.cancel = cancel

	go func() {
		if err := anim.Run(ctx); err != nil {
			log.Printf("[animator] terminated: %v", err)
		}
	}()
}

// StopAnimation stops the animator task and marks the state not running.
func (s *Supervisor) StopAnimation() {
	s.Anim.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animatorSlot.stop()
}

// Shutdown cancels every task slot, for use on process exit.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiverSlot.stop()
	s.senderSlot.stop()
	s.playerSlot.stop()
	s.animatorSlot.stop()
	if s.streamRecorder != nil {
		s.streamRecorder.Stop()
		s.streamRecorder = nil
	}
}
