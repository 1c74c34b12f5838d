package artnet

import (
	"context"
	"math"
	"sync"
	"time"
)

// AnimationMode selects the waveform the animator synthesizes into the live
// buffer.
type AnimationMode int

const (
	AnimationOff AnimationMode = iota
	AnimationSinusoid
	AnimationRamp
	AnimationSquare
)

// AnimationState is the animator's live configuration: mutable while the
// task runs, guarded by its own mutex so start_animation commands can adjust
// frequency and master level without a stop/start cycle.
type AnimationState struct {
	mu          sync.Mutex
	Mode        AnimationMode
	FrequencyHz float64
	Master      uint8
	Running     bool
}

// Snapshot returns a copy of the current state for inspection (get_*
// commands, tests).
func (s *AnimationState) Snapshot() AnimationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AnimationState{Mode: s.Mode, FrequencyHz: s.FrequencyHz, Master: s.Master, Running: s.Running}
}

// Set installs a new mode/frequency/master and marks the state running.
func (s *AnimationState) Set(mode AnimationMode, frequencyHz float64, master uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mode = mode
	s.FrequencyHz = frequencyHz
	s.Master = master
	s.Running = true
}

// Stop marks the state as not running; the animator task keeps ticking but
// skips writes until restarted.
func (s *AnimationState) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Running = false
}

const animatorTick = 16 * time.Millisecond

// AnimatorMetrics observes the animator's tick rate.
type AnimatorMetrics interface {
	IncTicks()
}

type noopAnimatorMetrics struct{}

func (noopAnimatorMetrics) IncTicks() {}

// Animator is a ~60 Hz task that synthesizes a waveform into the live
// buffer.
type Animator struct {
	Buffer  *LiveBuffer
	State   *AnimationState
	Metrics AnimatorMetrics

	// now is overridable in tests; defaults to time.Now wall-clock millis.
	now func() int64
}

// NewAnimator wires an Animator against a shared LiveBuffer and
// AnimationState.
func NewAnimator(buf *LiveBuffer, state *AnimationState) *Animator {
	return &Animator{
		Buffer:  buf,
		State:   state,
		Metrics: noopAnimatorMetrics{},
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Run ticks every 16ms until ctx is cancelled, writing a synthesized pattern
// into the live buffer on every tick where the state is running and the mode
// is not off.
func (a *Animator) Run(ctx context.Context) error {
	ticker := time.NewTicker(animatorTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *Animator) tick() {
	st := a.State.Snapshot()
	if !st.Running || st.Mode == AnimationOff {
		return
	}

	value := sampleWaveform(st.Mode, st.FrequencyHz, a.now())

	scaled := uint8(math.Min(255, math.Round(value*255)*float64(st.Master)/255))

	var pattern [512]byte
	for i := range pattern {
		pattern[i] = scaled
	}
	a.Buffer.SetChannels(pattern[:])
	a.Metrics.IncTicks()
}

// sampleWaveform computes v(t) in [0,1] for the given mode/frequency at
// wall-clock nowMs.
func sampleWaveform(mode AnimationMode, frequencyHz float64, nowMs int64) float64 {
	if frequencyHz <= 0 {
		frequencyHz = 1
	}
	periodMs := math.Round(1000 / frequencyHz)
	if periodMs < 1 {
		periodMs = 1
	}
	t := math.Mod(float64(nowMs), periodMs) / periodMs

	switch mode {
	case AnimationSinusoid:
		return (math.Sin(2*math.Pi*t) + 1) / 2
	case AnimationRamp:
		return t
	case AnimationSquare:
		if math.Sin(2*math.Pi*t) > 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}
