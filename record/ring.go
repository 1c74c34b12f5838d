// Package record implements the buffered ring and streaming JSONL recorder
// that observe decoded Art-Net frames for later preview, export, and
// playback.
package record

import (
	"sync"
	"time"

	"github.com/gopatchy/artnetengine/artnet"
)

// MaxFrames is the buffered recorder's frame cap.
const MaxFrames = 200_000

// Address mirrors artnet.Address so record does not need artnet's Frame type
// for callers that only have raw values (e.g. the loader paths).
type Address struct {
	Net      uint8
	Subnet   uint8
	Universe uint8
}

// Preview is the downsampled view returned by Ring.Preview.
type Preview struct {
	Points     []Point
	FrameCount int
	DurationMs int64
}

// Point is one (timestamp, value) sample in a Preview.
type Point struct {
	TMs   int64
	Value byte
}

// RingMetrics observes the ring's occupancy. Defined here, not in
// internal/metrics, so record has no dependency on the metrics package;
// internal/metrics satisfies it by duck typing.
type RingMetrics interface {
	SetFrameCount(n int)
}

type noopRingMetrics struct{}

func (noopRingMetrics) SetFrameCount(int) {}

// Ring is a bounded, channel-projected recording of live frames, organized
// by column rather than by full 512-byte frame.
type Ring struct {
	mu sync.Mutex

	active     bool
	channels   []int // 0-based, normalized: deduped, <512, order preserved
	timestamps []int64
	addresses  []Address
	values     [][]byte // values[col][i], parallel to timestamps

	origin  time.Time
	nowFn   func() time.Time
	Metrics RingMetrics
}

// NewRing returns an empty, inactive ring.
func NewRing() *Ring {
	return &Ring{nowFn: time.Now, Metrics: noopRingMetrics{}}
}

// normalizeChannels dedupes, drops out-of-range entries, and preserves the
// first-seen order, per the Start/SetChannels contract.
func normalizeChannels(channels []int) []int {
	seen := make(map[int]struct{}, len(channels))
	out := make([]int, 0, len(channels))
	for _, c := range channels {
		if c < 0 || c >= 512 {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Start installs a new empty record for the normalized channel list and
// resets the timestamp origin. Returns the normalized channels (0-based).
func (r *Ring) Start(channels []int) []int {
	norm := normalizeChannels(channels)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = norm
	r.timestamps = nil
	r.addresses = nil
	r.values = make([][]byte, len(norm))
	for i := range r.values {
		r.values[i] = nil
	}
	r.active = true
	r.origin = r.nowFn()

	out := make([]int, len(norm))
	copy(out, norm)
	return out
}

// Stop marks the ring inactive, retaining its data.
func (r *Ring) Stop() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

// Clear drops the record entirely.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.channels = nil
	r.timestamps = nil
	r.addresses = nil
	r.values = nil
	r.active = false
	r.mu.Unlock()
	r.Metrics.SetFrameCount(0)
}

// Active reports whether the ring is currently recording.
func (r *Ring) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetChannels reshapes the column set: reused columns keep their data
// verbatim, new columns start zero-filled to the current frame length.
// May be called while inactive to pre-select channels. Returns the
// normalized channel list.
func (r *Ring) SetChannels(channels []int) []int {
	norm := normalizeChannels(channels)

	r.mu.Lock()
	defer r.mu.Unlock()

	frameLen := len(r.timestamps)
	newValues := make([][]byte, len(norm))
	for i, c := range norm {
		if idx := indexOf(r.channels, c); idx >= 0 {
			newValues[i] = r.values[idx]
		} else {
			newValues[i] = make([]byte, frameLen)
		}
	}
	r.channels = norm
	r.values = newValues

	out := make([]int, len(norm))
	copy(out, norm)
	return out
}

func indexOf(channels []int, c int) int {
	for i, v := range channels {
		if v == c {
			return i
		}
	}
	return -1
}

// Append records one frame if the ring is active: elapsed time since origin,
// the frame's address, and the selected channel columns (zero if the frame
// is shorter than the channel index). Evicts the oldest entries to enforce
// MaxFrames.
func (r *Ring) Append(frame artnet.Frame, addr artnet.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return
	}

	elapsed := r.nowFn().Sub(r.origin).Milliseconds()
	r.timestamps = append(r.timestamps, elapsed)
	r.addresses = append(r.addresses, Address{Net: addr.Net, Subnet: addr.Subnet, Universe: addr.Universe})

	for i, c := range r.channels {
		var v byte
		if c < len(frame.Values) {
			v = frame.Values[c]
		}
		r.values[i] = append(r.values[i], v)
	}

	if n := len(r.timestamps); n > MaxFrames {
		drop := n - MaxFrames
		r.timestamps = append([]int64(nil), r.timestamps[drop:]...)
		r.addresses = append([]Address(nil), r.addresses[drop:]...)
		for i := range r.values {
			r.values[i] = append([]byte(nil), r.values[i][drop:]...)
		}
	}
	r.Metrics.SetFrameCount(len(r.timestamps))
}

// Preview returns a downsampled view of channel (0-based) using a stride
// rule. An unknown channel, an empty column, or max_points==0 yields an
// empty point list with the current frame_count/duration_ms.
func (r *Ring) Preview(channel int, maxPoints int) Preview {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameCount := len(r.timestamps)
	duration := int64(0)
	if frameCount > 0 {
		duration = r.timestamps[frameCount-1]
	}

	idx := indexOf(r.channels, channel)
	if idx < 0 || maxPoints == 0 {
		return Preview{FrameCount: frameCount, DurationMs: duration}
	}

	col := r.values[idx]
	total := len(col)
	if total == 0 {
		return Preview{FrameCount: frameCount, DurationMs: duration}
	}

	if total <= maxPoints {
		points := make([]Point, total)
		for i := 0; i < total; i++ {
			points[i] = Point{TMs: r.timestamps[i], Value: col[i]}
		}
		return Preview{Points: points, FrameCount: frameCount, DurationMs: duration}
	}

	stride := (total + maxPoints - 1) / maxPoints
	points := make([]Point, 0, maxPoints+1)
	for i := 0; i < total; i += stride {
		points = append(points, Point{TMs: r.timestamps[i], Value: col[i]})
	}
	last := total - 1
	if points[len(points)-1].TMs != r.timestamps[last] {
		points = append(points, Point{TMs: r.timestamps[last], Value: col[last]})
	}
	return Preview{Points: points, FrameCount: frameCount, DurationMs: duration}
}

// Snapshot is a deep copy of the ring's full state, suitable for export.
type Snapshot struct {
	Channels   []int
	Timestamps []int64
	Addresses  []Address
	Values     [][]byte
}

// Snapshot returns a deep copy of the current record.
func (r *Ring) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Channels:   append([]int(nil), r.channels...),
		Timestamps: append([]int64(nil), r.timestamps...),
		Addresses:  append([]Address(nil), r.addresses...),
		Values:     make([][]byte, len(r.values)),
	}
	for i, col := range r.values {
		out.Values[i] = append([]byte(nil), col...)
	}
	return out
}

// LoadFromData replaces the record wholesale (file-load paths). Timestamps
// in data are interpreted as already relative to an implicit origin.
func (r *Ring) LoadFromData(channels []int, timestamps []int64, addresses []Address, values [][]byte, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = append([]int(nil), channels...)
	r.timestamps = append([]int64(nil), timestamps...)
	r.addresses = append([]Address(nil), addresses...)
	r.values = make([][]byte, len(values))
	for i, col := range values {
		r.values[i] = append([]byte(nil), col...)
	}
	r.active = active
	r.origin = r.nowFn()
	r.Metrics.SetFrameCount(len(r.timestamps))
}
