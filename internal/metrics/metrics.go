// Package metrics exposes the engine's Prometheus counters and gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_rx_frames_total",
		Help: "Total ArtDmx packets successfully decoded by the receiver.",
	})
	RxMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_rx_malformed_total",
		Help: "Total packets dropped by the receiver for failing to decode.",
	})
	TxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_tx_frames_total",
		Help: "Total ArtDmx packets transmitted by the sender.",
	})
	TxErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_tx_errors_total",
		Help: "Total sender transmit errors (swallowed, lossy by design).",
	})
	FilterDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_filter_dropped_total",
		Help: "Total frames rejected by the event filter before the filtered sink and buffered recorder.",
	})
	StreamRecorderQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artnet_stream_recorder_queue_depth",
		Help: "Current number of frames queued in the streaming recorder awaiting disk write.",
	})
	RingFrameCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artnet_ring_frame_count",
		Help: "Current number of frames held in the buffered recorder ring.",
	})
	AnimatorTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artnet_animator_ticks_total",
		Help: "Total animator ticks that produced a live-buffer write.",
	})
)

// ReceiverAdapter satisfies artnet.ReceiverMetrics against the package
// counters above.
type ReceiverAdapter struct{}

func (ReceiverAdapter) IncRxFrames()      { RxFrames.Inc() }
func (ReceiverAdapter) IncRxMalformed()   { RxMalformed.Inc() }
func (ReceiverAdapter) IncFilterDropped() { FilterDropped.Inc() }

// SenderAdapter satisfies artnet.SenderMetrics against the package counters
// above.
type SenderAdapter struct{}

func (SenderAdapter) IncTxFrames() { TxFrames.Inc() }
func (SenderAdapter) IncTxErrors() { TxErrors.Inc() }

// AnimatorAdapter satisfies artnet.AnimatorMetrics against the package
// counters above.
type AnimatorAdapter struct{}

func (AnimatorAdapter) IncTicks() { AnimatorTicks.Inc() }

// StreamAdapter satisfies record.StreamMetrics against the package gauges
// above.
type StreamAdapter struct{}

func (StreamAdapter) SetQueueDepth(n int) { StreamRecorderQueueDepth.Set(float64(n)) }

// RingAdapter satisfies record.RingMetrics against the package gauges above.
type RingAdapter struct{}

func (RingAdapter) SetFrameCount(n int) { RingFrameCount.Set(float64(n)) }

// Serve builds an HTTP server exposing /metrics on addr. It does not start
// listening: the caller runs ListenAndServe on the returned server, usually
// in its own goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	return srv
}
