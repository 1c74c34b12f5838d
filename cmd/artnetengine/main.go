// Command artnetengine is a minimal operator-facing host for the Art-Net
// engine: it loads an optional TOML config, starts the receiver and sender,
// optionally serves Prometheus metrics, and shuts down cleanly on signal.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"

	"github.com/gopatchy/artnetengine/artnet"
	"github.com/gopatchy/artnetengine/engine"
	"github.com/gopatchy/artnetengine/internal/metrics"
)

// EngineConfig is the CLI host's optional TOML config file shape. It is a
// standalone convenience for this binary; the engine itself persists no
// settings.
type EngineConfig struct {
	Receiver      artnet.ReceiverConfig `toml:"receiver"`
	Sender        artnet.SenderConfig   `toml:"sender"`
	AnimationMode string                `toml:"animation_mode"`
	AnimationFreq float64               `toml:"animation_frequency_hz"`
	AnimationMax  uint8                 `toml:"animation_master"`
	MetricsListen string                `toml:"metrics_listen"`
}

func loadConfig(path string) (EngineConfig, error) {
	cfg := EngineConfig{
		Receiver: artnet.DefaultReceiverConfig(),
		Sender:   artnet.DefaultSenderConfig(),
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseAnimationMode(s string) artnet.AnimationMode {
	switch s {
	case "sinusoid":
		return artnet.AnimationSinusoid
	case "ramp":
		return artnet.AnimationRamp
	case "square":
		return artnet.AnimationSquare
	default:
		return artnet.AnimationOff
	}
}

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	metricsListen := flag.String("metrics-listen", "", "address to serve /metrics on (empty disables)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("[config] load error: %v", err)
	}
	if *metricsListen != "" {
		cfg.MetricsListen = *metricsListen
	}

	sup := engine.New()
	sup.SetReceiverConfig(cfg.Receiver)
	sup.SetSenderConfig(cfg.Sender)

	if err := sup.StartReceiver(); err != nil {
		log.Fatalf("[receiver] start error: %v", err)
	}
	log.Printf("[receiver] listening addr=%s:%d", cfg.Receiver.BindIP, cfg.Receiver.Port)

	if cfg.Sender.FPS > 0 {
		if err := sup.StartSender(); err != nil {
			log.Fatalf("[sender] start error: %v", err)
		}
		log.Printf("[sender] target=%s:%d fps=%d", cfg.Sender.TargetIP, cfg.Sender.Port, cfg.Sender.FPS)
	}

	if mode := parseAnimationMode(cfg.AnimationMode); mode != artnet.AnimationOff {
		sup.StartAnimation(mode, cfg.AnimationFreq, cfg.AnimationMax)
		log.Printf("[animator] mode=%s freq=%.2fHz master=%d", cfg.AnimationMode, cfg.AnimationFreq, cfg.AnimationMax)
	}

	if cfg.MetricsListen != "" {
		go serveMetrics(cfg.MetricsListen)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[main] shutting down")
	sup.Shutdown()
}

func serveMetrics(addr string) {
	srv := metrics.Serve(addr)
	log.Printf("[metrics] listening addr=%s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[metrics] server error: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
}
