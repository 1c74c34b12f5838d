package artnet

import (
	"context"
	"fmt"
	"net"
)

// ReceiverConfig describes where the receiver task binds.
type ReceiverConfig struct {
	BindIP string `toml:"bind_ip" json:"bind_ip"`
	Port   uint16 `toml:"port" json:"port"`
}

// DefaultReceiverConfig matches the documented default of 0.0.0.0:6454.
func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{BindIP: "0.0.0.0", Port: Port}
}

// SenderConfig describes the sender task's target, addressing, and cadence.
type SenderConfig struct {
	TargetIP string `toml:"target_ip" json:"target_ip"`
	Port     uint16 `toml:"port" json:"port"`
	Net      uint8  `toml:"net" json:"net"`
	Subnet   uint8  `toml:"subnet" json:"subnet"`
	Universe uint8  `toml:"universe" json:"universe"`
	FPS      uint32 `toml:"fps" json:"fps"`
}

// DefaultSenderConfig matches the documented default of a limited broadcast
// at 44 FPS on universe 0.0.0.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		TargetIP: "255.255.255.255",
		Port:     Port,
		FPS:      44,
	}
}

// listenConfig enables SO_REUSEADDR and, best-effort, SO_REUSEPORT on the
// receive socket (see socket_unix.go / socket_other.go) so multiple
// processes, or a quick stop/restart of the receiver slot, can share the
// bind address.
var listenConfig = net.ListenConfig{Control: controlReuseAddr}

// NewReceiverSocket binds a non-blocking UDP socket for the receiver task.
func NewReceiverSocket(ctx context.Context, cfg ReceiverConfig) (*net.UDPConn, error) {
	ip := net.ParseIP(cfg.BindIP)
	if ip == nil {
		return nil, fmt.Errorf("artnet: invalid bind IP %q", cfg.BindIP)
	}

	network := "udp4"
	if ip.To4() == nil {
		network = "udp6"
	}

	pc, err := listenConfig.ListenPacket(ctx, network, fmt.Sprintf("%s:%d", cfg.BindIP, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("artnet: bind %s:%d: %w", cfg.BindIP, cfg.Port, err)
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("artnet: unexpected packet conn type %T", pc)
	}
	return conn, nil
}

// NewSenderSocket binds an ephemeral broadcast-capable UDP socket for the
// sender, player, and one-shot push-frame paths.
func NewSenderSocket() (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("artnet: sender socket: %w", err)
	}

	rawConn, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("artnet: sender socket control: %w", err)
	}

	var setErr error
	err = rawConn.Control(func(fd uintptr) {
		setErr = enableBroadcast(fd)
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("artnet: sender socket control: %w", err)
	}
	if setErr != nil {
		conn.Close()
		return nil, fmt.Errorf("artnet: enable broadcast: %w", setErr)
	}

	return conn, nil
}
