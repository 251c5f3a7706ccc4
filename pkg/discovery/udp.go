// Package discovery implements the LAN discovery contract: a UDP magic
// packet exchange and multicast DNS advertisement.
package discovery

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxDatagram = 1500

// ScanResult is one device that answered a UDP discovery broadcast. Data
// is the hex encoding of the reply payload.
type ScanResult struct {
	Address string `json:"address"`
	Data    string `json:"data"`
}

// DeviceID decodes the hex payload of the scan result.
func (r ScanResult) DeviceID() (string, error) {
	b, err := hex.DecodeString(r.Data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Responder answers the magic discovery packet with the device id.
type Responder struct {
	packet    []byte
	deviceID  string
	replyPort int
}

// NewResponder creates a responder. Replies go to the sender's address on
// replyPort, or to the sender's own port when replyPort is zero.
func NewResponder(packet, deviceID string, replyPort int) *Responder {
	return &Responder{packet: []byte(packet), deviceID: deviceID, replyPort: replyPort}
}

// Match reports whether msg is exactly the magic packet.
func (r *Responder) Match(msg []byte) bool {
	return bytes.Equal(msg, r.packet)
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (r *Responder) ListenAndServe(ctx context.Context, addr string) error {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Info().Str("addr", conn.LocalAddr().String()).Msg("UDP discovery responder listening")
	return r.Serve(ctx, conn)
}

// Serve answers packets read from conn until ctx is cancelled. It closes
// conn on return.
func (r *Responder) Serve(ctx context.Context, conn net.PacketConn) error {
	stop := closeOnDone(ctx, conn)
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading discovery packet: %w", err)
		}

		msg := buf[:n]
		log.Debug().Str("from", src.String()).Str("payload", string(msg)).Msg("discovery packet received")
		if !r.Match(msg) {
			log.Info().Str("from", src.String()).Msg("received message is not the expected magic packet")
			continue
		}

		dst := r.replyAddr(src)
		if _, err := conn.WriteTo([]byte(r.deviceID), dst); err != nil {
			log.Error().Err(err).Str("to", dst.String()).Msg("discovery reply failed")
			continue
		}
		log.Info().Str("to", dst.String()).Str("device_id", r.deviceID).Msg("discovery reply sent")
	}
}

func (r *Responder) replyAddr(src net.Addr) net.Addr {
	udp, ok := src.(*net.UDPAddr)
	if !ok || r.replyPort == 0 {
		return src
	}
	return &net.UDPAddr{IP: udp.IP, Port: r.replyPort, Zone: udp.Zone}
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	Packet    string
	Broadcast string
	PortOut   int
	PortIn    int
	Timeout   time.Duration
}

// Scanner broadcasts the magic packet and collects replies.
type Scanner struct {
	cfg ScannerConfig
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Broadcast == "" {
		cfg.Broadcast = "255.255.255.255"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Scanner{cfg: cfg}
}

// Scan binds the reply port, broadcasts once and collects replies until
// the scan timeout elapses.
func (s *Scanner) Scan(ctx context.Context) ([]ScanResult, error) {
	conn, err := net.ListenPacket("udp4", ":"+strconv.Itoa(s.cfg.PortIn))
	if err != nil {
		return nil, fmt.Errorf("binding reply port %d: %w", s.cfg.PortIn, err)
	}
	return s.ScanConn(ctx, conn)
}

// ScanConn is Scan over an already bound connection. It closes conn on
// return.
func (s *Scanner) ScanConn(ctx context.Context, conn net.PacketConn) ([]ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	stop := closeOnDone(ctx, conn)
	defer stop()

	target := &net.UDPAddr{IP: net.ParseIP(s.cfg.Broadcast), Port: s.cfg.PortOut}
	if target.IP == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", s.cfg.Broadcast)
	}
	if _, err := conn.WriteTo([]byte(s.cfg.Packet), target); err != nil {
		return nil, fmt.Errorf("broadcasting discovery packet: %w", err)
	}

	seen := make(map[string]bool)
	results := []ScanResult{}
	buf := make([]byte, maxDatagram)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return results, nil
			}
			return results, fmt.Errorf("reading discovery reply: %w", err)
		}

		result := ScanResult{Address: hostOf(src), Data: hex.EncodeToString(buf[:n])}
		key := result.Address + "/" + result.Data
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, result)
		log.Debug().Str("from", result.Address).Str("data", result.Data).Msg("discovery reply received")
	}
}

func hostOf(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// closeOnDone closes c when ctx is done. The returned func releases the
// watcher without closing c twice.
func closeOnDone(ctx context.Context, c net.PacketConn) func() {
	var once sync.Once
	closeConn := func() { once.Do(func() { _ = c.Close() }) }

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()
	return func() {
		close(done)
		closeConn()
	}
}
