// Package radiosim provides a UDP-based stand-in for the nRF24L01-class
// radio link cubeconnector.Connector expects a transport to drive it
// over, plus a UDP stand-in for the short-range neighbor-key beacon.
// Neither the real radio hardware nor the real beacon hardware is in
// scope for this module; this package exists for local simulation,
// demos, and integration tests.
package radiosim

import (
	"context"
	"log/slog"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// PacketConn is the minimal datagram transport Host drives the
// connector over: send the next outbound packet, then block for the
// next inbound one (or ctx's deadline, standing in for a hardware ACK
// timeout).
type PacketConn interface {
	Send(payload []byte) error
	Recv(ctx context.Context) ([]byte, error)
}

// WithDeadline derives a child context carrying the per-attempt ACK
// deadline from a parent. Host takes this as a function rather than a
// fixed duration so tests can inject a deterministic deadline instead
// of a real wall-clock timeout.
type WithDeadline func(parent context.Context) (context.Context, context.CancelFunc)

// Host drives a single cubeconnector.Connector from one PacketConn,
// implementing the produce/ack/timeout cycle the connector's contract
// requires (spec section 5: "single goroutine drives Produce/
// Acknowledge/Timeout/EmptyAcknowledge").
type Host struct {
	conn        PacketConn
	connector   *cubeconnector.Connector
	logger      *slog.Logger
	withTimeout WithDeadline
}

// NewHost constructs a Host.
func NewHost(conn PacketConn, connector *cubeconnector.Connector, logger *slog.Logger, withTimeout WithDeadline) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		conn:        conn,
		connector:   connector,
		logger:      logger.With(slog.String("component", "radiosim.host")),
		withTimeout: withTimeout,
	}
}

// Run beacons continuously until ctx is cancelled, performing one
// produce/send/receive/ack-or-timeout cycle per iteration.
func (h *Host) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		h.beaconOnce(ctx)
	}
	return ctx.Err()
}

// beaconOnce performs a single produce/send/receive cycle. A nil
// tx.Dest or zero-length packet skips the send/receive round; Produce
// never actually leaves Dest nil, but a defensive transport shouldn't
// assume that.
func (h *Host) beaconOnce(ctx context.Context) {
	var tx cubeconnector.PacketTransmission
	h.connector.Produce(&tx)
	if tx.Dest == nil || tx.Packet.Len == 0 {
		return
	}

	payload := append([]byte(nil), tx.Packet.Bytes[:tx.Packet.Len]...)
	if err := h.conn.Send(payload); err != nil {
		h.logger.Warn("send failed", slog.String("error", err.Error()))
		return
	}

	recvCtx, cancel := h.withTimeout(ctx)
	defer cancel()

	raw, err := h.conn.Recv(recvCtx)
	if err != nil {
		h.connector.Timeout()
		return
	}
	if len(raw) == 0 {
		h.connector.EmptyAcknowledge()
		return
	}

	var pkt cubeconnector.PacketBuffer
	n := len(raw)
	if n > len(pkt.Bytes) {
		n = len(pkt.Bytes)
	}
	pkt.Len = uint8(n)
	copy(pkt.Bytes[:n], raw[:n])
	h.connector.Acknowledge(pkt)
}
