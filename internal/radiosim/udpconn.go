package radiosim

import (
	"context"
	"fmt"
	"net"
	"time"
)

// maxDatagramSize is large enough for the radio's 32-byte payload
// maximum with headroom; a real nRF24 link never sends more.
const maxDatagramSize = 64

// UDPConn is the production PacketConn: a UDP socket bound to localAddr,
// talking to a single fixed peer (there is exactly one cube a Connector
// attempt is ever negotiating with at a time).
type UDPConn struct {
	conn *net.UDPConn
	peer *net.UDPAddr
}

// DialUDP opens a UDP socket at localAddr and targets every Send at
// peerAddr.
func DialUDP(localAddr, peerAddr string) (*UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local addr %s: %w", localAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", localAddr, err)
	}

	peer, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolve peer addr %s: %w", peerAddr, err)
	}

	return &UDPConn{conn: conn, peer: peer}, nil
}

// Send implements PacketConn and BeaconSender.
func (u *UDPConn) Send(payload []byte) error {
	if _, err := u.conn.WriteToUDP(payload, u.peer); err != nil {
		return fmt.Errorf("send to %s: %w", u.peer, err)
	}
	return nil
}

// Recv implements PacketConn, honoring ctx's deadline as the socket's
// read deadline.
func (u *UDPConn) Recv(ctx context.Context) ([]byte, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := u.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	buf := make([]byte, maxDatagramSize)
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, fmt.Errorf("recv: %w", err)
	}
	return buf[:n], nil
}

// Close closes the underlying socket.
func (u *UDPConn) Close() error {
	if err := u.conn.Close(); err != nil {
		return fmt.Errorf("close udp conn: %w", err)
	}
	return nil
}

// LocalAddr returns the socket's bound address, useful when localAddr
// was given with an ephemeral port (":0").
func (u *UDPConn) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// SetPeer re-targets Send at a new peer address, for callers that
// learn the peer's ephemeral port only after it has dialed in.
func (u *UDPConn) SetPeer(peerAddr string) error {
	peer, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return fmt.Errorf("resolve peer addr %s: %w", peerAddr, err)
	}
	u.peer = peer
	return nil
}

// DeadlineAfter returns a WithDeadline that caps every ACK wait at d,
// the UDP stand-in for the radio transport's hardware retry budget.
func DeadlineAfter(d time.Duration) WithDeadline {
	return func(parent context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(parent, d)
	}
}
