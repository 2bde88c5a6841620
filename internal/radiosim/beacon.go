package radiosim

import (
	"context"
	"encoding/binary"
	"sync"
	"time"
)

// BeaconSender is the datagram sink a NeighborBeacon broadcasts on.
// *UDPConn satisfies this with the same Send method it uses as a
// PacketConn.
type BeaconSender interface {
	Send(payload []byte) error
}

// NeighborBeacon is a UDP stand-in for the short-range neighbor-key
// side-channel beacon hardware, implementing
// cubeconnector.NeighborTransmitter. Every Start call replaces whatever
// pattern is currently being broadcast, mirroring real beacon hardware
// where there is only ever one active transmission.
type NeighborBeacon struct {
	sender   BeaconSender
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewNeighborBeacon constructs a beacon that re-sends its current
// pattern every interval.
func NewNeighborBeacon(sender BeaconSender, interval time.Duration) *NeighborBeacon {
	return &NeighborBeacon{sender: sender, interval: interval}
}

// Start implements cubeconnector.NeighborTransmitter.
func (b *NeighborBeacon) Start(idPattern, mask uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.loop(ctx, idPattern, mask)
}

// Stop halts the beacon, if one is running.
func (b *NeighborBeacon) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *NeighborBeacon) loop(ctx context.Context, idPattern, mask uint16) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], idPattern)
	binary.BigEndian.PutUint16(buf[2:4], mask)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = b.sender.Send(buf)
		}
	}
}
