package cubeconnector

import "errors"

// ErrRingFull is returned by ring.enqueue when the FIFO is already at
// RadioFIFODepth: the radio transport asked for more outstanding
// packets than its own budget allows, which should never happen if the
// transport honors that budget.
var ErrRingFull = errors.New("cubeconnector: rxState ring buffer full")

// ring is the FIFO of "in-flight" states: one entry per packet the
// radio transport has been asked to send but has not yet resolved with
// an ack, empty-ack, or timeout (spec section 4.1). Depth is bounded by
// RadioFIFODepth, matching the radio's outstanding-packet budget.
type ring struct {
	buf   [RadioFIFODepth]State
	head  int
	count int
}

// len returns the number of outstanding entries.
func (r *ring) len() int {
	return r.count
}

// enqueue appends s as the newest outstanding state.
func (r *ring) enqueue(s State) error {
	if r.count == RadioFIFODepth {
		return ErrRingFull
	}
	tail := (r.head + r.count) % RadioFIFODepth
	r.buf[tail] = s
	r.count++
	return nil
}

// dequeue removes and returns the oldest outstanding state. ok is false
// if the ring is empty, which would indicate the transport delivered an
// ack/timeout without a matching produce — a transport bug, not a
// protocol condition the core needs to recover from.
func (r *ring) dequeue() (s State, ok bool) {
	if r.count == 0 {
		return 0, false
	}
	s = r.buf[r.head]
	r.head = (r.head + 1) % RadioFIFODepth
	r.count--
	return s, true
}
