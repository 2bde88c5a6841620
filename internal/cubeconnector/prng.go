package cubeconnector

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"time"
)

// PRNG is the pseudo-random source the address factory and neighbor-key
// rotator draw from. PRNG seeding, and the exact entropy source, are
// explicitly out of scope for the core protocol (spec section 1,
// Non-goals) — this is the consumed contract a deployment supplies.
type PRNG interface {
	// Uint32 returns a uniformly distributed 32-bit value.
	Uint32() uint32

	// UintN returns a uniformly distributed value in [0, n). Panics if
	// n == 0.
	UintN(n uint32) uint32

	// CollectTimingEntropy folds in whatever timing jitter is available
	// (e.g. the current monotonic clock reading) before the next draw,
	// mirroring PRNG::collectTimingEntropy in the original firmware.
	CollectTimingEntropy()
}

// SystemPRNG is the default PRNG: a math/rand/v2 generator reseeded from
// crypto/rand at construction (hard to guess at boot, same as the
// teacher's DiscriminatorAllocator uses crypto/rand for values that
// matter), and perturbed by CollectTimingEntropy thereafter using
// math/rand/v2 (fast, merely needs good distribution, same case as the
// teacher's retransmission jitter in internal/bfd/session.go).
type SystemPRNG struct {
	r *mrand.Rand
}

// NewSystemPRNG constructs a SystemPRNG seeded from crypto/rand.
func NewSystemPRNG() *SystemPRNG {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failure is not recoverable in a way that matters
		// here: the cleartext pairing protocol (spec section 9) has no
		// security property riding on this seed, so fall back to a
		// time-derived seed rather than failing the whole connector.
		binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	}
	s1 := binary.LittleEndian.Uint64(seed[0:8])
	s2 := binary.LittleEndian.Uint64(seed[8:16])
	return &SystemPRNG{r: mrand.New(mrand.NewPCG(s1, s2))}
}

// Uint32 implements PRNG.
func (p *SystemPRNG) Uint32() uint32 {
	return p.r.Uint32()
}

// UintN implements PRNG.
func (p *SystemPRNG) UintN(n uint32) uint32 {
	return uint32(p.r.IntN(int(n))) //nolint:gosec // G404: pairing is cleartext by design, see spec section 9.
}

// CollectTimingEntropy implements PRNG.
func (p *SystemPRNG) CollectTimingEntropy() {
	p.r.Uint64() // stir the generator; real entropy quality isn't required, see spec section 1 Non-goals.
}
