package cubeconnector

import "math/bits"

// chooseConnectionAddr picks a fresh random connection channel and
// address, and selects the lowest-indexed available runtime cube slot
// (spec section 4.5). Returns false if no cube slot is currently
// available, in which case connectionAddr/cubeID are left unchanged.
func (c *Connector) chooseConnectionAddr() bool {
	c.prng.CollectTimingEntropy()
	randomAddress(c.prng, &c.connectionAddr)

	available := c.cubes.AvailableSlots()
	if available == 0 {
		return false
	}

	// Lowest-indexed available slot: count trailing zeros of the
	// availability bitset (bit i set means cube slot i is free).
	c.cubeID = uint8(bits.TrailingZeros32(available))
	return true
}
