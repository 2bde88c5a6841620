package cubeconnector

// NeighborTransmitter is the short-range side-channel beacon hardware
// contract (spec section 6, "Neighbor transmitter contract"). It is out
// of scope for this module (spec section 1) and supplied by the
// deployment; internal/radiosim provides a UDP-based stand-in for
// local simulation and tests.
type NeighborTransmitter interface {
	// Start begins a continuous beacon encoding idPattern, with the
	// given mask applied by the hardware (spec section 6: "start(idPattern16, mask)").
	Start(idPattern uint16, mask uint16)
}

// invalidNeighborKey marks that no neighbor key has been chosen yet
// (boot state, spec section 4.4: "When the current key is invalid
// (initial boot)").
const invalidNeighborKey = 0xFF

// setNeighborKey activates neighbor key k: starts the side-channel
// beacon with the corresponding ID pattern and retunes the pairing
// address to the matching channel (spec section 4.4).
func (c *Connector) setNeighborKey(k uint8) {
	c.neighborKey = k

	idByte := uint16(FirstMasterID) + uint16(k)
	pattern := (idByte << 8) | (uint16(^uint8(idByte)) << 3 & 0xFF)
	c.neighbor.Start(pattern, 0xFFFF)

	c.pairingAddr.Channel = RFPairingChannels[k]
}

// nextNeighborKey chooses a new neighbor key, uniformly at random,
// excluding the current key if it is currently valid (spec section 4.4).
// It folds in timing entropy first, matching the original firmware's
// "entropy from the current time ... and all previous calls to this
// same function".
func (c *Connector) nextNeighborKey() {
	c.prng.CollectTimingEntropy()

	var newKey uint32
	if c.neighborKey < NumMasterID {
		newKey = c.prng.UintN(NumMasterID - 1)
		if newKey >= uint32(c.neighborKey) {
			newKey++
		}
	} else {
		newKey = c.prng.UintN(NumMasterID - 1)
	}

	c.setNeighborKey(uint8(newKey))
}
