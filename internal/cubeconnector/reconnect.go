package cubeconnector

// refillReconnectQueue establishes a new round-robin schedule: every
// pairing slot with a plausibly valid HWID whose cube isn't currently
// connected becomes a candidate (spec section 4.3). Called each time
// the state machine returns to PairingFirstContact.
func (c *Connector) refillReconnectQueue() {
	for i := 0; i < NumPairings; i++ {
		if c.cubes.PairConnected(i) {
			continue
		}
		if c.savedPairingID.HWID[i] == InvalidHWID {
			continue
		}
		c.reconnectQueue.mark(uint(i))
	}
}

// popReconnectQueue extracts the next reconnectable cube, loading its
// HWID into the transient state and deriving its reconnectAddr (spec
// section 4.3). Returns ok=false if the queue is empty.
func (c *Connector) popReconnectQueue() bool {
	if c.opts.DisableReconnect {
		// SIFTEO_SIMULATOR / opt_noCubeReconnect escape hatch (see
		// SPEC_FULL.md, "Supplemented Features"): lets integration tests
		// exercise pure-pairing scenarios undisturbed by a populated
		// reconnect queue.
		return false
	}

	index, ok := c.reconnectQueue.clearFirst()
	if !ok {
		return false
	}

	c.hwid = c.savedPairingID.HWID[index]
	fromHardwareID(c.hwid, &c.reconnectAddr)
	c.cubeRecord = cubeRecordKey(int(index))

	return true
}
