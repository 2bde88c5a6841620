package cubeconnector

// newCubeRecord picks a victim pairing slot for a freshly-verified cube
// and sets cubeRecord accordingly (spec section 4.2).
//
// Scanning savedPairingMRU.rank from least to most recently used, the
// first slot whose cube isn't currently connected is recycled: it's
// queued for persistent deletion, its HWID is overwritten with the
// transient one, and both changes are flagged for the deferred task.
//
// If every slot is currently connected, cubeRecord is still set (to an
// arbitrary slot's key) without touching hwid[] — per spec section 9's
// Design Note, this is deliberate: the pairing will fail later (the
// eventual HopConfirm will hand off a stale record key) rather than the
// core asserting or silently corrupting state.
func (c *Connector) newCubeRecord() {
	index := c.savedPairingMRU.Rank[NumPairings-1]

	for i := NumPairings - 1; i >= 0; i-- {
		index = c.savedPairingMRU.Rank[i]
		if !c.cubes.PairConnected(int(index)) {
			c.recycleQueue.atomicMark(uint(index))
			c.taskWork.atomicMark(taskRecyclePairings)
			c.triggerTask()
			c.metrics.CubePairingRecycled()

			c.savedPairingID.HWID[index] = c.hwid
			c.taskWork.atomicMark(taskSavePairingID)
			c.triggerTask()

			break
		}
	}

	c.cubeRecord = cubeRecordKey(int(index))
}
