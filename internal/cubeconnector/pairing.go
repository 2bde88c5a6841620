package cubeconnector

// PairingIDRecord is the persistent array of known cube HWIDs, indexed
// by pairing slot (spec section 3). Every entry is either InvalidHWID
// or a valid 8-byte HWID.
type PairingIDRecord struct {
	HWID [NumPairings]HWID
}

// NewPairingIDRecord returns a record with every slot marked unused.
func NewPairingIDRecord() PairingIDRecord {
	var r PairingIDRecord
	for i := range r.HWID {
		r.HWID[i] = InvalidHWID
	}
	return r
}

// PairingMRURecord is the persistent most-recently-used ranking over
// pairing slots: rank[0] is the most recently used slot, rank[N-1] the
// least (spec section 3). rank is always a permutation of
// 0..NumPairings.
type PairingMRURecord struct {
	Rank [NumPairings]uint8
}

// NewPairingMRURecord returns the identity permutation.
func NewPairingMRURecord() PairingMRURecord {
	var r PairingMRURecord
	for i := range r.Rank {
		r.Rank[i] = uint8(i)
	}
	return r
}

// access moves slot to rank position 0, shifting the displaced prefix
// down by one. Returns true iff the permutation actually changed (slot
// was not already at rank 0) — spec section 3 and the testable property
// in section 8.
func (m *PairingMRURecord) access(slot uint8) bool {
	pos := -1
	for i, s := range m.Rank {
		if s == slot {
			pos = i
			break
		}
	}
	// pos == 0: already MRU, no change. pos == -1 should not occur for a
	// valid permutation; treat as a no-op rather than panic, since this
	// is reached from ack-handling code that must never raise (spec
	// section 7).
	if pos <= 0 {
		return false
	}

	copy(m.Rank[1:pos+1], m.Rank[0:pos])
	m.Rank[0] = slot
	return true
}
