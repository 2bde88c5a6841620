package cubeconnector

// RecordKey identifies a persistent per-cube record, derived from a
// pairing slot index (spec section 6: "per-cube record keys derived as
// kCubeBase + slot"). It is handed to CubeSlots.Connect so the runtime
// slot knows which persistent record backs the connection it just
// received.
type RecordKey int

// keyCubeBase is an arbitrary offset keeping cube-record keys from
// colliding with the well-known kPairingID/kPairingMRU keys in
// internal/store.
const keyCubeBase RecordKey = 0x1000

// cubeRecordKey derives the persistent record key for pairing slot idx.
func cubeRecordKey(idx int) RecordKey {
	return keyCubeBase + RecordKey(idx)
}

// PairingSlot extracts the pairing slot index a RecordKey was derived
// from.
func (k RecordKey) PairingSlot() int {
	return int(k - keyCubeBase)
}

// CubeSlots is the per-cube runtime contract (spec section 6,
// "Cube-slot contract"), out of scope for this module (spec section 1)
// and supplied by the deployment. internal/cubeslot provides an
// in-memory stand-in used by cmd/cubeconnectord and by tests.
type CubeSlots interface {
	// AvailableSlots returns a bitset of runtime cube-slot IDs with no
	// connection currently occupying them.
	AvailableSlots() uint32

	// PairConnected reports whether the cube bound to pairing slot idx
	// is currently connected. Note: idx is a *pairing* slot index, not a
	// cube slot ID (spec section 4.3: "the cube at slot i is not
	// currently connected").
	PairConnected(pairingSlot int) bool

	// SlotAvailable reports whether runtime cube slot id is still free,
	// re-checked at HopConfirm since time has passed since it was chosen
	// (spec section 4.1: "if the target cube slot is still available").
	SlotAvailable(cubeID uint8) bool

	// Connect hands a freshly-verified connection off to runtime cube
	// slot id (spec section 4.1, HopConfirm).
	Connect(cubeID uint8, key RecordKey, connAddr RadioAddress, ack PacketBuffer)
}
