package cubeconnector

// PersistentStore is the filesystem contract (spec section 6,
// "Persistent store contract"), out of scope for this module (spec
// section 1) and supplied by the deployment. internal/store provides a
// SQLite-backed implementation and an in-memory one for tests.
type PersistentStore interface {
	// LoadPairingID reads the persisted PairingIDRecord, or the
	// all-InvalidHWID sentinel record (NewPairingIDRecord) if none has
	// been saved yet.
	LoadPairingID() (PairingIDRecord, error)

	// SavePairingID persists a PairingIDRecord (spec section 6: key
	// kPairingID).
	SavePairingID(PairingIDRecord) error

	// LoadPairingMRU reads the persisted PairingMRURecord, or the
	// identity permutation if none has been saved yet.
	LoadPairingMRU() (PairingMRURecord, error)

	// SavePairingMRU persists a PairingMRURecord (spec section 6: key
	// kPairingMRU).
	SavePairingMRU(PairingMRURecord) error

	// DeleteCube removes the persistent per-cube record for pairing
	// slot idx (spec section 6: key kCubeBase + slot).
	DeleteCube(idx int) error
}
