// Package store provides SQLite-backed and in-memory implementations of
// cubeconnector.PersistentStore, grounded on the repository pattern (a
// thin struct wrapping *gorm.DB, one method per access path).
package store

// pairingIDRow is one slot of the persistent PairingIDRecord. A slot
// with no row is treated as unused (InvalidHWID); DeleteCube removes
// the row rather than writing a sentinel value.
type pairingIDRow struct {
	Slot int    `gorm:"primaryKey;column:slot"`
	HWID string `gorm:"column:hwid;size:16;not null"`
}

func (pairingIDRow) TableName() string { return "pairing_ids" }

// pairingMRURow is the single-row persistent PairingMRURecord. ID is
// always 1: there is exactly one MRU ranking for the whole pairing
// table.
type pairingMRURow struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Rank []byte `gorm:"column:rank;type:blob;not null"`
}

func (pairingMRURow) TableName() string { return "pairing_mru" }

const mruSingletonID = 1
