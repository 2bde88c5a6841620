package store

import (
	"encoding/hex"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// Store is a SQLite-backed cubeconnector.PersistentStore, driven by a
// pure-Go sqlite driver (github.com/glebarez/sqlite over
// modernc.org/sqlite) so cubeconnectord stays a single static binary
// with no cgo toolchain dependency.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// migrates its schema. path may be ":memory:" for an ephemeral
// in-process database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&pairingIDRow{}, &pairingMRURow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate pairing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// LoadPairingID implements cubeconnector.PersistentStore.
func (s *Store) LoadPairingID() (cubeconnector.PairingIDRecord, error) {
	record := cubeconnector.NewPairingIDRecord()

	var rows []pairingIDRow
	if err := s.db.Find(&rows).Error; err != nil {
		return record, fmt.Errorf("load pairing id rows: %w", err)
	}

	for _, row := range rows {
		if row.Slot < 0 || row.Slot >= cubeconnector.NumPairings {
			continue
		}
		hwid, err := decodeHWID(row.HWID)
		if err != nil {
			return record, fmt.Errorf("decode hwid for slot %d: %w", row.Slot, err)
		}
		record.HWID[row.Slot] = hwid
	}

	return record, nil
}

// SavePairingID implements cubeconnector.PersistentStore.
func (s *Store) SavePairingID(r cubeconnector.PairingIDRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for slot, hwid := range r.HWID {
			row := pairingIDRow{Slot: slot, HWID: encodeHWID(hwid)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slot"}},
				DoUpdates: clause.AssignmentColumns([]string{"hwid"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("upsert pairing id slot %d: %w", slot, err)
			}
		}
		return nil
	})
}

// LoadPairingMRU implements cubeconnector.PersistentStore.
func (s *Store) LoadPairingMRU() (cubeconnector.PairingMRURecord, error) {
	var row pairingMRURow
	err := s.db.First(&row, mruSingletonID).Error
	switch {
	case err == nil:
		return decodeMRU(row.Rank), nil
	case err == gorm.ErrRecordNotFound:
		return cubeconnector.NewPairingMRURecord(), nil
	default:
		return cubeconnector.PairingMRURecord{}, fmt.Errorf("load pairing mru: %w", err)
	}
}

// SavePairingMRU implements cubeconnector.PersistentStore.
func (s *Store) SavePairingMRU(r cubeconnector.PairingMRURecord) error {
	row := pairingMRURow{ID: mruSingletonID, Rank: encodeMRU(r)}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank"}),
	}).Create(&row).Error
}

// DeleteCube implements cubeconnector.PersistentStore.
func (s *Store) DeleteCube(idx int) error {
	err := s.db.Delete(&pairingIDRow{}, "slot = ?", idx).Error
	if err != nil {
		return fmt.Errorf("delete cube slot %d: %w", idx, err)
	}
	return nil
}

func encodeHWID(h cubeconnector.HWID) string {
	return hex.EncodeToString(h[:])
}

func decodeHWID(s string) (cubeconnector.HWID, error) {
	var h cubeconnector.HWID
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != cubeconnector.HWIDLen {
		return h, fmt.Errorf("hwid %q decodes to %d bytes, want %d", s, len(b), cubeconnector.HWIDLen)
	}
	copy(h[:], b)
	return h, nil
}

func encodeMRU(r cubeconnector.PairingMRURecord) []byte {
	return append([]byte(nil), r.Rank[:]...)
}

func decodeMRU(raw []byte) cubeconnector.PairingMRURecord {
	if len(raw) != cubeconnector.NumPairings {
		return cubeconnector.NewPairingMRURecord()
	}
	var r cubeconnector.PairingMRURecord
	copy(r.Rank[:], raw)
	return r
}
