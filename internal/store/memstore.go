package store

import (
	"sync"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// MemStore is an in-memory cubeconnector.PersistentStore, for local
// demos and tests that don't want a database file on disk.
type MemStore struct {
	mu  sync.Mutex
	id  cubeconnector.PairingIDRecord
	mru cubeconnector.PairingMRURecord
}

// NewMemStore returns a MemStore with no known pairings and the
// identity MRU permutation.
func NewMemStore() *MemStore {
	return &MemStore{
		id:  cubeconnector.NewPairingIDRecord(),
		mru: cubeconnector.NewPairingMRURecord(),
	}
}

// LoadPairingID implements cubeconnector.PersistentStore.
func (m *MemStore) LoadPairingID() (cubeconnector.PairingIDRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

// SavePairingID implements cubeconnector.PersistentStore.
func (m *MemStore) SavePairingID(r cubeconnector.PairingIDRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = r
	return nil
}

// LoadPairingMRU implements cubeconnector.PersistentStore.
func (m *MemStore) LoadPairingMRU() (cubeconnector.PairingMRURecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mru, nil
}

// SavePairingMRU implements cubeconnector.PersistentStore.
func (m *MemStore) SavePairingMRU(r cubeconnector.PairingMRURecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mru = r
	return nil
}

// DeleteCube implements cubeconnector.PersistentStore.
func (m *MemStore) DeleteCube(idx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 0 || idx >= cubeconnector.NumPairings {
		return nil
	}
	m.id.HWID[idx] = cubeconnector.InvalidHWID
	return nil
}
