// Package cubeslot provides an in-memory stand-in for the per-cube
// runtime (the actual game-facing connection object a verified cube
// hands off to), implementing cubeconnector.CubeSlots. The real runtime
// is out of this module's scope; this is enough to drive
// cmd/cubeconnectord demos and integration tests end to end.
package cubeslot

import (
	"sync"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// Connection records what Connect last handed off to one runtime cube
// slot.
type Connection struct {
	Key     cubeconnector.RecordKey
	Addr    cubeconnector.RadioAddress
	Ack     cubeconnector.PacketBuffer
	Connect bool
}

// Manager is a fixed-size pool of cube slots, each either free or
// occupied by a Connection.
type Manager struct {
	mu          sync.Mutex
	available   uint32
	connections [cubeconnector.NumCubeSlots]Connection
	pairConn    map[int]bool
}

// NewManager returns a Manager with every cube slot free.
func NewManager() *Manager {
	return &Manager{
		available: 1<<cubeconnector.NumCubeSlots - 1,
		pairConn:  make(map[int]bool),
	}
}

// AvailableSlots implements cubeconnector.CubeSlots.
func (m *Manager) AvailableSlots() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// PairConnected implements cubeconnector.CubeSlots.
func (m *Manager) PairConnected(pairingSlot int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairConn[pairingSlot]
}

// SlotAvailable implements cubeconnector.CubeSlots.
func (m *Manager) SlotAvailable(cubeID uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available&(1<<cubeID) != 0
}

// Connect implements cubeconnector.CubeSlots. It marks cubeID occupied
// and records the handoff so tests and the demo CLI can observe it.
func (m *Manager) Connect(cubeID uint8, key cubeconnector.RecordKey, connAddr cubeconnector.RadioAddress, ack cubeconnector.PacketBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.available &^= 1 << cubeID
	m.connections[cubeID] = Connection{Key: key, Addr: connAddr, Ack: ack, Connect: true}
	m.pairConn[key.PairingSlot()] = true
}

// Disconnect frees cubeID back up for a new pairing, the counterpart a
// real runtime slot would call when a cube drops off the radio link.
func (m *Manager) Disconnect(cubeID uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn := m.connections[cubeID]
	if conn.Connect {
		delete(m.pairConn, conn.Key.PairingSlot())
	}
	m.connections[cubeID] = Connection{}
	m.available |= 1 << cubeID
}

// ConnectionAt returns the current occupant of cubeID, if any.
func (m *Manager) ConnectionAt(cubeID uint8) (Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn := m.connections[cubeID]
	return conn, conn.Connect
}
