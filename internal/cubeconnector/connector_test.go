package cubeconnector_test

import (
	"testing"

	"github.com/sifteo/cubeconnectord/internal/cubeconnector"
)

// fixedPRNG returns a fixed UintN result for every draw, enough to drive
// deterministic tests that don't exercise the random address factory.
type fixedPRNG struct{ n uint32 }

func (p fixedPRNG) Uint32() uint32        { return p.n }
func (p fixedPRNG) UintN(n uint32) uint32 { return p.n % n }
func (p fixedPRNG) CollectTimingEntropy() {}

type noopNeighbor struct{}

func (noopNeighbor) Start(uint16, uint16) {}

// fakeCubeSlots is an in-memory stand-in for the runtime cube-slot
// contract, enough to drive Connector through a full pairing/reconnect
// cycle.
type fakeCubeSlots struct {
	available uint32
	pairConn  map[int]bool
	connects  []connectCall
}

type connectCall struct {
	cubeID uint8
	key    cubeconnector.RecordKey
	addr   cubeconnector.RadioAddress
}

func newFakeCubeSlots() *fakeCubeSlots {
	return &fakeCubeSlots{
		available: 0xFF,
		pairConn:  make(map[int]bool),
	}
}

func (f *fakeCubeSlots) AvailableSlots() uint32 { return f.available }

func (f *fakeCubeSlots) PairConnected(pairingSlot int) bool { return f.pairConn[pairingSlot] }

func (f *fakeCubeSlots) SlotAvailable(cubeID uint8) bool {
	return f.available&(1<<cubeID) != 0
}

func (f *fakeCubeSlots) Connect(cubeID uint8, key cubeconnector.RecordKey, connAddr cubeconnector.RadioAddress, ack cubeconnector.PacketBuffer) {
	f.available &^= 1 << cubeID
	f.connects = append(f.connects, connectCall{cubeID: cubeID, key: key, addr: connAddr})
}

// fakeStore is an in-memory PersistentStore.
type fakeStore struct {
	id      cubeconnector.PairingIDRecord
	mru     cubeconnector.PairingMRURecord
	deleted []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		id:  cubeconnector.NewPairingIDRecord(),
		mru: cubeconnector.NewPairingMRURecord(),
	}
}

func (s *fakeStore) LoadPairingID() (cubeconnector.PairingIDRecord, error) { return s.id, nil }
func (s *fakeStore) SavePairingID(r cubeconnector.PairingIDRecord) error   { s.id = r; return nil }

func (s *fakeStore) LoadPairingMRU() (cubeconnector.PairingMRURecord, error) { return s.mru, nil }
func (s *fakeStore) SavePairingMRU(r cubeconnector.PairingMRURecord) error   { s.mru = r; return nil }

func (s *fakeStore) DeleteCube(idx int) error {
	s.deleted = append(s.deleted, idx)
	return nil
}

func packetWithHWID(h cubeconnector.HWID) cubeconnector.PacketBuffer {
	var p cubeconnector.PacketBuffer
	p.Len = cubeconnector.HWIDLen
	copy(p.Bytes[:cubeconnector.HWIDLen], h[:])
	return p
}

func newTestConnector(t *testing.T) (*cubeconnector.Connector, *fakeCubeSlots, *fakeStore) {
	t.Helper()

	cubes := newFakeCubeSlots()
	store := newFakeStore()
	c, err := cubeconnector.New(nil, fixedPRNG{n: 1}, noopNeighbor{}, cubes, store, cubeconnector.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, cubes, store
}

// TestFreshPairingReachesConnected drives a brand-new cube (no prior
// pairing record) through first contact, every verify round, the hop,
// and HopConfirm, and checks the cube ends up connected.
func TestFreshPairingReachesConnected(t *testing.T) {
	t.Parallel()

	c, cubes, _ := newTestConnector(t)
	hwid := cubeconnector.HWID{1, 2, 3, 4, 5, 6, 7, 8}

	var tx cubeconnector.PacketTransmission

	if got := c.State(); got != cubeconnector.PairingFirstContact {
		t.Fatalf("initial state = %v, want PairingFirstContact", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.PairingFirstVerify {
		t.Fatalf("after first-contact ack, state = %v, want PairingFirstVerify", got)
	}

	for i := 0; i < cubeconnector.NumVerifyStates; i++ {
		c.Produce(&tx)
		c.Acknowledge(packetWithHWID(hwid))
	}
	if got := c.State(); got != cubeconnector.PairingBeginHop {
		t.Fatalf("after verify round, state = %v, want PairingBeginHop", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.HopConfirm {
		t.Fatalf("after hop ack, state = %v, want HopConfirm", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.PairingFirstContact {
		t.Fatalf("after HopConfirm ack, state = %v, want PairingFirstContact", got)
	}

	if len(cubes.connects) != 1 {
		t.Fatalf("Connect called %d times, want 1", len(cubes.connects))
	}
}

// TestVerifyMismatchRestartsPairing checks that an ack reporting a
// different HWID mid-verify drops the attempt back to first contact
// instead of proceeding as if the same cube replied.
func TestVerifyMismatchRestartsPairing(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConnector(t)
	hwid := cubeconnector.HWID{1, 1, 1, 1, 1, 1, 1, 1}
	other := cubeconnector.HWID{2, 2, 2, 2, 2, 2, 2, 2}

	var tx cubeconnector.PacketTransmission
	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.PairingFirstVerify {
		t.Fatalf("state = %v, want PairingFirstVerify", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(other))
	if got := c.State(); got != cubeconnector.PairingFirstContact {
		t.Fatalf("state after mismatched verify ack = %v, want PairingFirstContact", got)
	}
}

// TestTimeoutDuringHopFallsThroughToHopConfirm checks that losing the
// hop-directive ack doesn't strand the attempt: the connector still
// checks for the cube on the new address via HopConfirm (spec section 7).
func TestTimeoutDuringHopFallsThroughToHopConfirm(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConnector(t)
	hwid := cubeconnector.HWID{3, 3, 3, 3, 3, 3, 3, 3}

	var tx cubeconnector.PacketTransmission
	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	for i := 0; i < cubeconnector.NumVerifyStates; i++ {
		c.Produce(&tx)
		c.Acknowledge(packetWithHWID(hwid))
	}
	if got := c.State(); got != cubeconnector.PairingBeginHop {
		t.Fatalf("state = %v, want PairingBeginHop", got)
	}

	c.Produce(&tx) // sends hop directive
	c.Timeout()
	if got := c.State(); got != cubeconnector.HopConfirm {
		t.Fatalf("state after hop timeout = %v, want HopConfirm", got)
	}
}

// TestReconnectFlowConnectsKnownCube seeds a persistent pairing record
// for a known HWID (simulating a prior successful pairing), then drives
// the reconnect path end to end.
func TestReconnectFlowConnectsKnownCube(t *testing.T) {
	t.Parallel()

	cubes := newFakeCubeSlots()
	store := newFakeStore()
	hwid := cubeconnector.HWID{9, 9, 9, 9, 9, 9, 9, 9}
	store.id.HWID[0] = hwid

	c, err := cubeconnector.New(nil, fixedPRNG{n: 1}, noopNeighbor{}, cubes, store, cubeconnector.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var tx cubeconnector.PacketTransmission
	// First PairingFirstContact produce populates the reconnect queue
	// from the persisted record; losing its ack (Timeout) is what moves
	// the state machine into ReconnectFirstContact (spec section 4.1,
	// Timeout contract default row), at which point the next produce
	// drains the reconnect queue instead of beaconing a pairing ping.
	c.Produce(&tx)
	c.Timeout()
	if got := c.State(); got != cubeconnector.ReconnectFirstContact {
		t.Fatalf("state after timeout = %v, want ReconnectFirstContact", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.ReconnectBeginHop {
		t.Fatalf("state = %v, want ReconnectBeginHop", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.HopConfirm {
		t.Fatalf("state = %v, want HopConfirm", got)
	}

	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	if got := c.State(); got != cubeconnector.PairingFirstContact {
		t.Fatalf("state = %v, want PairingFirstContact", got)
	}

	if len(cubes.connects) != 1 {
		t.Fatalf("Connect called %d times, want 1", len(cubes.connects))
	}
}

// TestDisableReconnectOptionStarvesReconnectQueue checks the
// Options.DisableReconnect escape hatch: popReconnectQueue must report
// empty even with a populated, otherwise-eligible queue.
func TestDisableReconnectOptionStarvesReconnectQueue(t *testing.T) {
	t.Parallel()

	cubes := newFakeCubeSlots()
	store := newFakeStore()
	hwid := cubeconnector.HWID{4, 4, 4, 4, 4, 4, 4, 4}
	store.id.HWID[0] = hwid

	c, err := cubeconnector.New(nil, fixedPRNG{n: 1}, noopNeighbor{}, cubes, store, cubeconnector.Options{DisableReconnect: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var tx cubeconnector.PacketTransmission
	c.Produce(&tx)
	c.Timeout()
	if got := c.State(); got != cubeconnector.ReconnectFirstContact {
		t.Fatalf("state after timeout = %v, want ReconnectFirstContact", got)
	}

	// With reconnect disabled, the ReconnectFirstContact produce path
	// must fall through to a pairing beacon instead of draining the
	// (non-empty) reconnect queue.
	c.Produce(&tx)
	if got := c.State(); got != cubeconnector.ReconnectFirstContact {
		t.Fatalf("state = %v, want ReconnectFirstContact (produce fallback doesn't change txState)", got)
	}
}

// TestNoCubeSlotAvailableKeepsRetryingHop checks the PairingBeginHop
// produce-path fallback when every runtime cube slot is occupied: the
// packet sent falls back to a first-contact ping, but the state machine
// stays in PairingBeginHop so it keeps retrying newCubeRecord/
// chooseConnectionAddr on every subsequent beacon.
func TestNoCubeSlotAvailableKeepsRetryingHop(t *testing.T) {
	t.Parallel()

	c, cubes, _ := newTestConnector(t)
	cubes.available = 0
	hwid := cubeconnector.HWID{7, 7, 7, 7, 7, 7, 7, 7}

	var tx cubeconnector.PacketTransmission
	c.Produce(&tx)
	c.Acknowledge(packetWithHWID(hwid))
	for i := 0; i < cubeconnector.NumVerifyStates; i++ {
		c.Produce(&tx)
		c.Acknowledge(packetWithHWID(hwid))
	}
	if got := c.State(); got != cubeconnector.PairingBeginHop {
		t.Fatalf("state = %v, want PairingBeginHop", got)
	}

	c.Produce(&tx)
	if got := c.State(); got != cubeconnector.PairingBeginHop {
		t.Fatalf("state with no cube slot available = %v, want PairingBeginHop (retries next beacon)", got)
	}
}
