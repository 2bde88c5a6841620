package cubeconnector

import (
	"encoding/hex"
	"log/slog"
)

// pairingAddressID is the well-known identifier of pairingAddr. Its
// channel is not fixed: setNeighborKey retunes it on every neighbor-key
// change, and New does so once before any packet is produced.
var pairingAddressID = [5]byte{0x33, 0x33, 0x33, 0x33, 0x33}

// Options tunes Connector behavior for deployments and tests beyond the
// protocol constants in constants.go.
type Options struct {
	// DisableReconnect makes popReconnectQueue always report empty,
	// regardless of what's queued. See SPEC_FULL.md "Supplemented
	// Features": ported from the original firmware's
	// SIFTEO_SIMULATOR / opt_noCubeReconnect test-only escape hatch.
	DisableReconnect bool
}

// Connector is the single owned cube-connector state machine (spec
// section 2, section 9 "Process-wide singletons"). Construct one with
// New and drive it from a single goroutine via Produce/Acknowledge/
// Timeout/EmptyAcknowledge; Task may be called concurrently from any
// goroutine.
type Connector struct {
	logger *slog.Logger
	opts   Options

	prng     PRNG
	neighbor NeighborTransmitter
	cubes    CubeSlots
	store    PersistentStore
	metrics  MetricsSink

	// Well-known addresses (spec section 3).
	pairingAddr    RadioAddress
	reconnectAddr  RadioAddress
	connectionAddr RadioAddress

	// Persistent records, loaded at Init and kept dirty until the
	// deferred task flushes them.
	savedPairingID  PairingIDRecord
	savedPairingMRU PairingMRURecord

	// Bitsets (spec section 3).
	reconnectQueue atomicBitset
	recycleQueue   atomicBitset
	taskWork       atomicBitset

	// Transient state of an in-flight attempt (spec section 3).
	hwid               HWID
	cubeID             uint8
	cubeRecord         RecordKey
	pairingPacketCount uint8
	neighborKey        uint8
	txState            State
	rxState            ring

	taskWake chan struct{}
}

// MetricsSink receives observability events from the connector.
// NopMetrics is used when no collector is wired, and WithMetrics(nil)
// installs it as well.
type MetricsSink interface {
	StateTransition(from, to State)
	PairingStarted()
	PairingVerified()
	CubeConnected()
	CubePairingRecycled()
	NeighborKeyRotated()
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) StateTransition(State, State) {}
func (NopMetrics) PairingStarted()              {}
func (NopMetrics) PairingVerified()             {}
func (NopMetrics) CubeConnected()                {}
func (NopMetrics) CubePairingRecycled()          {}
func (NopMetrics) NeighborKeyRotated()           {}

// New constructs a Connector and runs its boot-time init (spec section
// 4, "init()"): seeds the neighbor key, loads persisted pairing
// records, and resets the state machine to PairingFirstContact.
func New(logger *slog.Logger, prng PRNG, neighbor NeighborTransmitter, cubes CubeSlots, store PersistentStore, opts Options) (*Connector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Connector{
		logger:      logger,
		opts:        opts,
		prng:        prng,
		neighbor:    neighbor,
		cubes:       cubes,
		store:       store,
		metrics:     NopMetrics{},
		neighborKey: invalidNeighborKey,
		taskWake:    make(chan struct{}, 1),
	}
	c.pairingAddr.ID = pairingAddressID

	c.nextNeighborKey()

	pairingID, err := store.LoadPairingID()
	if err != nil {
		return nil, err
	}
	c.savedPairingID = pairingID

	pairingMRU, err := store.LoadPairingMRU()
	if err != nil {
		return nil, err
	}
	c.savedPairingMRU = pairingMRU

	c.txState = PairingFirstContact

	return c, nil
}

// WithMetrics replaces the connector's metrics sink.
func (c *Connector) WithMetrics(m MetricsSink) {
	if m == nil {
		m = NopMetrics{}
	}
	c.metrics = m
}

// State returns the connector's current transmit state, for
// diagnostics and tests.
func (c *Connector) State() State {
	return c.txState
}

// setState transitions txState, emitting a debug log line and a
// metrics event on every change (SPEC_FULL.md section 4.1).
func (c *Connector) setState(next State) {
	if next == c.txState {
		return
	}
	prev := c.txState
	c.txState = next
	c.metrics.StateTransition(prev, next)
	c.logger.Debug("state transition",
		slog.String("from", prev.String()),
		slog.String("to", next.String()),
	)
}

// Produce fills tx for the radio transport to send, advancing the state
// machine's book-keeping for the packet about to go out (spec section
// 4.1, "Produce contract"). Must be called from the same goroutine as
// Acknowledge/Timeout/EmptyAcknowledge.
func (c *Connector) Produce(tx *PacketTransmission) {
	switch c.txState {

	case PairingFirstContact:
		c.produceePairingFirstContact(tx)

	case ReconnectFirstContact:
		if c.popReconnectQueue() {
			tx.setPing(&c.reconnectAddr)
			c.enqueue(ReconnectFirstContact)
			return
		}
		// Fall through: no reconnectable cube queued, so spend this
		// slot on a pairing beacon instead (spec section 4.1 table,
		// "ReconnectFirstContact: ... if queue empty, fall through to
		// PairingFirstContact").
		c.produceePairingFirstContact(tx)

	case ReconnectAltFirstContact:
		channelToggle(&c.reconnectAddr)
		tx.setVerifyPing(&c.reconnectAddr)
		c.enqueue(ReconnectAltFirstContact)

	case PairingBeginHop:
		c.newCubeRecord()
		if c.chooseConnectionAddr() {
			tx.setHopDirective(&c.pairingAddr, &c.connectionAddr, c.cubeID)
			c.enqueue(PairingBeginHop)
			return
		}
		// No cube slot available: fall back to first-contact (spec
		// section 4.1 table, "if no cube slot available, fall through
		// to PairingFirstContact").
		c.produceePairingFirstContact(tx)

	case ReconnectBeginHop:
		if c.chooseConnectionAddr() {
			tx.setHopDirective(&c.reconnectAddr, &c.connectionAddr, c.cubeID)
			c.enqueue(ReconnectBeginHop)
			return
		}
		// Same no-slot fallback, but to the reconnect entry point since
		// this attempt was already known-paired (spec section 4.1 table).
		if c.popReconnectQueue() {
			tx.setPing(&c.reconnectAddr)
			c.enqueue(ReconnectFirstContact)
			return
		}
		c.produceePairingFirstContact(tx)

	case HopConfirm:
		tx.setExplicitFullAckRequest(&c.connectionAddr)
		c.enqueue(HopConfirm)

	default:
		if c.txState.isVerify() {
			tx.setVerifyPing(&c.pairingAddr)
			c.enqueue(c.txState)
			return
		}
		panic("cubeconnector: Produce called with unknown state " + c.txState.String())
	}
}

// produceePairingFirstContact implements the PairingFirstContact produce
// path (spec section 4.1): refill the reconnect queue, periodically
// rotate the neighbor key, and beacon a minimal ping.
func (c *Connector) produceePairingFirstContact(tx *PacketTransmission) {
	c.refillReconnectQueue()

	if c.pairingPacketCount == 0 {
		c.nextNeighborKey()
		c.metrics.NeighborKeyRotated()
	}
	c.pairingPacketCount++

	tx.setPing(&c.pairingAddr)
	c.enqueue(PairingFirstContact)
}

// enqueue appends txState to rxState, the in-flight FIFO (spec section
// 4.1: "On every outbound packet, txState is appended to rxState").
func (c *Connector) enqueue(s State) {
	if err := c.rxState.enqueue(s); err != nil {
		// The transport asked for more outstanding packets than its own
		// declared budget (RadioFIFODepth): a transport bug. Logging
		// and pressing on (the packet is still produced) is the best we
		// can do without returning an error from Produce, which the
		// radio contract doesn't allow.
		c.logger.Warn("rxState overflow", slog.String("state", s.String()))
	}
}

// Acknowledge processes a received acknowledgement for the oldest
// outstanding packet (spec section 4.1, "Acknowledge contract").
func (c *Connector) Acknowledge(packet PacketBuffer) {
	packetRxState, ok := c.rxState.dequeue()
	if !ok {
		c.logger.Warn("acknowledge with no outstanding packet")
		return
	}

	ackHWID, hasHWID := packet.HWID()

	switch {
	case packetRxState == PairingFirstContact:
		c.nextNeighborKey()
		c.metrics.NeighborKeyRotated()
		if hasHWID {
			c.hwid = ackHWID
			c.setState(PairingFirstVerify)
			c.metrics.PairingStarted()
		}

	case packetRxState.isVerify():
		c.nextNeighborKey()
		c.metrics.NeighborKeyRotated()
		if hasHWID && ackHWID == c.hwid {
			// packetRxState + 1: states are laid out so that
			// PairingFinalVerify + 1 == PairingBeginHop, exactly the
			// arithmetic succession spec section 9 calls out as part of
			// the contract.
			c.setState(packetRxState.advanceVerify())
			c.metrics.PairingVerified()
		} else {
			c.setState(PairingFirstContact)
		}

	case packetRxState == ReconnectFirstContact || packetRxState == ReconnectAltFirstContact:
		if hasHWID && ackHWID == c.hwid {
			c.setState(ReconnectBeginHop)
		}

	case packetRxState == PairingBeginHop || packetRxState == ReconnectBeginHop:
		c.setState(HopConfirm)

	case packetRxState == HopConfirm:
		c.handleHopConfirmAck(hasHWID, ackHWID, packet)
		c.setState(PairingFirstContact)

	default:
		c.logger.Warn("acknowledge for unhandled state", slog.String("state", packetRxState.String()))
	}
}

// handleHopConfirmAck implements the HopConfirm branch of the
// acknowledge contract (spec section 4.1): on a matching HWID, mark the
// pairing MRU-fresh and, if the chosen cube slot is still free, hand
// the connection off.
func (c *Connector) handleHopConfirmAck(hasHWID bool, ackHWID HWID, ack PacketBuffer) {
	if !hasHWID || ackHWID != c.hwid {
		return
	}

	slot := uint8(c.cubeRecord.PairingSlot())
	if c.savedPairingMRU.access(slot) {
		c.taskWork.atomicMark(taskSavePairingMRU)
		c.triggerTask()
	}

	if c.cubes.SlotAvailable(c.cubeID) {
		c.cubes.Connect(c.cubeID, c.cubeRecord, c.connectionAddr, ack)
		c.metrics.CubeConnected()
		c.logger.Info("cube connected",
			slog.String("hwid", hex.EncodeToString(c.hwid[:])),
			slog.Int("pairing_slot", int(slot)),
			slog.Int("cube_id", int(c.cubeID)),
		)
	}
}

// Timeout processes a send that received no acknowledgement within the
// transport's budget (spec section 4.1, "Timeout contract").
func (c *Connector) Timeout() {
	packetRxState, ok := c.rxState.dequeue()
	if !ok {
		c.logger.Warn("timeout with no outstanding packet")
		return
	}

	switch packetRxState {
	case PairingBeginHop, ReconnectBeginHop:
		// The hop may have worked even though we lost the ACK; check
		// for the cube on the new address (spec section 4.1/section 7).
		c.setState(HopConfirm)

	case ReconnectFirstContact:
		c.setState(ReconnectAltFirstContact)

	default:
		c.setState(ReconnectFirstContact)
	}
}

// EmptyAcknowledge processes a hardware ACK with no payload: a
// disconnected cube always includes its HWID, so this can't be the
// cube we're trying to verify (spec section 4.1, "Empty acknowledge").
func (c *Connector) EmptyAcknowledge() {
	if _, ok := c.rxState.dequeue(); !ok {
		c.logger.Warn("empty acknowledge with no outstanding packet")
	}
}
