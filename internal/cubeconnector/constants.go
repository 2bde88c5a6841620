package cubeconnector

import "time"

// Protocol-wide constants (spec section 6, "Constants").
const (
	// HWIDLen is the byte length of a cube hardware identifier.
	HWIDLen = 8

	// NumPairings is the persistent pairing-slot capacity: the size of
	// PairingIDRecord and PairingMRURecord.
	NumPairings = 16

	// NumCubeSlots is the runtime connection-slot capacity: the number
	// of cubes that can be simultaneously connected. Distinct from
	// NumPairings (a pairing slot is a long-term identity binding; a
	// cube slot is a live connection).
	NumCubeSlots = 8

	// NumMasterID is the size of the neighbor-key space (3 bits).
	NumMasterID = 8

	// FirstMasterID is the first neighbor-ID byte reserved for base
	// stations, kept clear of cube-to-cube neighbor IDs.
	FirstMasterID = 0xF0

	// NumVerifyStates is the number of PairingFirstVerify..PairingFinalVerify
	// states. See DESIGN.md for why 4 was chosen.
	NumVerifyStates = 4

	// RadioFIFODepth is the outstanding-packet budget of the simulated
	// radio transport: the maximum number of in-flight entries rxState
	// may hold at once.
	RadioFIFODepth = 4

	// DefaultHardwareRetries is the nRF24L01-class default hardware
	// retry count used by most produce-contract rows.
	DefaultHardwareRetries = 15

	// DefaultSoftwareRetries is the default software retry count used
	// by produce-contract rows other than first-contact pings.
	DefaultSoftwareRetries = 2
)

// Wire-level byte values (spec section 6, "Wire-level formats").
const (
	// pingByte is the 1-byte ping packet payload.
	pingByte = 0xFF

	// explicitFullAckByte requests a full ACK from an already-connected-looking
	// address (used at HopConfirm, since normal ACKs aren't automatic once
	// disconnected).
	explicitFullAckByte = 0x79

	// hopOpcode is the first byte of an 8-byte hop directive.
	hopOpcode = 0x7A

	// hopCubeIDMask is OR'd with the destination cube slot ID in the last
	// byte of a hop directive.
	hopCubeIDMask = 0xE0
)

// forbiddenAddressBytes are identifier byte values that must never appear
// in a RadioAddress.ID, because they produce degenerate bit patterns on
// the air (spec section 3).
var forbiddenAddressBytes = [4]byte{0x00, 0x55, 0xAA, 0xFF}

// RFPairingChannels maps a neighbor key [0, NumMasterID) to the RF channel
// the pairing address rotates to when that key is active.
//
//nolint:gochecknoglobals // fixed configuration table, mirrors teacher's fsmTable/CommonIntervals style.
var RFPairingChannels = [NumMasterID]uint8{2, 18, 34, 50, 66, 82, 98, 114}

// defaultTaskFlushInterval is a 5s Connector.Task flush period. It is
// not referenced: cmd/cubeconnectord takes its period from
// internal/config (protocol.task_flush_interval, also 5s by default).
const defaultTaskFlushInterval = 5 * time.Second
