package cubeconnector

// State is the connector's transmit state (txState in spec section 4.1).
type State uint8

const (
	// PairingFirstContact beacons a minimal ping on the rotating pairing
	// channel, looking for any cube in range of our neighbor beacon.
	PairingFirstContact State = iota

	// PairingFirstVerify begins a contiguous run of NumVerifyStates
	// verification states. Do not insert values between PairingFirstVerify
	// and PairingFinalVerify: arithmetic on this range is part of the
	// contract (see advanceVerify).
	PairingFirstVerify

	pairingVerify2
	pairingVerify3

	// PairingFinalVerify is the last verification state. Must equal
	// PairingFirstVerify + NumVerifyStates - 1; checked in init().
	PairingFinalVerify

	// PairingBeginHop sends a hop directive to a freshly-chosen connection
	// address, once verification succeeds.
	PairingBeginHop

	// ReconnectFirstContact beacons a ping on the primary channel derived
	// from a known HWID.
	ReconnectFirstContact

	// ReconnectAltFirstContact retries on the alternate channel for the
	// same HWID.
	ReconnectAltFirstContact

	// ReconnectBeginHop sends a hop directive after reconnect verification.
	ReconnectBeginHop

	// HopConfirm verifies reachability on the freshly-hopped-to connection
	// address.
	HopConfirm
)

func init() {
	if PairingFinalVerify-PairingFirstVerify+1 != NumVerifyStates {
		panic("cubeconnector: verify state range does not match NumVerifyStates")
	}
}

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case PairingFirstContact:
		return "PairingFirstContact"
	case PairingBeginHop:
		return "PairingBeginHop"
	case ReconnectFirstContact:
		return "ReconnectFirstContact"
	case ReconnectAltFirstContact:
		return "ReconnectAltFirstContact"
	case ReconnectBeginHop:
		return "ReconnectBeginHop"
	case HopConfirm:
		return "HopConfirm"
	default:
		if s.isVerify() {
			return "PairingVerify" + verifyOrdinal(s)
		}
		return "Unknown"
	}
}

// isVerify reports whether s is one of the PairingFirstVerify..PairingFinalVerify
// states.
func (s State) isVerify() bool {
	return s >= PairingFirstVerify && s <= PairingFinalVerify
}

// advanceVerify returns the next verify state after s, per the Design
// Note in spec section 9: a tagged-variant encoding must expose this as
// an explicit operation with the same semantics as "txState = packetRxState + 1"
// in the original firmware. Panics if s is not a verify state; callers
// must check isVerify first (mirrors the case-range guard the original
// switch statement provides for free).
func (s State) advanceVerify() State {
	if !s.isVerify() {
		panic("cubeconnector: advanceVerify called on non-verify state")
	}
	return s + 1
}

// verifyOrdinal renders a 1-based ordinal for a verify state, for String().
func verifyOrdinal(s State) string {
	n := int(s-PairingFirstVerify) + 1
	digits := "0123456789"
	if n < 10 {
		return string(digits[n])
	}
	return "N"
}
