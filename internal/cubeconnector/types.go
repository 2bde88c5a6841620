package cubeconnector

import (
	"encoding/hex"
	"fmt"
)

// HWID is an 8-byte hardware identifier reported by a cube in its
// acknowledgement payload.
type HWID [HWIDLen]byte

// InvalidHWID is the sentinel value marking an unused pairing slot.
var InvalidHWID = HWID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// String renders the HWID as hex, matching the teacher's habit of never
// logging raw identifier bytes unencoded.
func (h HWID) String() string {
	return hex.EncodeToString(h[:])
}

// Uint64 returns the HWID as a 64-bit little-endian integer, the form
// the address factory's fromHardwareID expects.
func (h HWID) Uint64() uint64 {
	var v uint64
	for i := HWIDLen - 1; i >= 0; i-- {
		v = (v << 8) | uint64(h[i])
	}
	return v
}

// hwidFromUint64 is the inverse of HWID.Uint64.
func hwidFromUint64(v uint64) HWID {
	var h HWID
	for i := 0; i < HWIDLen; i++ {
		h[i] = byte(v)
		v >>= 8
	}
	return h
}

// RadioAddress is a channel index plus a 5-byte identifier (spec
// section 3).
type RadioAddress struct {
	Channel uint8
	ID      [5]byte
}

// String formats a RadioAddress for logs, mirroring
// other_examples/440cb4e1_michcald-nrf24's Address.String hex style.
func (a RadioAddress) String() string {
	return fmt.Sprintf("ch%d/%02X:%02X:%02X:%02X:%02X", a.Channel, a.ID[0], a.ID[1], a.ID[2], a.ID[3], a.ID[4])
}

// PacketBuffer is a radio packet: a length-prefixed byte buffer sized to
// the nRF24L01-class 32-byte payload maximum.
type PacketBuffer struct {
	Len   uint8
	Bytes [32]byte
}

// HWID extracts the HWID carried in an acknowledgement payload. ok is
// false if the payload is too short to contain one (spec section 6:
// "shorter payloads are ignored as identifying").
func (p PacketBuffer) HWID() (hwid HWID, ok bool) {
	if p.Len < HWIDLen {
		return HWID{}, false
	}
	copy(hwid[:], p.Bytes[:HWIDLen])
	return hwid, true
}

// PacketTransmission is filled in by Connector.Produce for the radio
// transport to send (spec section 6, "produce(tx)").
type PacketTransmission struct {
	Dest               *RadioAddress
	Packet             PacketBuffer
	NumSoftwareRetries uint8
	NumHardwareRetries uint8
}

// setPing fills tx with a 1-byte ping packet addressed to dest, using
// the "first contact" retry budget (no retries at all): spec section 4.1
// produce-contract rows for *FirstContact states.
func (tx *PacketTransmission) setPing(dest *RadioAddress) {
	tx.Dest = dest
	tx.Packet.Len = 1
	tx.Packet.Bytes[0] = pingByte
	tx.NumSoftwareRetries = 0
	tx.NumHardwareRetries = 0
}

// setVerifyPing fills tx with a 1-byte ping packet using the default
// retry budget (spec section 4.1, PairingFirstVerify..PairingFinalVerify
// and ReconnectAltFirstContact rows: "default").
func (tx *PacketTransmission) setVerifyPing(dest *RadioAddress) {
	tx.Dest = dest
	tx.Packet.Len = 1
	tx.Packet.Bytes[0] = pingByte
	tx.NumSoftwareRetries = DefaultSoftwareRetries
	tx.NumHardwareRetries = DefaultHardwareRetries
}

// setExplicitFullAckRequest fills tx with the 1-byte Explicit Full ACK
// request sent at HopConfirm.
func (tx *PacketTransmission) setExplicitFullAckRequest(dest *RadioAddress) {
	tx.Dest = dest
	tx.Packet.Len = 1
	tx.Packet.Bytes[0] = explicitFullAckByte
	tx.NumSoftwareRetries = DefaultSoftwareRetries
	tx.NumHardwareRetries = DefaultHardwareRetries
}

// setHopDirective fills tx with the 8-byte hop directive steering the
// cube to connAddr/cubeID (spec section 6, "Hop directive").
func (tx *PacketTransmission) setHopDirective(dest, connAddr *RadioAddress, cubeID uint8) {
	tx.Dest = dest
	tx.Packet.Len = 8
	tx.Packet.Bytes[0] = hopOpcode
	tx.Packet.Bytes[1] = connAddr.Channel
	copy(tx.Packet.Bytes[2:7], connAddr.ID[:])
	tx.Packet.Bytes[7] = hopCubeIDMask | cubeID
	tx.NumSoftwareRetries = DefaultSoftwareRetries
	tx.NumHardwareRetries = DefaultHardwareRetries
}
