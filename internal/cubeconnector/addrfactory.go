package cubeconnector

// randomAddress draws a fresh RadioAddress: 5 identifier bytes, each
// resampled until it avoids forbiddenAddressBytes, plus a channel drawn
// uniformly from the full channel range (spec section 4.5).
func randomAddress(prng PRNG, out *RadioAddress) {
	for i := range out.ID {
		out.ID[i] = randomAddressByte(prng)
	}
	out.Channel = uint8(prng.UintN(nrf24ChannelRange))
}

// nrf24ChannelRange is the number of 2.4GHz channels an nRF24L01-class
// radio can tune to (0..125 inclusive).
const nrf24ChannelRange = 126

// randomAddressByte draws one identifier byte, resampling per-byte to
// exclude the degenerate bit patterns (spec section 3).
func randomAddressByte(prng PRNG) byte {
	for {
		b := byte(prng.UintN(256))
		if !isForbiddenAddressByte(b) {
			return b
		}
	}
}

func isForbiddenAddressByte(b byte) bool {
	for _, f := range forbiddenAddressBytes {
		if b == f {
			return true
		}
	}
	return false
}

// fromHardwareID deterministically derives a RadioAddress from a cube's
// HWID, for reconnecting to a previously-paired cube without needing to
// have stored its address separately (spec section 4.5). The mapping
// only needs to be deterministic and collision-resistant in practice,
// not cryptographically secure (spec section 9: cleartext pairing).
func fromHardwareID(hwid HWID, out *RadioAddress) {
	v := hwid.Uint64()

	for i := 0; i < 5; i++ {
		b := byte(v >> (uint(i) * 8))
		if isForbiddenAddressByte(b) {
			b ^= 0x11 // nudge off the forbidden value; still deterministic.
			if isForbiddenAddressByte(b) {
				b ^= 0x22
			}
		}
		out.ID[i] = b
	}
	out.Channel = uint8((v >> 40) % nrf24ChannelRange)
}

// channelToggleOffset is half the channel range, so channelToggle always
// lands on a channel different from the one it started on, and a second
// toggle wraps back onto the original.
const channelToggleOffset = nrf24ChannelRange / 2

// channelToggle flips addr's channel between the primary and the
// alternate channel for the same identifier (spec section 4.5).
// Self-inverse: calling it twice restores the original channel.
func channelToggle(addr *RadioAddress) {
	addr.Channel = uint8((uint16(addr.Channel) + channelToggleOffset) % nrf24ChannelRange)
}
