package chrolis

// stateMaskLimit is the exclusive upper bound of a valid encoded enable mask.
const stateMaskLimit = 1 << NumLEDs

// EncodeStates packs an EnableVector into a bitmask, bit i set iff channel i is enabled.
func EncodeStates(states EnableVector) uint8 {
	var bits uint8
	for i, on := range states {
		if on {
			bits |= 1 << i
		}
	}
	return bits
}

// EncodeRaw packs raw driver booleans into a bitmask. Any value other than
// zero counts as enabled.
func EncodeRaw(raw [NumLEDs]uint16) uint8 {
	var states EnableVector
	for i, v := range raw {
		states[i] = v != 0
	}
	return EncodeStates(states)
}

// DecodeStates unpacks a bitmask into an EnableVector. Bits at or above
// NumLEDs are ignored; callers range-check before decoding.
func DecodeStates(bits uint8) EnableVector {
	var states EnableVector
	for i := range states {
		states[i] = (bits>>i)&1 != 0
	}
	return states
}
