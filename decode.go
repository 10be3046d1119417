package irmux

// BitThresholdTicks splits the NEC short space (~562us) from the long space
// (~1690us). A space longer than this is a one.
const BitThresholdTicks = 1500

// DecodeNEC extracts the 32 bit payload of a completed frame, LSB first.
//
// Only the spaces are looked at. Marks are not checked and neither is the
// address/command inverse byte, so a frame with garbage timings still yields
// a value; callers can't tell the difference from here.
func DecodeNEC(f *Frame) uint32 {
	var value uint32
	// skip leader mark and leader space
	index := 2
	for bit := 0; bit < 32; bit++ {
		if f[index+1] > BitThresholdTicks {
			value |= 1 << bit
		}
		index += 2
	}
	return value
}
