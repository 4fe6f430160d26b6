package binary

import "fmt"

// MaxSynchsafe is the largest value a 4-byte synchsafe integer can hold.
const MaxSynchsafe = 1<<28 - 1

// DecodeSynchsafe decodes a synchsafe integer (7 bits per byte).
// ID3v2.4 uses 7-bit encoding where bit 7 is always 0.
func DecodeSynchsafe(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// EncodeSynchsafe encodes n as a 4-byte synchsafe integer.
func EncodeSynchsafe(n uint32) ([4]byte, error) {
	if n > MaxSynchsafe {
		return [4]byte{}, fmt.Errorf("value %d exceeds synchsafe limit %d", n, MaxSynchsafe)
	}
	return [4]byte{
		byte(n>>21) & 0x7F,
		byte(n>>14) & 0x7F,
		byte(n>>7) & 0x7F,
		byte(n) & 0x7F,
	}, nil
}

// IsSynchsafe reports whether every byte of b has its high bit clear.
func IsSynchsafe(b []byte) bool {
	for _, c := range b {
		if c&0x80 != 0 {
			return false
		}
	}
	return true
}
