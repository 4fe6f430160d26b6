package id3v2

import (
	"fmt"

	binutil "github.com/newfla/presquile/internal/binary"
)

// Extended header flags.
const (
	ExtFlagUpdate       byte = 0x40
	ExtFlagCRC          byte = 0x20
	ExtFlagRestrictions byte = 0x10
)

// extFields lists the flags that carry data, in the order their data
// follows the flag byte, with the data length each must declare.
var extFields = []struct {
	flag byte
	size int
}{
	{ExtFlagUpdate, 0},
	{ExtFlagCRC, 5},
	{ExtFlagRestrictions, 1},
}

// walkExtended calls fn for every flag set in the 2.4 extended header
// ext, with that flag's data including its length byte.
func walkExtended(ext []byte, fn func(flag byte, field []byte)) error {
	if len(ext) < 6 || ext[4] != 1 {
		return fmt.Errorf("extended header must declare one flag byte")
	}
	flags := ext[5]
	pos := 6
	for _, f := range extFields {
		if flags&f.flag == 0 {
			continue
		}
		if pos >= len(ext) || int(ext[pos]) != f.size || pos+1+f.size > len(ext) {
			return fmt.Errorf("extended header flag %#02x has malformed data", f.flag)
		}
		fn(f.flag, ext[pos:pos+1+f.size])
		pos += 1 + f.size
	}
	return nil
}

// StripCRC returns ext without its CRC-32 data and with the CRC flag
// cleared. The CRC covers frames and padding, so it is stale once they
// are rewritten. An extended header without a CRC is returned as is.
func StripCRC(ext []byte) ([]byte, error) {
	if len(ext) == 0 {
		return nil, nil
	}
	out := []byte{0, 0, 0, 0, 1, 0}
	if len(ext) > 5 {
		out[5] = ext[5] &^ ExtFlagCRC
	}
	err := walkExtended(ext, func(flag byte, field []byte) {
		if flag != ExtFlagCRC {
			out = append(out, field...)
		}
	})
	if err != nil {
		return nil, err
	}
	if ext[5]&ExtFlagCRC == 0 {
		return ext, nil
	}

	size, err := binutil.EncodeSynchsafe(uint32(len(out)))
	if err != nil {
		return nil, err
	}
	copy(out, size[:])
	return out, nil
}
