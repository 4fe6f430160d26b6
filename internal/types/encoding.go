package types

import (
	"fmt"
	"strings"
)

// TextEncoding is the ID3v2 text encoding byte.
type TextEncoding byte

const (
	// EncodingLatin1 is ISO-8859-1.
	EncodingLatin1 TextEncoding = 0
	// EncodingUTF16 is UTF-16 with a byte order mark.
	EncodingUTF16 TextEncoding = 1
	// EncodingUTF16BE is UTF-16 big-endian without a byte order mark.
	EncodingUTF16BE TextEncoding = 2
	// EncodingUTF8 is UTF-8.
	EncodingUTF8 TextEncoding = 3
)

func (e TextEncoding) String() string {
	switch e {
	case EncodingLatin1:
		return "latin1"
	case EncodingUTF16:
		return "utf-16"
	case EncodingUTF16BE:
		return "utf-16be"
	case EncodingUTF8:
		return "utf-8"
	default:
		return fmt.Sprintf("encoding(%d)", byte(e))
	}
}

// ParseTextEncoding parses a configuration value such as "utf-8" or "latin1".
func ParseTextEncoding(s string) (TextEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case "utf-16", "utf16":
		return EncodingUTF16, nil
	case "utf-16be", "utf16be":
		return EncodingUTF16BE, nil
	case "utf-8", "utf8", "":
		return EncodingUTF8, nil
	default:
		return 0, fmt.Errorf("unknown text encoding %q", s)
	}
}
