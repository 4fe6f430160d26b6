package id3v2

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/newfla/presquile/internal/types"
)

// EncodeText encodes s with the given ID3v2 text encoding, without a
// terminator. Runes the encoding cannot represent are an error.
func EncodeText(s string, enc types.TextEncoding) ([]byte, error) {
	switch enc {
	case types.EncodingLatin1:
		return transcode(charmap.ISO8859_1.NewEncoder(), s)
	case types.EncodingUTF16:
		return transcode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), s)
	case types.EncodingUTF16BE:
		return transcode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder(), s)
	case types.EncodingUTF8:
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("text is not valid UTF-8")
		}
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("unknown text encoding %d", byte(enc))
	}
}

func transcode(e *encoding.Encoder, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("text is not valid UTF-8")
	}
	out, err := e.Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeText decodes text stored with the given ID3v2 encoding byte.
// Trailing terminators are dropped; unknown encodings decode as Latin-1.
func DecodeText(data []byte, enc byte) string {
	if len(data) == 0 {
		return ""
	}

	var dec *encoding.Decoder
	switch types.TextEncoding(enc) {
	case types.EncodingUTF16:
		// BOM decides the byte order; big-endian without one
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if len(data) < 2 || !(data[0] == 0xFF && data[1] == 0xFE || data[0] == 0xFE && data[1] == 0xFF) {
			dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		}
		data = trimTerminator(data, 2)
	case types.EncodingUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		data = trimTerminator(data, 2)
	case types.EncodingUTF8:
		return string(bytes.TrimRight(data, "\x00"))
	default:
		dec = charmap.ISO8859_1.NewDecoder()
		data = bytes.TrimRight(data, "\x00")
	}

	out, err := dec.Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// trimTerminator drops trailing zero code units of the given width.
func trimTerminator(data []byte, width int) []byte {
	if len(data)%width != 0 {
		data = data[:len(data)-len(data)%width]
	}
	for len(data) >= width && allZero(data[len(data)-width:]) {
		data = data[:len(data)-width]
	}
	return data
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
