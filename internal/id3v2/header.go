// Package id3v2 reads and writes the parts of an ID3v2.4 tag that chapter
// conversion touches: the tag header, the frame list, and the CHAP, CTOC
// and TIT2 frame layouts.
//
// Layout reference (all integers big-endian):
//
//	tag header   "ID3" ver(1)=4 rev(1) flags(1) size(4, synchsafe)
//	frame header id(4) size(4, synchsafe) flags(2)
//	CHAP body    element_id\0 start_ms(4) end_ms(4) start_off(4) end_off(4) [sub-frames]
//	CTOC body    element_id\0 flags(1) count(1) child_id\0... [sub-frames]
package id3v2

import (
	"fmt"

	binutil "github.com/newfla/presquile/internal/binary"
)

// Tag and frame layout constants.
const (
	HeaderSize      = 10
	FrameHeaderSize = 10
	MajorVersion    = 4
)

// Tag header flags.
const (
	FlagUnsynchronisation byte = 0x80
	FlagExtendedHeader    byte = 0x40
	FlagExperimental      byte = 0x20
	FlagFooter            byte = 0x10
)

const (
	headerMagic = "ID3"
	footerMagic = "3DI"
)

// Header is the 10-byte ID3v2 tag header.
type Header struct {
	Version  byte // major version
	Revision byte
	Flags    byte
	Size     uint32 // tag size excluding header and footer
}

// HasFooter reports whether a 10-byte footer follows the tag.
func (h Header) HasFooter() bool {
	return h.Flags&FlagFooter != 0
}

// ParseHeader decodes a tag header. It does not check the version.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: %d bytes", len(b))
	}
	if string(b[0:3]) != headerMagic {
		return Header{}, fmt.Errorf("missing %q magic", headerMagic)
	}
	if !binutil.IsSynchsafe(b[6:10]) {
		return Header{}, fmt.Errorf("tag size is not synchsafe")
	}
	return Header{
		Version:  b[3],
		Revision: b[4],
		Flags:    b[5],
		Size:     binutil.DecodeSynchsafe(b[6:10]),
	}, nil
}

// Bytes encodes the header.
func (h Header) Bytes() ([]byte, error) {
	return h.encode(headerMagic)
}

// FooterBytes encodes the footer that mirrors the header.
func (h Header) FooterBytes() ([]byte, error) {
	return h.encode(footerMagic)
}

func (h Header) encode(magic string) ([]byte, error) {
	size, err := binutil.EncodeSynchsafe(h.Size)
	if err != nil {
		return nil, fmt.Errorf("tag size: %w", err)
	}
	out := make([]byte, 0, HeaderSize)
	out = append(out, magic...)
	out = append(out, h.Version, h.Revision, h.Flags)
	out = append(out, size[:]...)
	return out, nil
}

// frameHeader encodes an ID3v2.4 frame header for a body of n bytes.
func frameHeader(id string, n int, flags uint16) ([]byte, error) {
	if n < 0 || n > binutil.MaxSynchsafe {
		return nil, fmt.Errorf("body of %d bytes exceeds the %d byte frame limit", n, binutil.MaxSynchsafe)
	}
	size, err := binutil.EncodeSynchsafe(uint32(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, FrameHeaderSize)
	out = append(out, id...)
	out = append(out, size[:]...)
	out = append(out, byte(flags>>8), byte(flags))
	return out, nil
}

// validFrameID reports whether id is four characters from [A-Z0-9].
func validFrameID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
