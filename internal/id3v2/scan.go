package id3v2

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binutil "github.com/newfla/presquile/internal/binary"
	"github.com/newfla/presquile/internal/types"
)

// Tag is an ID3v2.4 tag region located at the start of a file.
type Tag struct {
	Extended []byte // extended header, verbatim
	Frames   []types.Frame
	Header   Header
	Padding  int // bytes of padding between the last frame and the tag end
}

// RegionSize returns the number of bytes the tag occupies in the file,
// including header and footer.
func (t *Tag) RegionSize() int64 {
	n := int64(HeaderSize) + int64(t.Header.Size)
	if t.Header.HasFooter() {
		n += HeaderSize
	}
	return n
}

// Count returns how many frames of the given kind the tag holds.
func (t *Tag) Count(kind types.FrameKind) int {
	n := 0
	for _, f := range t.Frames {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// ScanTag locates the ID3v2.4 tag at offset 0 of data and splits it into
// frames. Frames are classified as chapter, table of contents or opaque;
// their Raw bytes alias data.
func ScanTag(data []byte, path string) (*Tag, error) {
	notFound := func(off int64, format string, args ...any) error {
		return &types.TagRegionNotFoundError{Path: path, Offset: off, Reason: fmt.Sprintf(format, args...)}
	}

	if len(data) < HeaderSize || !bytes.HasPrefix(data, []byte(headerMagic)) {
		return nil, notFound(0, "no ID3v2 header at offset 0")
	}

	header, err := ParseHeader(data[:HeaderSize])
	if err != nil {
		return nil, notFound(0, "%v", err)
	}
	if header.Version != MajorVersion {
		return nil, notFound(0, "unsupported ID3v2 version 2.%d, only 2.%d is supported", header.Version, MajorVersion)
	}

	end := int64(HeaderSize) + int64(header.Size)
	if end > int64(len(data)) {
		return nil, notFound(0, "declared tag size %d exceeds file size %d", header.Size, len(data))
	}

	tag := &Tag{Header: header}
	offset := int64(HeaderSize)

	if header.Flags&FlagExtendedHeader != 0 {
		if offset+4 > end {
			return nil, notFound(offset, "truncated extended header")
		}
		// in 2.4 the extended header size counts itself
		extSize := int64(binutil.DecodeSynchsafe(data[offset : offset+4]))
		if extSize < 6 || offset+extSize > end {
			return nil, notFound(offset, "invalid extended header size %d", extSize)
		}
		tag.Extended = data[offset : offset+extSize]
		if err := walkExtended(tag.Extended, func(byte, []byte) {}); err != nil {
			return nil, notFound(offset, "%v", err)
		}
		offset += extSize
	}

	for offset+FrameHeaderSize <= end {
		if data[offset] == 0 {
			break
		}

		id := string(data[offset : offset+4])
		if !validFrameID(id) {
			return nil, notFound(offset, "invalid frame id %q", id)
		}

		sizeBytes := data[offset+4 : offset+8]
		size := int64(frameSize(data, offset, end))
		flags := binary.BigEndian.Uint16(data[offset+8 : offset+10])

		frameEnd := offset + FrameHeaderSize + size
		if frameEnd > end {
			return nil, notFound(offset, "frame %s of %d bytes (size field % x) overruns tag region", id, size, sizeBytes)
		}

		tag.Frames = append(tag.Frames, types.Frame{
			ID:     id,
			Raw:    data[offset:frameEnd],
			Body:   data[offset+FrameHeaderSize : frameEnd],
			Offset: offset,
			Flags:  flags,
			Kind:   types.FrameKindOf(id),
		})
		offset = frameEnd
	}

	tag.Padding = int(end - offset)

	if header.HasFooter() {
		if end+HeaderSize > int64(len(data)) || !bytes.HasPrefix(data[end:], []byte(footerMagic)) {
			return nil, notFound(end, "footer flag set but no footer present")
		}
	}

	return tag, nil
}

// frameSize reads the size field of the frame at offset. Some writers
// store plain big-endian sizes in 2.4 tags; when the field is not
// synchsafe, or the synchsafe reading does not land on a frame boundary
// while the plain one does, the plain value is used.
func frameSize(data []byte, offset, end int64) uint32 {
	raw := data[offset+4 : offset+8]
	plain := binary.BigEndian.Uint32(raw)
	if !binutil.IsSynchsafe(raw) {
		return plain
	}

	safe := binutil.DecodeSynchsafe(raw)
	if safe == plain {
		return safe
	}
	if boundary(data, offset+FrameHeaderSize+int64(safe), end) {
		return safe
	}
	if boundary(data, offset+FrameHeaderSize+int64(plain), end) {
		return plain
	}
	return safe
}

// boundary reports whether a frame, padding, or the tag end starts at at.
func boundary(data []byte, at, end int64) bool {
	switch {
	case at == end:
		return true
	case at > end:
		return false
	case data[at] == 0:
		return true
	case at+4 <= end:
		return validFrameID(string(data[at : at+4]))
	default:
		return false
	}
}

// Frame format flags (ID3v2.4 §4.1.2).
const (
	frameFlagGrouping          uint16 = 0x0040
	frameFlagCompression       uint16 = 0x0008
	frameFlagEncryption        uint16 = 0x0004
	frameFlagUnsynchronisation uint16 = 0x0002
	frameFlagDataLength        uint16 = 0x0001
)

// FrameBody returns the frame content with grouping, data length and
// unsynchronisation applied. Compressed or encrypted frames are rejected.
func FrameBody(f types.Frame) ([]byte, error) {
	body := f.Body
	if f.Flags&(frameFlagCompression|frameFlagEncryption) != 0 {
		return nil, fmt.Errorf("frame %s: compressed or encrypted frames are not supported", f.ID)
	}
	if f.Flags&frameFlagGrouping != 0 {
		if len(body) < 1 {
			return nil, fmt.Errorf("frame %s: missing group id", f.ID)
		}
		body = body[1:]
	}
	if f.Flags&frameFlagDataLength != 0 {
		if len(body) < 4 {
			return nil, fmt.Errorf("frame %s: missing data length indicator", f.ID)
		}
		body = body[4:]
	}
	if f.Flags&frameFlagUnsynchronisation != 0 {
		body = bytes.ReplaceAll(body, []byte{0xFF, 0x00}, []byte{0xFF})
	}
	return body, nil
}
