package id3v2

import (
	"encoding/binary"
	"fmt"
	"time"

	binutil "github.com/newfla/presquile/internal/binary"
	"github.com/newfla/presquile/internal/types"
)

// SubFrame is a frame embedded in a CHAP or CTOC body.
type SubFrame struct {
	ID    string
	Body  []byte
	Flags uint16
}

// ChapterFrame is a decoded CHAP frame.
type ChapterFrame struct {
	ElementID   string
	Title       string // first TIT2 sub-frame, if any
	SubFrames   []SubFrame
	StartMS     uint32
	EndMS       uint32
	StartOffset uint32
	EndOffset   uint32
}

// Start returns the chapter start as a duration.
func (c ChapterFrame) Start() time.Duration {
	return time.Duration(c.StartMS) * time.Millisecond
}

// End returns the chapter end as a duration.
func (c ChapterFrame) End() time.Duration {
	return time.Duration(c.EndMS) * time.Millisecond
}

// TOCFrame is a decoded CTOC frame.
type TOCFrame struct {
	ElementID string
	Children  []string
	SubFrames []SubFrame
	Flags     byte
}

// TopLevel reports whether the top-level flag is set.
func (t TOCFrame) TopLevel() bool { return t.Flags&TOCFlagTopLevel != 0 }

// Ordered reports whether the ordered flag is set.
func (t TOCFrame) Ordered() bool { return t.Flags&TOCFlagOrdered != 0 }

// DecodeChapter decodes a CHAP frame body.
func DecodeChapter(body []byte) (ChapterFrame, error) {
	cr := binutil.NewChainReader(binutil.NewReader(binutil.FromBytes(body, types.FrameIDChapter), 0))
	id := readElementID(cr)
	ch := ChapterFrame{
		ElementID:   id,
		StartMS:     binutil.ReadChained[uint32](cr, "start time"),
		EndMS:       binutil.ReadChained[uint32](cr, "end time"),
		StartOffset: binutil.ReadChained[uint32](cr, "start offset"),
		EndOffset:   binutil.ReadChained[uint32](cr, "end offset"),
	}
	if err := cr.Error(); err != nil {
		return ChapterFrame{}, fmt.Errorf("CHAP %s: %w", id, err)
	}
	if id == "" {
		return ChapterFrame{}, fmt.Errorf("CHAP: empty element id")
	}

	subs, err := parseSubFrames(body[cr.Offset():])
	if err != nil {
		return ChapterFrame{}, fmt.Errorf("CHAP %s: %w", id, err)
	}
	ch.SubFrames = subs

	for _, sf := range subs {
		if sf.ID == types.FrameIDTitle && len(sf.Body) > 0 {
			ch.Title = DecodeText(sf.Body[1:], sf.Body[0])
			break
		}
	}

	return ch, nil
}

// DecodeTOC decodes a CTOC frame body.
func DecodeTOC(body []byte) (TOCFrame, error) {
	cr := binutil.NewChainReader(binutil.NewReader(binutil.FromBytes(body, types.FrameIDTOC), 0))
	id := readElementID(cr)
	toc := TOCFrame{ElementID: id, Flags: binutil.ReadChained[uint8](cr, "flags")}
	count := int(binutil.ReadChained[uint8](cr, "entry count"))
	if err := cr.Error(); err != nil {
		return TOCFrame{}, fmt.Errorf("CTOC %s: %w", id, err)
	}
	if id == "" {
		return TOCFrame{}, fmt.Errorf("CTOC: empty element id")
	}

	toc.Children = make([]string, 0, count)
	for i := range count {
		child := readElementID(cr)
		if err := cr.Error(); err != nil {
			return TOCFrame{}, fmt.Errorf("CTOC %s: entry %d: %w", id, i, err)
		}
		if child == "" {
			return TOCFrame{}, fmt.Errorf("CTOC %s: entry %d: empty element id", id, i)
		}
		toc.Children = append(toc.Children, child)
	}

	subs, err := parseSubFrames(body[cr.Offset():])
	if err != nil {
		return TOCFrame{}, fmt.Errorf("CTOC %s: %w", id, err)
	}
	toc.SubFrames = subs

	return toc, nil
}

// readElementID reads a NUL-terminated Latin-1 element ID.
func readElementID(cr *binutil.ChainReader) string {
	raw := cr.CString("element id")
	return DecodeText([]byte(raw), byte(types.EncodingLatin1))
}

// parseSubFrames splits the embedded frames that trail a CHAP or CTOC
// body. Sub-frame sizes are always synchsafe.
func parseSubFrames(data []byte) ([]SubFrame, error) {
	var subs []SubFrame
	for len(data) >= FrameHeaderSize {
		if data[0] == 0 {
			break
		}
		id := string(data[0:4])
		if !validFrameID(id) {
			return nil, fmt.Errorf("invalid sub-frame id %q", id)
		}
		size := int(binutil.DecodeSynchsafe(data[4:8]))
		if FrameHeaderSize+size > len(data) {
			return nil, fmt.Errorf("sub-frame %s of %d bytes overruns its parent", id, size)
		}
		subs = append(subs, SubFrame{
			ID:    id,
			Flags: binary.BigEndian.Uint16(data[8:10]),
			Body:  data[FrameHeaderSize : FrameHeaderSize+size],
		})
		data = data[FrameHeaderSize+size:]
	}
	return subs, nil
}
