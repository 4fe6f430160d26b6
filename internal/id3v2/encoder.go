package id3v2

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	binutil "github.com/newfla/presquile/internal/binary"
	"github.com/newfla/presquile/internal/types"
)

// OffsetUnknown marks CHAP byte offsets as not set, so readers seek by time.
const OffsetUnknown uint32 = 0xFFFFFFFF

// CTOC flags.
const (
	TOCFlagOrdered  byte = 0x01
	TOCFlagTopLevel byte = 0x02
)

// MaxTOCEntries is the largest child count a CTOC entry count byte holds.
const MaxTOCEntries = math.MaxUint8

// DefaultTOCID is the element ID of the table of contents frame.
const DefaultTOCID = "toc"

// EncoderOptions configures an Encoder.
type EncoderOptions struct {
	TOCID    string
	Encoding types.TextEncoding
}

// Encoder serialises chapters into CHAP frames and a CTOC frame.
type Encoder struct {
	tocID    string
	encoding types.TextEncoding
}

// NewEncoder creates an Encoder. The zero options select Latin-1 titles,
// so callers normally set Encoding explicitly.
func NewEncoder(opts EncoderOptions) *Encoder {
	if opts.TOCID == "" {
		opts.TOCID = DefaultTOCID
	}
	return &Encoder{tocID: opts.TOCID, encoding: opts.Encoding}
}

// EncodeAll encodes every chapter and the table of contents that lists
// them in order.
func (e *Encoder) EncodeAll(chapters []types.Chapter) (types.EncodedFrames, error) {
	if len(chapters) > MaxTOCEntries {
		return types.EncodedFrames{}, &types.FrameEncodingOverflowError{
			Frame:  types.FrameIDTOC,
			Reason: fmt.Sprintf("%d chapters exceed the %d entries a table of contents can address", len(chapters), MaxTOCEntries),
		}
	}

	out := types.EncodedFrames{
		Chapters: make([][]byte, 0, len(chapters)),
		IDs:      make([]string, 0, len(chapters)),
	}
	seen := make(map[string]struct{}, len(chapters)+1)
	seen[e.tocID] = struct{}{}

	for _, ch := range chapters {
		if _, dup := seen[ch.ID]; dup {
			return types.EncodedFrames{}, &types.FrameEncodingOverflowError{
				Frame:  types.FrameIDChapter + " " + ch.ID,
				Reason: "element id is not unique",
			}
		}
		seen[ch.ID] = struct{}{}

		frame, err := e.EncodeChapter(ch)
		if err != nil {
			return types.EncodedFrames{}, err
		}
		out.Chapters = append(out.Chapters, frame)
		out.IDs = append(out.IDs, ch.ID)
	}

	toc, err := e.EncodeTOC(out.IDs)
	if err != nil {
		return types.EncodedFrames{}, err
	}
	out.TOC = toc

	return out, nil
}

// EncodeChapter returns a complete CHAP frame for ch with one embedded
// TIT2 sub-frame holding the title.
func (e *Encoder) EncodeChapter(ch types.Chapter) ([]byte, error) {
	name := types.FrameIDChapter + " " + ch.ID
	overflow := func(format string, args ...any) error {
		return &types.FrameEncodingOverflowError{Frame: name, Reason: fmt.Sprintf(format, args...)}
	}

	id, err := elementID(ch.ID)
	if err != nil {
		return nil, overflow("%v", err)
	}
	if ch.StartMS > math.MaxUint32 || ch.EndMS > math.MaxUint32 {
		return nil, overflow("time range %d-%d ms does not fit in 32 bits", ch.StartMS, ch.EndMS)
	}

	title, err := e.textFrame(types.FrameIDTitle, ch.Title)
	if err != nil {
		return nil, overflow("title %q: %v", ch.Title, err)
	}

	var body bytes.Buffer
	if err := writeChapterBody(binutil.NewSafeWriter(&body), id, ch, title); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	frame, err := frameBytes(types.FrameIDChapter, body.Bytes())
	if err != nil {
		return nil, overflow("%v", err)
	}
	return frame, nil
}

// EncodeTOC returns a top-level, ordered CTOC frame listing ids, with no
// sub-frames.
func (e *Encoder) EncodeTOC(ids []string) ([]byte, error) {
	name := types.FrameIDTOC + " " + e.tocID
	overflow := func(format string, args ...any) error {
		return &types.FrameEncodingOverflowError{Frame: name, Reason: fmt.Sprintf(format, args...)}
	}

	if len(ids) > MaxTOCEntries {
		return nil, overflow("%d entries exceed the limit of %d", len(ids), MaxTOCEntries)
	}

	tocID, err := elementID(e.tocID)
	if err != nil {
		return nil, overflow("%v", err)
	}

	children := make([]string, len(ids))
	for i, child := range ids {
		if children[i], err = elementID(child); err != nil {
			return nil, overflow("child %q: %v", child, err)
		}
	}

	var body bytes.Buffer
	if err := writeTOCBody(binutil.NewSafeWriter(&body), tocID, children); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	frame, err := frameBytes(types.FrameIDTOC, body.Bytes())
	if err != nil {
		return nil, overflow("%v", err)
	}
	return frame, nil
}

// writeChapterBody writes the CHAP body: element ID, the four 32-bit
// times and offsets, then the encoded title sub-frame.
func writeChapterBody(sw *binutil.SafeWriter, id string, ch types.Chapter, title []byte) error {
	if err := sw.WriteCString(id); err != nil {
		return err
	}
	for _, v := range []uint32{uint32(ch.StartMS), uint32(ch.EndMS), OffsetUnknown, OffsetUnknown} {
		if err := binutil.Write(sw, v); err != nil {
			return err
		}
	}
	return sw.WriteBytes(title)
}

// writeTOCBody writes a top-level, ordered CTOC body listing children.
func writeTOCBody(sw *binutil.SafeWriter, id string, children []string) error {
	if err := sw.WriteCString(id); err != nil {
		return err
	}
	if err := binutil.Write(sw, TOCFlagTopLevel|TOCFlagOrdered); err != nil {
		return err
	}
	if err := binutil.Write(sw, uint8(len(children))); err != nil {
		return err
	}
	for _, child := range children {
		if err := sw.WriteCString(child); err != nil {
			return err
		}
	}
	return nil
}

// textFrame encodes a text information frame: encoding byte plus text.
func (e *Encoder) textFrame(id, text string) ([]byte, error) {
	encoded, err := EncodeText(text, e.encoding)
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, 1+len(encoded))
	body = append(body, byte(e.encoding))
	body = append(body, encoded...)
	return frameBytes(id, body)
}

// elementID returns the Latin-1 bytes of an element ID, ready to be
// written NUL terminated.
func elementID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty element id")
	}
	if strings.IndexByte(id, 0) >= 0 {
		return "", fmt.Errorf("element id %q contains NUL", id)
	}
	b, err := EncodeText(id, types.EncodingLatin1)
	if err != nil {
		return "", fmt.Errorf("element id %q is not Latin-1: %v", id, err)
	}
	return string(b), nil
}

func frameBytes(id string, body []byte) ([]byte, error) {
	header, err := frameHeader(id, len(body), 0)
	if err != nil {
		return nil, err
	}
	return append(header, body...), nil
}
