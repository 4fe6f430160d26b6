package types

// FrameKind classifies a frame found in a tag region. The set is closed:
// the merger only needs to tell chapter frames and the table of contents
// apart from everything it passes through untouched.
type FrameKind int

const (
	// KindOpaque is any frame the merger copies forward byte-for-byte.
	KindOpaque FrameKind = iota
	// KindChapter is a CHAP frame.
	KindChapter
	// KindTOC is a CTOC frame.
	KindTOC
)

func (k FrameKind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindTOC:
		return "toc"
	default:
		return "opaque"
	}
}

// Frame IDs for the chapter frames.
const (
	FrameIDChapter = "CHAP"
	FrameIDTOC     = "CTOC"
	FrameIDTitle   = "TIT2"
)

// FrameKindOf maps a four-character frame ID onto its kind.
func FrameKindOf(id string) FrameKind {
	switch id {
	case FrameIDChapter:
		return KindChapter
	case FrameIDTOC:
		return KindTOC
	default:
		return KindOpaque
	}
}

// Frame is a single frame located in an existing tag region.
type Frame struct {
	ID     string
	Raw    []byte // header and body exactly as stored
	Body   []byte // Raw[10:]
	Offset int64  // offset of the frame header within the file
	Flags  uint16
	Kind   FrameKind
}

// EncodedFrames holds the freshly encoded chapter frames and the table of
// contents, each a complete frame including its 10-byte header.
type EncodedFrames struct {
	Chapters [][]byte
	TOC      []byte
	IDs      []string // chapter element IDs in TOC order
}

// Size returns the total number of bytes of all encoded frames.
func (e EncodedFrames) Size() int {
	n := len(e.TOC)
	for _, c := range e.Chapters {
		n += len(c)
	}
	return n
}
