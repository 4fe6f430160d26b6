package container

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/types"
)

// digest returns the hex BLAKE3 digest of b.
func digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ErrValidation matches every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports an assembled image that does not hold what was
// asked for. It indicates a bug rather than bad input.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %s", e.Path, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// verify re-scans image and checks that it carries exactly the encoded
// chapter frames, one table of contents listing them in order, and the
// original payload bit for bit.
func verify(image, payload []byte, frames types.EncodedFrames, path string) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}

	tag, err := id3v2.ScanTag(image, path)
	if err != nil {
		return fail("re-scan: %v", err)
	}

	var (
		ids  []string
		tocs []types.Frame
	)
	for _, f := range tag.Frames {
		switch f.Kind {
		case types.KindChapter:
			ch, err := id3v2.DecodeChapter(f.Body)
			if err != nil {
				return fail("%v", err)
			}
			if ch.StartMS >= ch.EndMS {
				return fail("chapter %s has empty range %d-%d", ch.ElementID, ch.StartMS, ch.EndMS)
			}
			ids = append(ids, ch.ElementID)
		case types.KindTOC:
			tocs = append(tocs, f)
		}
	}

	if len(ids) != len(frames.Chapters) {
		return fail("found %d chapter frames, expected %d", len(ids), len(frames.Chapters))
	}
	if len(tocs) != 1 {
		return fail("found %d table of contents frames, expected 1", len(tocs))
	}
	if !bytes.Equal(tocs[0].Raw, frames.TOC) {
		return fail("table of contents differs from the encoded frame")
	}
	toc, err := id3v2.DecodeTOC(tocs[0].Body)
	if err != nil {
		return fail("%v", err)
	}
	if !slices.Equal(toc.Children, ids) {
		return fail("table of contents lists %v, chapter frames are %v", toc.Children, ids)
	}

	after := image[tag.RegionSize():]
	if want, got := digest(payload), digest(after); want != got {
		return fail("payload digest changed from %s to %s", want, got)
	}
	return nil
}
