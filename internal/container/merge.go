// Package container rewrites the ID3v2.4 tag region of an MP3 file so that
// it carries a new set of chapter frames. Every other frame and the audio
// payload are copied through unchanged, and the file on disk is replaced
// atomically only after the new image has been assembled and checked.
package container

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/logging"
	"github.com/newfla/presquile/internal/types"
)

// KeepPadding reuses the padding length of the existing tag.
const KeepPadding = -1

// lockRetry is how often a busy target lock is retried.
const lockRetry = 50 * time.Millisecond

// Options controls how Merge writes its result.
type Options struct {
	Logger          *slog.Logger
	OutputPath      string // defaults to the input path
	BackupSuffix    string // rename the previous file to OutputPath+BackupSuffix
	Padding         int    // bytes of padding after the frames; KeepPadding reuses the old length
	PreserveModTime bool
	Validate        bool // re-scan the assembled image before writing
	Lock            bool // hold an advisory lock on the input while merging
	DryRun          bool // assemble and validate, but do not write
}

// Report summarises a merge.
type Report struct {
	Path           string `json:"path"`
	PayloadDigest  string `json:"payload_blake3"`
	Chapters       int    `json:"chapters"`
	FramesKept     int    `json:"frames_kept"`
	FramesReplaced int    `json:"frames_replaced"`
	TagSizeBefore  int64  `json:"tag_size_before"`
	TagSizeAfter   int64  `json:"tag_size_after"`
	PayloadSize    int64  `json:"payload_size"`
	Written        bool   `json:"written"`
}

// Merge replaces the chapter frames in the tag of the file at path with
// frames and writes the result to opts.OutputPath. On any error the file
// at path is left as it was.
func Merge(ctx context.Context, path string, frames types.EncodedFrames, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	out := opts.OutputPath
	if out == "" {
		out = path
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &types.IOError{Op: "stat", Path: path, Err: err}
	}
	if opts.Lock {
		lock := flock.New(path)
		locked, err := lock.TryLockContext(ctx, lockRetry)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			return nil, &types.IOError{Op: "lock", Path: path, Err: err}
		}
		if !locked {
			return nil, &types.IOError{Op: "lock", Path: path, Err: fmt.Errorf("lock not acquired")}
		}
		defer func() { _ = lock.Unlock() }() //nolint:errcheck // released on close anyway
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}

	tag, err := id3v2.ScanTag(data, path)
	if err != nil {
		return nil, err
	}

	image, report, err := Assemble(data, tag, frames, opts.Padding)
	if err != nil {
		return nil, err
	}
	report.Path = out

	if opts.Validate {
		if err := verify(image, data[tag.RegionSize():], frames, out); err != nil {
			return nil, err
		}
	}

	logger.Debug("tag assembled",
		slog.Int("chapters", report.Chapters),
		slog.Int("frames_kept", report.FramesKept),
		slog.Int("frames_replaced", report.FramesReplaced),
		slog.Int64("tag_size_before", report.TagSizeBefore),
		slog.Int64("tag_size_after", report.TagSizeAfter),
	)

	if opts.DryRun {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := writeAtomic(out, image, info, opts); err != nil {
		return nil, err
	}
	report.Written = true

	logger.Info("chapters written",
		slog.String("path", out),
		slog.Int("chapters", report.Chapters),
		slog.String("payload_blake3", report.PayloadDigest),
	)
	return report, nil
}

// Assemble builds the new file image from the original bytes. The tag
// header keeps its version, revision and flags. The extended header is
// copied without its CRC, which the new frames would invalidate. Opaque
// frames are copied verbatim and in order, existing CHAP and CTOC frames
// are dropped, and the new chapter frames follow with the table of
// contents last. Padding is written only when the tag has no footer.
func Assemble(data []byte, tag *id3v2.Tag, frames types.EncodedFrames, padding int) ([]byte, *Report, error) {
	if padding < 0 {
		padding = tag.Padding
	}
	// a tag with a footer must not carry padding
	if tag.Header.HasFooter() {
		padding = 0
	}
	extended, err := id3v2.StripCRC(tag.Extended)
	if err != nil {
		return nil, nil, &types.FrameEncodingOverflowError{Frame: "extended header", Reason: err.Error()}
	}
	payload := data[tag.RegionSize():]

	report := &Report{
		Chapters:      len(frames.Chapters),
		TagSizeBefore: tag.RegionSize(),
		PayloadSize:   int64(len(payload)),
		PayloadDigest: digest(payload),
	}

	var body bytes.Buffer
	body.Grow(int(tag.Header.Size) + frames.Size())
	body.Write(extended)
	for _, f := range tag.Frames {
		if f.Kind != types.KindOpaque {
			report.FramesReplaced++
			continue
		}
		body.Write(f.Raw)
		report.FramesKept++
	}
	for _, c := range frames.Chapters {
		body.Write(c)
	}
	body.Write(frames.TOC)
	body.Write(make([]byte, padding))

	header := tag.Header
	header.Size = uint32(body.Len())
	hb, err := header.Bytes()
	if err != nil {
		return nil, nil, &types.FrameEncodingOverflowError{Frame: "tag", Reason: err.Error()}
	}

	image := make([]byte, 0, len(hb)+body.Len()+id3v2.HeaderSize+len(payload))
	image = append(image, hb...)
	image = append(image, body.Bytes()...)
	if header.HasFooter() {
		fb, err := header.FooterBytes()
		if err != nil {
			return nil, nil, &types.FrameEncodingOverflowError{Frame: "tag", Reason: err.Error()}
		}
		image = append(image, fb...)
	}
	report.TagSizeAfter = int64(len(image))
	image = append(image, payload...)

	return image, report, nil
}
