package presquile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/newfla/presquile/internal/chapters"
	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/mp3"
	"github.com/newfla/presquile/internal/types"
)

// FrameInfo summarises one frame of a tag.
type FrameInfo struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Offset int64  `json:"offset"`
	Size   int    `json:"size"` // header and body
}

// TOC is a decoded table of contents frame.
type TOC struct {
	ID       string   `json:"id"`
	Children []string `json:"children"`
	TopLevel bool     `json:"top_level"`
	Ordered  bool     `json:"ordered"`
}

// Inspection lists the chapter structure of an MP3.
type Inspection struct {
	Path     string        `json:"path"`
	Version  string        `json:"version"`
	Frames   []FrameInfo   `json:"frames"`
	Chapters []Chapter     `json:"chapters"` // in tag order
	TOCs     []TOC         `json:"tocs"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"` // zero when the stream could not be probed
	TagSize  int64         `json:"tag_size"`
	Padding  int           `json:"padding"`
}

// Inspect reads the ID3v2.4 tag of the MP3 at path and decodes its chapter
// and table of contents frames. Frames that fail to decode are reported as
// warnings rather than errors.
func Inspect(ctx context.Context, path string) (*Inspection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}

	tag, err := id3v2.ScanTag(data, path)
	if err != nil {
		return nil, err
	}

	in := &Inspection{
		Path:    path,
		Version: fmt.Sprintf("2.%d.%d", tag.Header.Version, tag.Header.Revision),
		TagSize: tag.RegionSize(),
		Padding: tag.Padding,
	}

	for _, f := range tag.Frames {
		in.Frames = append(in.Frames, FrameInfo{
			ID:     f.ID,
			Kind:   f.Kind.String(),
			Offset: f.Offset,
			Size:   len(f.Raw),
		})

		if f.Kind == types.KindOpaque {
			continue
		}
		body, err := id3v2.FrameBody(f)
		if err != nil {
			in.Warnings = append(in.Warnings, err.Error())
			continue
		}

		switch f.Kind {
		case types.KindChapter:
			ch, err := id3v2.DecodeChapter(body)
			if err != nil {
				in.Warnings = append(in.Warnings, fmt.Sprintf("frame at offset %d: %v", f.Offset, err))
				continue
			}
			in.Chapters = append(in.Chapters, Chapter{
				ID:      ch.ElementID,
				Title:   ch.Title,
				Index:   len(in.Chapters),
				StartMS: uint64(ch.StartMS),
				EndMS:   uint64(ch.EndMS),
			})
		case types.KindTOC:
			toc, err := id3v2.DecodeTOC(body)
			if err != nil {
				in.Warnings = append(in.Warnings, fmt.Sprintf("frame at offset %d: %v", f.Offset, err))
				continue
			}
			in.TOCs = append(in.TOCs, TOC{
				ID:       toc.ElementID,
				Children: toc.Children,
				TopLevel: toc.TopLevel(),
				Ordered:  toc.Ordered(),
			})
		}
	}

	if err := chapters.Validate(in.Chapters); err != nil {
		in.Warnings = append(in.Warnings, "chapters: "+err.Error())
	}

	if d, err := mp3.Duration(bytes.NewReader(data), int64(len(data)), tag.RegionSize(), path); err == nil {
		in.Duration = d
	} else {
		in.Warnings = append(in.Warnings, err.Error())
	}

	return in, nil
}
