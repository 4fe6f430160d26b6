package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/types"
)

// Useful debug tool to see exactly which frames a tag holds and how the
// chapter frames decode.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: id3-dump <file.mp3>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	tag, err := id3v2.ScanTag(data, os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	h := tag.Header
	fmt.Printf("ID3v2.%d.%d (size: %d, flags: 0x%02x, padding: %d)\n", h.Version, h.Revision, h.Size, h.Flags, tag.Padding)
	fmt.Printf("  %d frames, %d CHAP, %d CTOC\n", len(tag.Frames), tag.Count(types.KindChapter), tag.Count(types.KindTOC))
	if len(tag.Extended) > 0 {
		fmt.Printf("  extended header (size: %d)\n", len(tag.Extended))
	}

	for _, f := range tag.Frames {
		fmt.Printf("  %s (size: %d, offset: %d)\n", f.ID, len(f.Raw), f.Offset)

		body, err := id3v2.FrameBody(f)
		if err != nil {
			fmt.Printf("    ! %v\n", err)
			continue
		}
		dumpFrame(f.ID, f.Kind, body, 2)
	}
}

func dumpFrame(id string, kind types.FrameKind, body []byte, depth int) {
	indent := strings.Repeat("  ", depth)

	switch {
	case kind == types.KindChapter:
		ch, err := id3v2.DecodeChapter(body)
		if err != nil {
			fmt.Printf("%s! %v\n", indent, err)
			return
		}
		fmt.Printf("%s%s: %d-%d ms %q\n", indent, ch.ElementID, ch.StartMS, ch.EndMS, ch.Title)
		dumpSubFrames(ch.SubFrames, depth+1)
	case kind == types.KindTOC:
		toc, err := id3v2.DecodeTOC(body)
		if err != nil {
			fmt.Printf("%s! %v\n", indent, err)
			return
		}
		fmt.Printf("%s%s: top-level=%t ordered=%t children=%s\n",
			indent, toc.ElementID, toc.TopLevel(), toc.Ordered(), strings.Join(toc.Children, ","))
		dumpSubFrames(toc.SubFrames, depth+1)
	case strings.HasPrefix(id, "T") && id != "TXXX" && len(body) > 0:
		fmt.Printf("%s%q\n", indent, id3v2.DecodeText(body[1:], body[0]))
	}
}

func dumpSubFrames(subs []id3v2.SubFrame, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, sf := range subs {
		fmt.Printf("%s%s (size: %d)\n", indent, sf.ID, len(sf.Body))
		dumpFrame(sf.ID, types.FrameKindOf(sf.ID), sf.Body, depth+1)
	}
}
