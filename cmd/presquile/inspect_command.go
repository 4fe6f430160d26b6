package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/newfla/presquile"
	"github.com/newfla/presquile/internal/markers"
)

func newInspectCommand() *cobra.Command {
	var jsonOut bool
	var showFrames bool

	cmd := &cobra.Command{
		Use:         "inspect <file.mp3>...",
		Short:       "Show the chapters stored in MP3 files",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			inspections := make([]*presquile.Inspection, 0, len(args))
			for _, path := range args {
				in, err := presquile.Inspect(cmd.Context(), path)
				if err != nil {
					return err
				}
				inspections = append(inspections, in)
			}

			if jsonOut {
				if len(inspections) == 1 {
					return newPrinter(cmd).encodeJSON(inspections[0])
				}
				return newPrinter(cmd).encodeJSON(inspections)
			}

			for i, in := range inspections {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printInspection(cmd, in, showFrames)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the inspection as JSON")
	cmd.Flags().BoolVar(&showFrames, "frames", false, "List every frame of the tag")
	return cmd
}

func printInspection(cmd *cobra.Command, in *presquile.Inspection, showFrames bool) {
	p := newPrinter(cmd)

	p.heading(in.Path)
	p.field("Tag", "ID3v%s, %s (%s padding), %d frames", in.Version,
		humanize.Bytes(uint64(in.TagSize)), humanize.Bytes(uint64(in.Padding)), len(in.Frames))
	if in.Duration > 0 {
		p.field("Duration", "%s", markers.FormatTimestamp(in.Duration))
	}
	for _, toc := range in.TOCs {
		p.field("Table of contents", "%s -> %s (top-level %s, ordered %s)",
			toc.ID, strings.Join(toc.Children, ", "), yesNo(toc.TopLevel), yesNo(toc.Ordered))
	}
	for _, w := range in.Warnings {
		p.status("Warning", statusWarn, w)
	}

	if len(in.Chapters) == 0 {
		p.field("Chapters", "none")
	} else {
		rows := make([][]string, 0, len(in.Chapters))
		for _, ch := range in.Chapters {
			rows = append(rows, []string{
				strconv.Itoa(ch.Index + 1),
				ch.ID,
				ch.Title,
				markers.FormatTimestamp(ch.Start()),
				markers.FormatTimestamp(ch.End()),
				markers.FormatTimestamp(ch.Duration()),
			})
		}
		p.table([]column{
			{title: "#", right: true},
			{title: "ID"},
			{title: "Title"},
			{title: "Start", right: true},
			{title: "End", right: true},
			{title: "Length", right: true},
		}, rows)
	}

	if showFrames {
		rows := make([][]string, 0, len(in.Frames))
		for _, f := range in.Frames {
			rows = append(rows, []string{f.ID, f.Kind, strconv.FormatInt(f.Offset, 10), humanize.Bytes(uint64(f.Size))})
		}
		p.table([]column{
			{title: "Frame"},
			{title: "Kind"},
			{title: "Offset", right: true},
			{title: "Size", right: true},
		}, rows)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
