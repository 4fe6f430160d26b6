package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/newfla/presquile"
)

// writeFlags are the flags shared by apply and batch.
type writeFlags struct {
	suffix   string
	backup   string
	encoding string
	duration time.Duration
	noProbe  bool
	dryRun   bool
	jsonOut  bool
}

func (f *writeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.suffix, "suffix", "", "Write to <name><suffix>.mp3 instead of replacing the input (e.g. _enriched)")
	cmd.Flags().StringVar(&f.backup, "backup", "", "Keep the previous file with this suffix (e.g. .bak)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Chapter title encoding: utf-8, utf-16, utf-16be or latin1")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "End of the last chapter when its marker has none (e.g. 45m12s)")
	cmd.Flags().BoolVar(&f.noProbe, "no-probe", false, "Do not read the MP3 stream to find its duration")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Build and validate the new tag without writing it")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print results as JSON")
}

func (f *writeFlags) options(cmd *cobra.Command) ([]presquile.Option, error) {
	var opts []presquile.Option
	if cmd.Flags().Changed("suffix") {
		opts = append(opts, presquile.WithOutputSuffix(f.suffix))
	}
	if cmd.Flags().Changed("backup") {
		opts = append(opts, presquile.WithBackup(f.backup))
	}
	if f.encoding != "" {
		enc, err := presquile.ParseTextEncoding(f.encoding)
		if err != nil {
			return nil, err
		}
		opts = append(opts, presquile.WithTextEncoding(enc))
	}
	if f.duration < 0 {
		return nil, fmt.Errorf("--duration must not be negative")
	}
	if f.duration > 0 {
		opts = append(opts, presquile.WithTotalDuration(f.duration))
	}
	if f.noProbe {
		opts = append(opts, presquile.WithDurationProbe(false))
	}
	if f.dryRun {
		opts = append(opts, presquile.WithDryRun())
	}
	return opts, nil
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var flags writeFlags
	var output string

	cmd := &cobra.Command{
		Use:   "apply <markers.csv> <file.mp3>",
		Short: "Write chapters from a marker file into an MP3",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ctx.pipelineOptions(cmd)
			if err != nil {
				return err
			}
			extra, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts = append(opts, extra...)
			if output != "" {
				opts = append(opts, presquile.WithOutput(output))
			}

			res, err := presquile.Apply(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return newPrinter(cmd).encodeJSON(res)
			}
			printResult(cmd, res)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this path")
	return cmd
}

func printResult(cmd *cobra.Command, res *presquile.Result) {
	p := newPrinter(cmd)

	verb := "written to"
	if res.Report != nil && !res.Report.Written {
		verb = "validated for"
	}
	p.status(res.Media, statusOK, fmt.Sprintf("%d chapters %s %s", len(res.Chapters), verb, res.Output))

	if res.Report != nil {
		p.field("tag", "%s -> %s, %d frames kept, %d replaced",
			humanize.Bytes(uint64(res.Report.TagSizeBefore)),
			humanize.Bytes(uint64(res.Report.TagSizeAfter)),
			res.Report.FramesKept, res.Report.FramesReplaced)
	}
}
