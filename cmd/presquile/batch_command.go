package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newfla/presquile"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags writeFlags
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <markers.csv> <file.mp3> [<markers.csv> <file.mp3>...]",
		Short: "Write chapters into several MP3 files in parallel",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("batch expects marker and MP3 paths in pairs, got %d arguments", len(args))
			}
			return nil
		},
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
			if cmd.Flags().Changed("workers") {
				opts = append(opts, presquile.WithConcurrency(workers))
			}

			jobs := make([]presquile.Job, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				jobs = append(jobs, presquile.Job{Markers: args[i], Media: args[i+1]})
			}

			results, runErr := presquile.ApplyMany(cmd.Context(), jobs, opts...)
			if flags.jsonOut {
				if err := newPrinter(cmd).encodeJSON(batchJSON(results)); err != nil {
					return err
				}
			} else {
				printBatch(cmd, results)
			}
			if runErr != nil {
				return newBatchError(results, runErr)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Files processed in parallel (0 uses one per CPU)")
	return cmd
}

type batchEntry struct {
	*presquile.Result
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func batchJSON(results []*presquile.Result) []batchEntry {
	out := make([]batchEntry, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		e := batchEntry{Result: r}
		if r.Err != nil {
			e.Error = r.Err.Error()
			e.Kind = presquile.KindOf(r.Err)
		}
		out = append(out, e)
	}
	return out
}

func printBatch(cmd *cobra.Command, results []*presquile.Result) {
	p := newPrinter(cmd)
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			p.status(r.Media, statusError, fmt.Sprintf("%s: %v", presquile.KindOf(r.Err), r.Err))
			continue
		}
		p.status(r.Media, statusOK, fmt.Sprintf("%d chapters -> %s", len(r.Chapters), r.Output))
	}
}

// batchError summarises failed jobs; per-file details were already printed.
// errors.Is still reaches the job failures through Unwrap.
type batchError struct {
	err    error
	failed int
	total  int
}

func newBatchError(results []*presquile.Result, err error) error {
	failed := 0
	for _, r := range results {
		if r == nil || r.Err != nil {
			failed++
		}
	}
	return &batchError{err: err, failed: failed, total: len(results)}
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d of %d files failed", e.failed, e.total)
}

func (e *batchError) Unwrap() error { return e.err }
