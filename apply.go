package presquile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/newfla/presquile/internal/chapters"
	"github.com/newfla/presquile/internal/container"
	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/markers"
	"github.com/newfla/presquile/internal/mp3"
	"github.com/newfla/presquile/internal/types"
)

// Result describes one completed (or failed) pipeline run.
type Result struct {
	Err      error         `json:"-"`
	Report   *MergeReport  `json:"report,omitempty"`
	RunID    string        `json:"run_id"`
	Markers  string        `json:"markers"`
	Media    string        `json:"media"`
	Output   string        `json:"output"`
	Chapters []Chapter     `json:"chapters"`
	Duration time.Duration `json:"duration"` // stream duration used for the last chapter, if probed
	Elapsed  time.Duration `json:"elapsed"`
}

// Job names the inputs of one pipeline run in ApplyMany.
type Job struct {
	Markers string
	Media   string
	Output  string // optional; empty follows the output options
}

// Apply reads the marker table at markersPath, turns it into chapters and
// writes them into the ID3v2.4 tag of the MP3 at mediaPath.
//
// Every other tag frame and the audio payload are kept byte for byte. The
// MP3 is replaced atomically; on any error it is left untouched.
//
// Example:
//
//	res, err := presquile.Apply(ctx, "markers.csv", "episode.mp3")
//	if err != nil {
//		log.Fatalf("%s: %v", presquile.KindOf(err), err)
//	}
//	fmt.Printf("%d chapters written to %s\n", len(res.Chapters), res.Output)
func Apply(ctx context.Context, markersPath, mediaPath string, opts ...Option) (*Result, error) {
	o := applyOptions(opts)
	res := newRun(Job{Markers: markersPath, Media: mediaPath, Output: o.output}, o).execute(ctx)
	if res.Err != nil {
		return nil, res.Err
	}
	return res, nil
}

// ApplyMany runs Apply for every job concurrently, up to WithConcurrency
// at a time. Jobs share nothing, so one failure does not stop the others.
//
// Results are returned in the same order as jobs; each carries its own Err.
// The returned error joins every job failure, or is the context error when
// ctx ends before all jobs started.
func ApplyMany(ctx context.Context, jobs []Job, opts ...Option) ([]*Result, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	o := applyOptions(opts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	results := make([]*Result, len(jobs))
	for i, job := range jobs {
		g.Go(func() error {
			// Check for cancellation
			select {
			case <-ctx.Done():
				results[i] = &Result{Markers: job.Markers, Media: job.Media, Err: ctx.Err()}
				return ctx.Err()
			default:
			}

			results[i] = newRun(job, o).execute(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Media, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

// run carries the state of one pipeline execution. Nothing in it is shared
// between runs.
type run struct {
	opts   *options
	logger *slog.Logger
	job    Job
	id     string
}

func newRun(job Job, o *options) *run {
	id := uuid.NewString()
	return &run{
		opts: o,
		job:  job,
		id:   id,
		logger: o.logger.With(
			slog.String("run_id", id),
			slog.String("markers", job.Markers),
			slog.String("media", job.Media),
		),
	}
}

func (r *run) execute(ctx context.Context) *Result {
	start := time.Now()
	res := &Result{
		RunID:   r.id,
		Markers: r.job.Markers,
		Media:   r.job.Media,
		Output:  r.outputPath(),
	}

	res.Err = r.pipeline(ctx, res)
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		r.logger.Error("apply failed",
			slog.String("kind", KindOf(res.Err)),
			slog.String("error", res.Err.Error()),
		)
		return res
	}
	r.logger.Info("apply complete",
		slog.Int("chapters", len(res.Chapters)),
		slog.String("output", res.Output),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res
}

func (r *run) pipeline(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed, err := markers.ParseFile(r.job.Markers, markers.WithDelimiter(r.opts.delimiter))
	if err != nil {
		return err
	}
	r.logger.Debug("markers parsed", slog.Int("count", len(parsed)))

	total := r.totalDuration()
	res.Duration = total

	chs, err := chapters.BuildSlice(parsed, chapters.Options{
		IDPrefix:      r.opts.idPrefix,
		Placeholder:   r.opts.placeholder,
		TotalDuration: total,
	})
	if err != nil {
		return err
	}
	res.Chapters = chs
	r.logger.Debug("chapters built", slog.Int("count", len(chs)))

	frames, err := id3v2.NewEncoder(id3v2.EncoderOptions{
		Encoding: r.opts.encoding,
		TOCID:    r.opts.tocID,
	}).EncodeAll(chs)
	if err != nil {
		return err
	}
	r.logger.Debug("frames encoded", slog.Int("bytes", frames.Size()))

	report, err := container.Merge(ctx, r.job.Media, frames, container.Options{
		Logger:          r.logger,
		OutputPath:      res.Output,
		BackupSuffix:    r.opts.backupSuffix,
		Padding:         r.opts.padding,
		PreserveModTime: r.opts.preserveModTime,
		Validate:        r.opts.validate,
		Lock:            r.opts.lock,
		DryRun:          r.opts.dryRun,
	})
	if err != nil {
		return err
	}
	res.Report = report
	return nil
}

// totalDuration returns the explicit total duration, else the probed
// stream duration, else zero. Probe failures only matter when the last
// marker has no end, and the builder reports that case itself.
func (r *run) totalDuration() time.Duration {
	if r.opts.totalDuration > 0 {
		return r.opts.totalDuration
	}
	if !r.opts.probe {
		return 0
	}
	d, err := probeDuration(r.job.Media)
	if err != nil {
		r.logger.Debug("duration probe failed", slog.String("error", err.Error()))
		return 0
	}
	r.logger.Debug("duration probed", slog.Duration("duration", d))
	return d
}

// probeDuration measures the audio stream that follows the tag at path.
func probeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &types.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, &types.IOError{Op: "stat", Path: path, Err: err}
	}

	return mp3.Duration(f, stat.Size(), tagRegionSize(f), path)
}

// tagRegionSize reads the ID3v2 header at the start of r and returns the
// size of the tag region, or 0 when there is none.
func tagRegionSize(r io.ReaderAt) int64 {
	buf := make([]byte, id3v2.HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return 0
	}
	h, err := id3v2.ParseHeader(buf)
	if err != nil {
		return 0
	}
	n := int64(id3v2.HeaderSize) + int64(h.Size)
	if h.HasFooter() {
		n += id3v2.HeaderSize
	}
	return n
}

// outputPath resolves where the run writes: the job's explicit output,
// else the input with the output suffix added to its stem, else in place.
func (r *run) outputPath() string {
	if r.job.Output != "" {
		return r.job.Output
	}
	if r.opts.outputSuffix == "" {
		return r.job.Media
	}
	return SuffixedPath(r.job.Media, r.opts.outputSuffix)
}

// SuffixedPath inserts suffix between the stem and extension of path.
func SuffixedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
