package presquile

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/newfla/presquile/internal/chapters"
	"github.com/newfla/presquile/internal/container"
	"github.com/newfla/presquile/internal/id3v2"
	"github.com/newfla/presquile/internal/logging"
	"github.com/newfla/presquile/internal/types"
)

// Option configures Apply, ApplyMany and Inspect.
//
// Options use the functional options pattern:
//
//	res, err := presquile.Apply(ctx, "markers.csv", "episode.mp3",
//	    presquile.WithBackup(".bak"),
//	    presquile.WithTextEncoding(presquile.EncodingUTF16),
//	)
type Option func(*options)

// options holds the configuration of one pipeline run.
type options struct {
	logger          *slog.Logger
	output          string // explicit output path (single file only)
	outputSuffix    string // appended to the file stem, e.g. "_enriched"
	backupSuffix    string
	idPrefix        string
	placeholder     string
	tocID           string
	totalDuration   time.Duration
	padding         int
	concurrency     int
	delimiter       rune
	encoding        types.TextEncoding
	validate        bool
	preserveModTime bool
	probe           bool
	lock            bool
	dryRun          bool
}

// defaultOptions returns the default configuration: UTF-8 titles, duration
// probing, validation and locking on, padding kept, writes in place.
func defaultOptions() *options {
	return &options{
		logger:      logging.Discard(),
		idPrefix:    chapters.DefaultIDPrefix,
		placeholder: chapters.DefaultPlaceholder,
		tocID:       id3v2.DefaultTOCID,
		padding:     container.KeepPadding,
		concurrency: runtime.NumCPU(),
		encoding:    types.EncodingUTF8,
		validate:    true,
		probe:       true,
		lock:        true,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithOutput writes the result to path instead of replacing the input.
// ApplyMany ignores it; use Job.Output there.
func WithOutput(path string) Option {
	return func(o *options) {
		o.output = path
	}
}

// WithOutputSuffix writes the result next to the input with suffix added
// to the file stem. WithOutputSuffix("_enriched") turns "show.mp3" into
// "show_enriched.mp3".
func WithOutputSuffix(suffix string) Option {
	return func(o *options) {
		o.outputSuffix = suffix
	}
}

// WithBackup keeps the previous file at its path plus suffix.
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) Option {
	return func(o *options) {
		o.backupSuffix = suffix
	}
}

// WithValidation toggles re-scanning the new tag and comparing payload
// digests before anything is written. It is on by default.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithPreserveModTime keeps the original file modification time.
func WithPreserveModTime() Option {
	return func(o *options) {
		o.preserveModTime = true
	}
}

// WithTextEncoding selects the encoding of chapter titles. UTF-8 is the
// default; Latin-1 fails with FrameEncodingOverflowError on titles it
// cannot represent.
func WithTextEncoding(enc TextEncoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// WithTotalDuration sets the end of the last chapter when its marker has
// none. It takes precedence over the duration probe.
func WithTotalDuration(d time.Duration) Option {
	return func(o *options) {
		o.totalDuration = d
	}
}

// WithDurationProbe toggles reading the MP3 frame headers for the stream
// duration. It is on by default.
func WithDurationProbe(enabled bool) Option {
	return func(o *options) {
		o.probe = enabled
	}
}

// WithDelimiter forces the marker column delimiter. Zero detects it from
// the header row.
func WithDelimiter(r rune) Option {
	return func(o *options) {
		o.delimiter = r
	}
}

// WithPadding sets the padding after the frames in bytes. A negative value
// keeps the padding length of the existing tag.
func WithPadding(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = container.KeepPadding
		}
		o.padding = n
	}
}

// WithLocking toggles the advisory lock held on the MP3 while it is
// rewritten. It is on by default.
func WithLocking(enabled bool) Option {
	return func(o *options) {
		o.lock = enabled
	}
}

// WithLogger routes progress logs to logger. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency limits how many files ApplyMany processes at once.
// Values below one use runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		o.concurrency = n
	}
}

// WithDryRun runs the whole pipeline, including validation, but leaves
// the file untouched.
func WithDryRun() Option {
	return func(o *options) {
		o.dryRun = true
	}
}

// WithIDPrefix sets the prefix of chapter element IDs ("chp" by default).
func WithIDPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.idPrefix = prefix
		}
	}
}

// WithPlaceholder sets the title used for markers without a name. Its %d
// verb receives the 1-based chapter number.
func WithPlaceholder(format string) Option {
	return func(o *options) {
		if format != "" {
			o.placeholder = format
		}
	}
}

// WithTOCID sets the element ID of the table of contents ("toc" by default).
func WithTOCID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.tocID = id
		}
	}
}
