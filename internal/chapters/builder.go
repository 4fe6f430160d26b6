// Package chapters turns parsed markers into a contiguous, ordered list of
// chapters with resolved boundaries and normalised titles.
package chapters

import (
	"fmt"
	"iter"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/newfla/presquile/internal/types"
)

// Defaults for Options.
const (
	DefaultIDPrefix    = "chp"
	DefaultPlaceholder = "Chapter %d"
)

// Options configures Build.
type Options struct {
	// IDPrefix is prepended to the zero-based ordinal to form element IDs.
	IDPrefix string
	// Placeholder titles chapters whose marker name is empty. It receives
	// the one-based chapter number through a single %d verb.
	Placeholder string
	// TotalDuration closes the final chapter when its marker has no end.
	// Zero means unknown.
	TotalDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.IDPrefix == "" {
		o.IDPrefix = DefaultIDPrefix
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if !strings.Contains(o.Placeholder, "%d") {
		o.Placeholder += " %d"
	}
	return o
}

// Build consumes records in order and returns the chapter list.
//
// Starts are compared in whole milliseconds and must strictly increase.
// Each chapter ends where the next begins; the last one ends at its own
// marker end, else at TotalDuration, else Build fails with
// MissingFinalChapterEndError. The first error from records is returned
// unchanged.
func Build(records iter.Seq2[types.Marker, error], opts Options) ([]types.Chapter, error) {
	opts = opts.withDefaults()

	var markers []types.Marker
	for m, err := range records {
		if err != nil {
			return nil, err
		}
		if n := len(markers); n > 0 && m.StartMS() <= markers[n-1].StartMS() {
			return nil, &types.UnorderedMarkersError{
				Row:      m.Row,
				Name:     m.Name,
				Start:    m.Start,
				Previous: markers[n-1].Start,
			}
		}
		markers = append(markers, m)
	}

	if len(markers) == 0 {
		return nil, &types.NoMarkersFoundError{}
	}

	chapters := make([]types.Chapter, len(markers))
	for i, m := range markers {
		ch := types.Chapter{
			Index:   i,
			ID:      fmt.Sprintf("%s%d", opts.IDPrefix, i),
			Title:   normalizeTitle(m.Name, fmt.Sprintf(opts.Placeholder, i+1)),
			StartMS: m.StartMS(),
		}

		if i+1 < len(markers) {
			ch.EndMS = markers[i+1].StartMS()
		} else {
			end, err := finalEnd(m, opts.TotalDuration)
			if err != nil {
				return nil, err
			}
			ch.EndMS = end
		}

		chapters[i] = ch
	}

	return chapters, nil
}

// BuildSlice is Build over an already collected slice.
func BuildSlice(markers []types.Marker, opts Options) ([]types.Chapter, error) {
	return Build(func(yield func(types.Marker, error) bool) {
		for _, m := range markers {
			if !yield(m, nil) {
				return
			}
		}
	}, opts)
}

func finalEnd(m types.Marker, total time.Duration) (uint64, error) {
	start := m.StartMS()

	if m.HasEnd {
		if end := m.EndMS(); end > start {
			return end, nil
		}
		return 0, &types.MissingFinalChapterEndError{
			Row:    m.Row,
			Name:   m.Name,
			Reason: fmt.Sprintf("end %s is not after start %s", m.End, m.Start),
		}
	}

	if total <= 0 {
		return 0, &types.MissingFinalChapterEndError{
			Row:    m.Row,
			Name:   m.Name,
			Reason: "no end timestamp and total duration unknown",
		}
	}

	end := uint64(total / time.Millisecond)
	if end <= start {
		return 0, &types.MissingFinalChapterEndError{
			Row:    m.Row,
			Name:   m.Name,
			Reason: fmt.Sprintf("total duration %s does not extend past start %s", total, m.Start),
		}
	}
	return end, nil
}

// normalizeTitle composes the title to NFC, drops control characters and
// trims surrounding space. An empty result becomes placeholder.
func normalizeTitle(name, placeholder string) string {
	title := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFC.String(name))

	title = strings.TrimSpace(title)
	if title == "" {
		return placeholder
	}
	return title
}

// Validate checks the ordering and contiguity invariants of a chapter list.
func Validate(chapters []types.Chapter) error {
	for i, ch := range chapters {
		if ch.StartMS >= ch.EndMS {
			return fmt.Errorf("chapter %s: start %d ms not before end %d ms", ch.ID, ch.StartMS, ch.EndMS)
		}
		if i == 0 {
			continue
		}
		prev := chapters[i-1]
		if ch.StartMS != prev.EndMS {
			return fmt.Errorf("chapter %s: starts at %d ms but %s ends at %d ms", ch.ID, ch.StartMS, prev.ID, prev.EndMS)
		}
	}
	return nil
}
