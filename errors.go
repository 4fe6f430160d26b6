package presquile

import (
	"context"
	"errors"

	"github.com/newfla/presquile/internal/container"
	"github.com/newfla/presquile/internal/types"
)

// Typed errors returned by the pipeline. Each one matches its sentinel
// below with errors.Is, and errors.As recovers the details.
type (
	MalformedMarkerRowError     = types.MalformedMarkerRowError
	NoMarkersFoundError         = types.NoMarkersFoundError
	UnorderedMarkersError       = types.UnorderedMarkersError
	MissingFinalChapterEndError = types.MissingFinalChapterEndError
	FrameEncodingOverflowError  = types.FrameEncodingOverflowError
	TagRegionNotFoundError      = types.TagRegionNotFoundError
	IOError                     = types.IOError
	ValidationError             = container.ValidationError
)

// Sentinels for errors.Is.
var (
	ErrMalformedMarkerRow     = types.ErrMalformedMarkerRow
	ErrNoMarkersFound         = types.ErrNoMarkersFound
	ErrUnorderedMarkers       = types.ErrUnorderedMarkers
	ErrMissingFinalChapterEnd = types.ErrMissingFinalChapterEnd
	ErrFrameEncodingOverflow  = types.ErrFrameEncodingOverflow
	ErrTagRegionNotFound      = types.ErrTagRegionNotFound
	ErrIOFailure              = types.ErrIOFailure
	ErrValidation             = container.ErrValidation
)

// KindOf names the failure kind of err: "MalformedMarkerRow",
// "NoMarkersFound", "UnorderedMarkers", "MissingFinalChapterEnd",
// "FrameEncodingOverflow", "TagRegionNotFound", "IoFailure",
// "ValidationFailed" or "Canceled". It returns "" for nil and "Unknown" for
// anything else.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	if kind := types.KindOf(err); kind != "" {
		return kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "ValidationFailed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	default:
		return "Unknown"
	}
}
