package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors, one per failure kind. Every typed error below matches
// its sentinel with errors.Is.
var (
	ErrMalformedMarkerRow     = errors.New("malformed marker row")
	ErrNoMarkersFound         = errors.New("no markers found")
	ErrUnorderedMarkers       = errors.New("unordered markers")
	ErrMissingFinalChapterEnd = errors.New("missing final chapter end")
	ErrFrameEncodingOverflow  = errors.New("frame encoding overflow")
	ErrTagRegionNotFound      = errors.New("tag region not found")
	ErrIOFailure              = errors.New("i/o failure")
)

// MalformedMarkerRowError is returned when a marker row cannot be parsed.
type MalformedMarkerRowError struct {
	Field  string // "name", "start", "end", "duration" or "header"
	Value  string
	Reason string
	Row    int // 1-based line number in the marker text
}

func (e *MalformedMarkerRowError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("row %d: malformed %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("row %d: malformed %s: %s", e.Row, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedMarkerRow.
func (e *MalformedMarkerRowError) Is(target error) bool { return target == ErrMalformedMarkerRow }

// NoMarkersFoundError is returned when the marker text holds no data rows.
type NoMarkersFoundError struct {
	Source string
}

func (e *NoMarkersFoundError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: no markers found", e.Source)
	}
	return "no markers found"
}

// Is reports whether target is ErrNoMarkersFound.
func (e *NoMarkersFoundError) Is(target error) bool { return target == ErrNoMarkersFound }

// UnorderedMarkersError is returned when a marker does not start strictly
// after the marker before it.
type UnorderedMarkersError struct {
	Name     string
	Start    time.Duration
	Previous time.Duration
	Row      int
}

func (e *UnorderedMarkersError) Error() string {
	return fmt.Sprintf("row %d: marker %q starts at %s, not after previous marker at %s",
		e.Row, e.Name, e.Start, e.Previous)
}

// Is reports whether target is ErrUnorderedMarkers.
func (e *UnorderedMarkersError) Is(target error) bool { return target == ErrUnorderedMarkers }

// MissingFinalChapterEndError is returned when the last chapter has no
// usable end boundary.
type MissingFinalChapterEndError struct {
	Name   string
	Reason string
	Row    int
}

func (e *MissingFinalChapterEndError) Error() string {
	return fmt.Sprintf("row %d: final chapter %q has no end: %s", e.Row, e.Name, e.Reason)
}

// Is reports whether target is ErrMissingFinalChapterEnd.
func (e *MissingFinalChapterEndError) Is(target error) bool {
	return target == ErrMissingFinalChapterEnd
}

// FrameEncodingOverflowError is returned when a value cannot be represented
// in the binary frame layout.
type FrameEncodingOverflowError struct {
	Frame  string // frame or element identifier
	Reason string
}

func (e *FrameEncodingOverflowError) Error() string {
	return fmt.Sprintf("encode frame %s: %s", e.Frame, e.Reason)
}

// Is reports whether target is ErrFrameEncodingOverflow.
func (e *FrameEncodingOverflowError) Is(target error) bool {
	return target == ErrFrameEncodingOverflow
}

// TagRegionNotFoundError is returned when the media file has no usable
// ID3v2.4 tag at offset 0.
type TagRegionNotFoundError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *TagRegionNotFoundError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: tag region not found (at offset %d): %s", e.Path, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: tag region not found: %s", e.Path, e.Reason)
}

// Is reports whether target is ErrTagRegionNotFound.
func (e *TagRegionNotFoundError) Is(target error) bool { return target == ErrTagRegionNotFound }

// IOError wraps an underlying read or write failure.
type IOError struct {
	Err  error
	Op   string // "read", "write", "rename", ...
	Path string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Is reports whether target is ErrIOFailure.
func (e *IOError) Is(target error) bool { return target == ErrIOFailure }

func (e *IOError) Unwrap() error { return e.Err }

// KindOf returns the failure kind name for err, or "" when err is not one
// of the pipeline errors.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedMarkerRow):
		return "MalformedMarkerRow"
	case errors.Is(err, ErrNoMarkersFound):
		return "NoMarkersFound"
	case errors.Is(err, ErrUnorderedMarkers):
		return "UnorderedMarkers"
	case errors.Is(err, ErrMissingFinalChapterEnd):
		return "MissingFinalChapterEnd"
	case errors.Is(err, ErrFrameEncodingOverflow):
		return "FrameEncodingOverflow"
	case errors.Is(err, ErrTagRegionNotFound):
		return "TagRegionNotFound"
	case errors.Is(err, ErrIOFailure):
		return "IoFailure"
	default:
		return ""
	}
}
