package types

import "time"

// Marker is one row of an exported marker table.
type Marker struct {
	Name   string
	Row    int // 1-based line in the source text
	Start  time.Duration
	End    time.Duration // valid only when HasEnd is set
	HasEnd bool
}

// StartMS returns the start truncated to whole milliseconds.
func (m Marker) StartMS() uint64 {
	return uint64(m.Start / time.Millisecond)
}

// EndMS returns the end truncated to whole milliseconds, or 0 without an end.
func (m Marker) EndMS() uint64 {
	if !m.HasEnd {
		return 0
	}
	return uint64(m.End / time.Millisecond)
}
