// Package types provides the data structures shared by the marker parser,
// the chapter builder, the ID3v2 frame encoder and the tag merger.
//
// Values flow strictly one way: Marker -> Chapter -> EncodedFrames, and
// the merger classifies existing tag content into Frame values.
package types

import "time"

// Chapter describes one navigable chapter ready for encoding.
//
// Chapters produced by the builder satisfy StartMS < EndMS, are ordered by
// StartMS and are contiguous: the EndMS of one chapter equals the StartMS
// of the next.
//
//	for _, ch := range chapters {
//	    fmt.Printf("[%s] %s: %s - %s\n", ch.ID, ch.Title, ch.Start(), ch.End())
//	}
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
	StartMS uint64 `json:"start_ms"`
	EndMS   uint64 `json:"end_ms"`
}

// Start returns the chapter start as a duration.
func (c Chapter) Start() time.Duration {
	return time.Duration(c.StartMS) * time.Millisecond
}

// End returns the chapter end as a duration.
func (c Chapter) End() time.Duration {
	return time.Duration(c.EndMS) * time.Millisecond
}

// Duration returns the length of the chapter.
func (c Chapter) Duration() time.Duration {
	return c.End() - c.Start()
}
