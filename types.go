package presquile

import (
	"github.com/newfla/presquile/internal/container"
	"github.com/newfla/presquile/internal/types"
)

// Chapter is an alias to types.Chapter.
// Re-exporting from internal/types to keep one definition.
type Chapter = types.Chapter

// Marker is an alias to types.Marker.
type Marker = types.Marker

// TextEncoding is an alias to types.TextEncoding.
type TextEncoding = types.TextEncoding

// Text encodings for chapter titles.
const (
	EncodingLatin1  = types.EncodingLatin1
	EncodingUTF16   = types.EncodingUTF16
	EncodingUTF16BE = types.EncodingUTF16BE
	EncodingUTF8    = types.EncodingUTF8
)

// ParseTextEncoding parses names such as "utf-8", "utf-16" or "latin1".
func ParseTextEncoding(s string) (TextEncoding, error) {
	return types.ParseTextEncoding(s)
}

// MergeReport describes what the tag merge changed.
type MergeReport = container.Report
