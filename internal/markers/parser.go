// Package markers reads marker tables exported by audio editors.
//
// The expected input is Adobe Audition's marker export: a delimited text
// table whose header names a marker name column, a start column and
// optionally an end or duration column. Tab and comma separated exports
// are detected automatically.
package markers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/newfla/presquile/internal/types"
)

// Parser turns marker text into Marker records.
//
// A Parser holds the raw text only; every call to Records starts over from
// the first row, so the sequence can be ranged over any number of times.
type Parser struct {
	data      []byte
	source    string
	delimiter rune // 0 selects automatic detection
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithDelimiter forces the field delimiter instead of detecting it.
func WithDelimiter(r rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = r
	}
}

// WithSource names the input in error messages.
func WithSource(name string) ParserOption {
	return func(p *Parser) {
		p.source = name
	}
}

// NewParser creates a Parser over data.
func NewParser(data []byte, opts ...ParserOption) *Parser {
	p := &Parser{data: data}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads path and returns every marker in row order.
func ParseFile(path string, opts ...ParserOption) ([]types.Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}
	opts = append([]ParserOption{WithSource(path)}, opts...)
	return NewParser(data, opts...).All()
}

// All collects Records into a slice, stopping at the first error.
func (p *Parser) All() ([]types.Marker, error) {
	var out []types.Marker
	for m, err := range p.Records() {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Records yields markers in source row order. After an error is yielded
// the sequence ends; a table without data rows yields a single
// NoMarkersFoundError.
func (p *Parser) Records() iter.Seq2[types.Marker, error] {
	return func(yield func(types.Marker, error) bool) {
		text, err := decodeText(p.data)
		if err != nil {
			yield(types.Marker{}, &types.IOError{Op: "decode", Path: p.source, Err: err})
			return
		}

		r := csv.NewReader(strings.NewReader(text))
		r.Comma = p.delimiter
		if r.Comma == 0 {
			r.Comma = detectDelimiter(text)
		}
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		header, err := r.Read()
		if errors.Is(err, io.EOF) {
			yield(types.Marker{}, &types.NoMarkersFoundError{Source: p.source})
			return
		}
		if err != nil {
			yield(types.Marker{}, csvError(err, "header"))
			return
		}
		line, _ := r.FieldPos(0)
		cols, err := mapColumns(header, line)
		if err != nil {
			yield(types.Marker{}, err)
			return
		}

		count := 0
		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(types.Marker{}, csvError(err, "row"))
				return
			}
			line, _ := r.FieldPos(0)
			if isBlank(record) {
				continue
			}

			m, err := cols.marker(record, line)
			if err != nil {
				yield(types.Marker{}, err)
				return
			}
			count++
			if !yield(m, nil) {
				return
			}
		}

		if count == 0 {
			yield(types.Marker{}, &types.NoMarkersFoundError{Source: p.source})
		}
	}
}

// decodeText honours a UTF-8 or UTF-16 byte order mark and otherwise
// treats the input as UTF-8.
func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode marker text: %w", err)
	}
	return string(out), nil
}

func detectDelimiter(text string) rune {
	first, _, _ := strings.Cut(strings.TrimLeft(text, "\r\n"), "\n")
	if strings.ContainsRune(first, '\t') {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a configuration value onto a delimiter rune. "auto"
// and "" return 0.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case "tab", "\t":
		return '\t', nil
	case "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unknown delimiter %q", s)
	}
}

func csvError(err error, field string) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &types.MalformedMarkerRowError{Row: pe.Line, Field: field, Reason: pe.Err.Error()}
	}
	return &types.MalformedMarkerRowError{Field: field, Reason: err.Error()}
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// columns holds the header positions of the recognised fields; -1 means
// the column is absent.
type columns struct {
	name, start, end, duration int
}

var columnAliases = map[string]string{
	"name":       "name",
	"title":      "name",
	"marker":     "name",
	"start":      "start",
	"in":         "start",
	"start time": "start",
	"end":        "end",
	"out":        "end",
	"end time":   "end",
	"duration":   "duration",
	"length":     "duration",
}

func mapColumns(header []string, line int) (columns, error) {
	cols := columns{name: -1, start: -1, end: -1, duration: -1}
	for i, h := range header {
		key := strings.ToLower(strings.Join(strings.Fields(h), " "))
		switch columnAliases[key] {
		case "name":
			if cols.name < 0 {
				cols.name = i
			}
		case "start":
			if cols.start < 0 {
				cols.start = i
			}
		case "end":
			if cols.end < 0 {
				cols.end = i
			}
		case "duration":
			if cols.duration < 0 {
				cols.duration = i
			}
		}
	}

	if cols.name < 0 {
		return cols, &types.MalformedMarkerRowError{Row: line, Field: "header", Reason: "no name column"}
	}
	if cols.start < 0 {
		return cols, &types.MalformedMarkerRowError{Row: line, Field: "header", Reason: "no start column"}
	}
	return cols, nil
}

func field(record []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[idx]), true
}

func (c columns) marker(record []string, line int) (types.Marker, error) {
	name, ok := field(record, c.name)
	if !ok {
		return types.Marker{}, &types.MalformedMarkerRowError{Row: line, Field: "name", Reason: "missing field"}
	}

	rawStart, _ := field(record, c.start)
	if rawStart == "" {
		return types.Marker{}, &types.MalformedMarkerRowError{Row: line, Field: "start", Reason: "missing value"}
	}
	start, err := ParseTimestamp(rawStart)
	if err != nil {
		return types.Marker{}, &types.MalformedMarkerRowError{Row: line, Field: "start", Value: rawStart, Reason: err.Error()}
	}

	m := types.Marker{Row: line, Name: name, Start: start}

	if rawEnd, _ := field(record, c.end); rawEnd != "" {
		end, err := ParseTimestamp(rawEnd)
		if err != nil {
			return types.Marker{}, &types.MalformedMarkerRowError{Row: line, Field: "end", Value: rawEnd, Reason: err.Error()}
		}
		m.End, m.HasEnd = end, true
	} else if rawDur, _ := field(record, c.duration); rawDur != "" {
		dur, err := ParseTimestamp(rawDur)
		if err != nil {
			return types.Marker{}, &types.MalformedMarkerRowError{Row: line, Field: "duration", Value: rawDur, Reason: err.Error()}
		}
		if dur > MaxTimestamp-start {
			return types.Marker{}, &types.MalformedMarkerRowError{
				Row:    line,
				Field:  "duration",
				Value:  rawDur,
				Reason: "start plus duration exceeds " + MaxTimestamp.String(),
			}
		}
		// cue markers export a zero duration
		if dur > 0 {
			m.End, m.HasEnd = start+dur, true
		}
	}

	if m.HasEnd && m.End/time.Millisecond <= m.Start/time.Millisecond {
		return types.Marker{}, &types.MalformedMarkerRowError{
			Row:    line,
			Field:  "end",
			Value:  FormatTimestamp(m.End),
			Reason: "end must be after start",
		}
	}

	return m, nil
}
