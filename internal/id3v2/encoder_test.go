package id3v2

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binutil "github.com/newfla/presquile/internal/binary"
	"github.com/newfla/presquile/internal/types"
)

func sampleChapters() []types.Chapter {
	return []types.Chapter{
		{ID: "chp0", Index: 0, Title: "Intro", StartMS: 0, EndMS: 5000},
		{ID: "chp1", Index: 1, Title: "Verse", StartMS: 5000, EndMS: 65250},
		{ID: "chp2", Index: 2, Title: "Outro", StartMS: 65250, EndMS: 90000},
	}
}

func TestEncodeChapter_Layout(t *testing.T) {
	enc := NewEncoder(EncoderOptions{Encoding: types.EncodingUTF8})

	frame, err := enc.EncodeChapter(types.Chapter{ID: "chp0", Title: "Intro", StartMS: 0, EndMS: 5000})
	require.NoError(t, err)

	want := []byte{
		'C', 'H', 'A', 'P', 0, 0, 0, 37, 0, 0,
		'c', 'h', 'p', '0', 0,
		0, 0, 0, 0, // start
		0, 0, 0x13, 0x88, // end 5000
		0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
		'T', 'I', 'T', '2', 0, 0, 0, 6, 0, 0,
		3, 'I', 'n', 't', 'r', 'o',
	}
	assert.Equal(t, want, frame)
}

func TestEncodeTOC_Layout(t *testing.T) {
	enc := NewEncoder(EncoderOptions{Encoding: types.EncodingUTF8})

	frame, err := enc.EncodeTOC([]string{"chp0", "chp1"})
	require.NoError(t, err)

	want := []byte{
		'C', 'T', 'O', 'C', 0, 0, 0, 16, 0, 0,
		't', 'o', 'c', 0,
		0x03, 2,
		'c', 'h', 'p', '0', 0,
		'c', 'h', 'p', '1', 0,
	}
	assert.Equal(t, want, frame)
}

func TestEncodeAll_RoundTrip(t *testing.T) {
	encodings := []types.TextEncoding{
		types.EncodingLatin1,
		types.EncodingUTF16,
		types.EncodingUTF16BE,
		types.EncodingUTF8,
	}

	for _, e := range encodings {
		t.Run(e.String(), func(t *testing.T) {
			chapters := sampleChapters()
			chapters[1].Title = "Café Verse"

			out, err := NewEncoder(EncoderOptions{Encoding: e}).EncodeAll(chapters)
			require.NoError(t, err)
			require.Len(t, out.Chapters, 3)
			assert.Equal(t, []string{"chp0", "chp1", "chp2"}, out.IDs)

			for i, raw := range out.Chapters {
				assert.Equal(t, types.FrameIDChapter, string(raw[:4]))
				ch, err := DecodeChapter(raw[FrameHeaderSize:])
				require.NoError(t, err)
				assert.Equal(t, chapters[i].ID, ch.ElementID)
				assert.Equal(t, chapters[i].Title, ch.Title)
				assert.Equal(t, uint32(chapters[i].StartMS), ch.StartMS)
				assert.Equal(t, uint32(chapters[i].EndMS), ch.EndMS)
				assert.Equal(t, OffsetUnknown, ch.StartOffset)
				assert.Equal(t, OffsetUnknown, ch.EndOffset)
				require.Len(t, ch.SubFrames, 1)
				assert.Equal(t, byte(e), ch.SubFrames[0].Body[0])
			}

			toc, err := DecodeTOC(out.TOC[FrameHeaderSize:])
			require.NoError(t, err)
			assert.Equal(t, DefaultTOCID, toc.ElementID)
			assert.True(t, toc.TopLevel())
			assert.True(t, toc.Ordered())
			assert.Equal(t, out.IDs, toc.Children)
			assert.Empty(t, toc.SubFrames)
		})
	}
}

func TestEncodeAll_Size(t *testing.T) {
	out, err := NewEncoder(EncoderOptions{Encoding: types.EncodingUTF8}).EncodeAll(sampleChapters())
	require.NoError(t, err)

	n := len(out.TOC)
	for _, c := range out.Chapters {
		n += len(c)
	}
	assert.Equal(t, n, out.Size())
}

func TestEncode_Overflow(t *testing.T) {
	utf8 := NewEncoder(EncoderOptions{Encoding: types.EncodingUTF8})
	latin1 := NewEncoder(EncoderOptions{Encoding: types.EncodingLatin1})

	tests := []struct {
		name string
		run  func() error
	}{
		{"start beyond 32 bits", func() error {
			_, err := utf8.EncodeChapter(types.Chapter{ID: "chp0", Title: "x", StartMS: 1 << 32, EndMS: 1<<32 + 1})
			return err
		}},
		{"end beyond 32 bits", func() error {
			_, err := utf8.EncodeChapter(types.Chapter{ID: "chp0", Title: "x", EndMS: 1 << 32})
			return err
		}},
		{"title outside Latin-1", func() error {
			_, err := latin1.EncodeChapter(types.Chapter{ID: "chp0", Title: "日本", EndMS: 1})
			return err
		}},
		{"invalid UTF-8 title", func() error {
			_, err := utf8.EncodeChapter(types.Chapter{ID: "chp0", Title: "\xff\xfe", EndMS: 1})
			return err
		}},
		{"empty element id", func() error {
			_, err := utf8.EncodeChapter(types.Chapter{Title: "x", EndMS: 1})
			return err
		}},
		{"element id with NUL", func() error {
			_, err := utf8.EncodeChapter(types.Chapter{ID: "a\x00b", Title: "x", EndMS: 1})
			return err
		}},
		{"too many chapters", func() error {
			chapters := make([]types.Chapter, MaxTOCEntries+1)
			for i := range chapters {
				chapters[i] = types.Chapter{ID: "chp" + strconv.Itoa(i), StartMS: uint64(i), EndMS: uint64(i + 1)}
			}
			_, err := utf8.EncodeAll(chapters)
			return err
		}},
		{"duplicate ids", func() error {
			chapters := sampleChapters()
			chapters[2].ID = "chp1"
			_, err := utf8.EncodeAll(chapters)
			return err
		}},
		{"chapter id collides with toc", func() error {
			chapters := sampleChapters()
			chapters[0].ID = DefaultTOCID
			_, err := utf8.EncodeAll(chapters)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrFrameEncodingOverflow), "got %v", err)

			var overflow *types.FrameEncodingOverflowError
			require.ErrorAs(t, err, &overflow)
			assert.NotEmpty(t, overflow.Reason)
		})
	}
}

func TestEncodeAll_MaxEntries(t *testing.T) {
	chapters := make([]types.Chapter, MaxTOCEntries)
	for i := range chapters {
		chapters[i] = types.Chapter{
			ID:      "chp" + strconv.Itoa(i),
			Title:   "Chapter",
			StartMS: uint64(i) * 1000,
			EndMS:   uint64(i+1) * 1000,
		}
	}

	out, err := NewEncoder(EncoderOptions{Encoding: types.EncodingUTF8}).EncodeAll(chapters)
	require.NoError(t, err)

	toc, err := DecodeTOC(out.TOC[FrameHeaderSize:])
	require.NoError(t, err)
	assert.Len(t, toc.Children, MaxTOCEntries)
}

func TestEncoder_CustomTOCID(t *testing.T) {
	out, err := NewEncoder(EncoderOptions{TOCID: "toc1", Encoding: types.EncodingUTF8}).EncodeAll(sampleChapters())
	require.NoError(t, err)

	toc, err := DecodeTOC(out.TOC[FrameHeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, "toc1", toc.ElementID)
}

// shortWriter accepts n bytes and then fails.
type shortWriter struct{ n int }

var errShortWrite = errors.New("device full")

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		written := w.n
		w.n = 0
		return written, errShortWrite
	}
	w.n -= len(p)
	return len(p), nil
}

func TestWriteBodies_PropagateWriteErrors(t *testing.T) {
	ch := types.Chapter{ID: "chp0", Title: "Intro", StartMS: 0, EndMS: 5000}
	title := []byte("TIT2\x00\x00\x00\x02\x00\x00\x03x")

	// The complete CHAP body is 4+1 id bytes, 16 time bytes and the title.
	chapterSize := 5 + 16 + len(title)
	for limit := range chapterSize {
		t.Run("chapter/"+strconv.Itoa(limit), func(t *testing.T) {
			sw := binutil.NewSafeWriter(&shortWriter{n: limit})
			err := writeChapterBody(sw, "chp0", ch, title)
			require.ErrorIs(t, err, errShortWrite)
			assert.LessOrEqual(t, sw.Offset(), int64(limit))
		})
	}
	require.NoError(t, writeChapterBody(binutil.NewSafeWriter(&shortWriter{n: chapterSize}), "chp0", ch, title))

	children := []string{"chp0", "chp1"}
	tocSize := 4 + 2 + 5 + 5
	for limit := range tocSize {
		t.Run("toc/"+strconv.Itoa(limit), func(t *testing.T) {
			err := writeTOCBody(binutil.NewSafeWriter(&shortWriter{n: limit}), "toc", children)
			require.ErrorIs(t, err, errShortWrite)
		})
	}
	require.NoError(t, writeTOCBody(binutil.NewSafeWriter(&shortWriter{n: tocSize}), "toc", children))
}
