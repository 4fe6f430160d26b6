package chapters

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newfla/presquile/internal/markers"
	"github.com/newfla/presquile/internal/types"
)

func ms(v int64) time.Duration { return time.Duration(v) * time.Millisecond }

func TestBuild_IntroVerseOutro(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "Intro", Start: 0},
		{Row: 3, Name: "Verse", Start: ms(90500)},
		{Row: 4, Name: "Outro", Start: ms(180000), End: ms(225250), HasEnd: true},
	}

	got, err := BuildSlice(input, Options{})
	require.NoError(t, err)

	want := []types.Chapter{
		{Index: 0, ID: "chp0", Title: "Intro", StartMS: 0, EndMS: 90500},
		{Index: 1, ID: "chp1", Title: "Verse", StartMS: 90500, EndMS: 180000},
		{Index: 2, ID: "chp2", Title: "Outro", StartMS: 180000, EndMS: 225250},
	}
	assert.Equal(t, want, got)
	assert.NoError(t, Validate(got))
}

func TestBuild_FromParser(t *testing.T) {
	p := markers.NewParser([]byte("Name,Start,End\nIntro,0:00:00.000,\nVerse,0:01:30.500,\nOutro,0:03:00.000,0:03:45.250\n"))

	got, err := Build(p.Records(), Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(225250), got[2].EndMS)
}

func TestBuild_Unordered(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "A", Start: 2 * time.Minute},
		{Row: 3, Name: "B", Start: time.Minute + 59*time.Second},
	}

	_, err := BuildSlice(input, Options{TotalDuration: time.Hour})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnorderedMarkers))

	var unordered *types.UnorderedMarkersError
	require.True(t, errors.As(err, &unordered))
	assert.Equal(t, 3, unordered.Row)
	assert.Equal(t, "B", unordered.Name)
}

func TestBuild_EqualMillisecondsAreUnordered(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "A", Start: ms(1000)},
		{Row: 3, Name: "B", Start: ms(1000) + 400*time.Microsecond},
	}

	_, err := BuildSlice(input, Options{TotalDuration: time.Minute})
	assert.True(t, errors.Is(err, types.ErrUnorderedMarkers))
}

func TestBuild_FinalEnd(t *testing.T) {
	last := types.Marker{Row: 3, Name: "Last", Start: time.Minute}
	first := types.Marker{Row: 2, Name: "First", Start: 0}

	t.Run("total duration closes last chapter", func(t *testing.T) {
		got, err := BuildSlice([]types.Marker{first, last}, Options{TotalDuration: 2*time.Minute + 500*time.Microsecond})
		require.NoError(t, err)
		assert.Equal(t, uint64(120000), got[1].EndMS)
	})

	t.Run("explicit end wins over total duration", func(t *testing.T) {
		withEnd := last
		withEnd.End, withEnd.HasEnd = 90*time.Second, true
		got, err := BuildSlice([]types.Marker{first, withEnd}, Options{TotalDuration: time.Hour})
		require.NoError(t, err)
		assert.Equal(t, uint64(90000), got[1].EndMS)
	})

	t.Run("unknown total duration fails", func(t *testing.T) {
		_, err := BuildSlice([]types.Marker{first, last}, Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMissingFinalChapterEnd))

		var missing *types.MissingFinalChapterEndError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, 3, missing.Row)
	})

	t.Run("total duration before last start fails", func(t *testing.T) {
		_, err := BuildSlice([]types.Marker{first, last}, Options{TotalDuration: 30 * time.Second})
		assert.True(t, errors.Is(err, types.ErrMissingFinalChapterEnd))
	})
}

func TestBuild_MiddleExplicitEndIsSuperseded(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "A", Start: 0, End: ms(500), HasEnd: true},
		{Row: 3, Name: "B", Start: ms(1000), End: ms(2000), HasEnd: true},
	}

	got, err := BuildSlice(input, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got[0].EndMS, "gap closed by next start")
	assert.NoError(t, Validate(got))
}

func TestBuild_Titles(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "  Intro \t", Start: 0},
		{Row: 3, Name: "", Start: ms(1000)},
		{Row: 4, Name: "Cafe\u0301", Start: ms(2000)},
		{Row: 5, Name: "line\nbreak", Start: ms(3000), End: ms(4000), HasEnd: true},
	}

	got, err := BuildSlice(input, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Intro", got[0].Title)
	assert.Equal(t, "Chapter 2", got[1].Title)
	assert.Equal(t, "Caf\u00e9", got[2].Title, "decomposed accent composed to NFC")
	assert.Equal(t, "linebreak", got[3].Title)
}

func TestBuild_CustomOptions(t *testing.T) {
	input := []types.Marker{
		{Row: 2, Name: "", Start: 0, End: ms(10), HasEnd: true},
	}

	got, err := BuildSlice(input, Options{IDPrefix: "ch", Placeholder: "Part"})
	require.NoError(t, err)
	assert.Equal(t, "ch0", got[0].ID)
	assert.Equal(t, "Part 1", got[0].Title)
}

func TestBuild_PropagatesRecordError(t *testing.T) {
	_, err := Build(markers.NewParser([]byte("Name,Start\nA,bad\n")).Records(), Options{})
	assert.True(t, errors.Is(err, types.ErrMalformedMarkerRow))

	_, err = BuildSlice(nil, Options{})
	assert.True(t, errors.Is(err, types.ErrNoMarkersFound))
}

// Any strictly increasing sequence yields one chapter per marker with no
// gaps and no overlaps.
func TestBuild_ContiguityProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.IntN(40)
		input := make([]types.Marker, n)
		var at time.Duration
		for i := range input {
			at += ms(1 + rng.Int64N(600_000))
			input[i] = types.Marker{Row: i + 2, Name: fmt.Sprintf("m%d", i), Start: at}
		}
		total := at + ms(1+rng.Int64N(10_000))

		got, err := BuildSlice(input, Options{TotalDuration: total})
		require.NoError(t, err)
		require.Len(t, got, n)
		require.NoError(t, Validate(got))
		assert.Equal(t, input[0].StartMS(), got[0].StartMS)
		assert.Equal(t, uint64(total/time.Millisecond), got[n-1].EndMS)
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate([]types.Chapter{{ID: "a", StartMS: 5, EndMS: 5}}))
	assert.Error(t, Validate([]types.Chapter{
		{ID: "a", StartMS: 0, EndMS: 5},
		{ID: "b", StartMS: 6, EndMS: 9},
	}))
	assert.NoError(t, Validate(nil))
}
