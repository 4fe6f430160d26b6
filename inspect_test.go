package presquile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newfla/presquile"
)

func TestInspect_Untouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mp3")
	require.NoError(t, os.WriteFile(path, createTestMP3(20), 0o644))

	in, err := presquile.Inspect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "2.4.0", in.Version)
	assert.Empty(t, in.Chapters)
	assert.Empty(t, in.TOCs)
	require.Len(t, in.Frames, 2)
	assert.Equal(t, "TIT2", in.Frames[0].ID)
	assert.Equal(t, "TPE1", in.Frames[1].ID)
	assert.Equal(t, 256, in.Padding)
	assert.Positive(t, in.Duration)
}

func TestInspect_AfterApply(t *testing.T) {
	f := newFixture(t, exampleMarkers)
	_, err := presquile.Apply(context.Background(), f.markers, f.media)
	require.NoError(t, err)

	in, err := presquile.Inspect(context.Background(), f.media)
	require.NoError(t, err)

	ids := make([]string, 0, len(in.Frames))
	for _, fr := range in.Frames {
		ids = append(ids, fr.ID)
	}
	assert.Equal(t, []string{"TIT2", "TPE1", "CHAP", "CHAP", "CHAP", "CTOC"}, ids)
	assert.Equal(t, 256, in.Padding)
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := presquile.Inspect(context.Background(), filepath.Join(dir, "missing.mp3"))
	assert.ErrorIs(t, err, presquile.ErrIOFailure)

	raw := filepath.Join(dir, "raw.bin")
	require.NoError(t, os.WriteFile(raw, []byte("RIFF....WAVE"), 0o644))
	_, err = presquile.Inspect(context.Background(), raw)
	assert.ErrorIs(t, err, presquile.ErrTagRegionNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = presquile.Inspect(ctx, raw)
	assert.ErrorIs(t, err, context.Canceled)
}
