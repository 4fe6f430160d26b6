package presquile_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newfla/presquile"
)

const exampleMarkers = "Name\tStart\tDuration\tTime Format\tType\tDescription\n" +
	"Intro\t0:00.000\t0:00.000\tdecimal\tCue\t\n" +
	"Verse\t1:30.500\t0:00.000\tdecimal\tCue\t\n" +
	"Outro\t3:00.000\t0:45.250\tdecimal\tCue\t\n"

// frame128k is an MPEG-1 Layer III header: 128 kbps, 44.1 kHz, stereo.
// Each frame is 417 bytes long.
const frame128k uint32 = 0xFFFB9000

// createTestMP3 builds an MP3 with an ID3v2.4 tag holding TIT2 and TPE1,
// 256 bytes of padding and n constant bitrate audio frames.
func createTestMP3(n int) []byte {
	var frames []byte
	for _, f := range [][2]string{{"TIT2", "Episode 1"}, {"TPE1", "Host"}} {
		body := append([]byte{3}, f[1]...)
		frames = append(frames, f[0]...)
		frames = append(frames, 0, 0, 0, byte(len(body)), 0, 0)
		frames = append(frames, body...)
	}
	size := len(frames) + 256

	buf := &bytes.Buffer{}
	buf.WriteString("ID3")
	buf.Write([]byte{4, 0, 0, 0, 0, byte(size >> 7), byte(size & 0x7F)})
	buf.Write(frames)
	buf.Write(make([]byte, 256))

	audio := make([]byte, 417)
	binary.BigEndian.PutUint32(audio, frame128k)
	for range n {
		buf.Write(audio)
	}
	return buf.Bytes()
}

type fixture struct {
	dir     string
	markers string
	media   string
}

func newFixture(t *testing.T, markers string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		markers: filepath.Join(dir, "markers.csv"),
		media:   filepath.Join(dir, "episode.mp3"),
	}
	require.NoError(t, os.WriteFile(f.markers, []byte(markers), 0o644))
	require.NoError(t, os.WriteFile(f.media, createTestMP3(100), 0o644))
	return f
}

func checksum(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return sha256.Sum256(data)
}

func TestApply_ExampleMarkers(t *testing.T) {
	f := newFixture(t, exampleMarkers)

	res, err := presquile.Apply(context.Background(), f.markers, f.media)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, f.media, res.Output)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Written)

	want := []presquile.Chapter{
		{ID: "chp0", Index: 0, Title: "Intro", StartMS: 0, EndMS: 90500},
		{ID: "chp1", Index: 1, Title: "Verse", StartMS: 90500, EndMS: 180000},
		{ID: "chp2", Index: 2, Title: "Outro", StartMS: 180000, EndMS: 225250},
	}
	assert.Equal(t, want, res.Chapters)

	in, err := presquile.Inspect(context.Background(), f.media)
	require.NoError(t, err)
	assert.Equal(t, want, in.Chapters)
	require.Len(t, in.TOCs, 1)
	assert.Equal(t, []string{"chp0", "chp1", "chp2"}, in.TOCs[0].Children)
	assert.True(t, in.TOCs[0].TopLevel)
	assert.True(t, in.TOCs[0].Ordered)
	assert.Empty(t, in.Warnings)
}

func TestApply_UnorderedMarkers(t *testing.T) {
	f := newFixture(t, "Name,Start\nA,0:02:00\nB,0:01:59\n")
	before := checksum(t, f.media)

	_, err := presquile.Apply(context.Background(), f.markers, f.media)
	require.Error(t, err)
	assert.True(t, errors.Is(err, presquile.ErrUnorderedMarkers))
	assert.Equal(t, "UnorderedMarkers", presquile.KindOf(err))

	var unordered *presquile.UnorderedMarkersError
	require.ErrorAs(t, err, &unordered)
	assert.Equal(t, "B", unordered.Name)
	assert.Equal(t, before, checksum(t, f.media))
}

func TestApply_EmptyMarkerFile(t *testing.T) {
	f := newFixture(t, "")
	before := checksum(t, f.media)

	_, err := presquile.Apply(context.Background(), f.markers, f.media)
	require.Error(t, err)
	assert.True(t, errors.Is(err, presquile.ErrNoMarkersFound))
	assert.Equal(t, before, checksum(t, f.media))
}

func TestApply_Idempotent(t *testing.T) {
	a := newFixture(t, exampleMarkers)
	b := newFixture(t, exampleMarkers)

	_, err := presquile.Apply(context.Background(), a.markers, a.media)
	require.NoError(t, err)
	_, err = presquile.Apply(context.Background(), b.markers, b.media)
	require.NoError(t, err)
	assert.Equal(t, checksum(t, a.media), checksum(t, b.media))

	_, err = presquile.Apply(context.Background(), a.markers, a.media)
	require.NoError(t, err)
	assert.Equal(t, checksum(t, b.media), checksum(t, a.media))
}

func TestApply_KeepsPayload(t *testing.T) {
	f := newFixture(t, exampleMarkers)
	original, err := os.ReadFile(f.media)
	require.NoError(t, err)

	res, err := presquile.Apply(context.Background(), f.markers, f.media)
	require.NoError(t, err)

	updated, err := os.ReadFile(f.media)
	require.NoError(t, err)
	payload := original[len(original)-100*417:]
	assert.Equal(t, payload, updated[res.Report.TagSizeAfter:])
}

func TestApply_FinalChapterEnd(t *testing.T) {
	const openEnded = "Name,Start\nOne,0:00.000\nTwo,0:01.000\n"

	t.Run("probed from the stream", func(t *testing.T) {
		f := newFixture(t, openEnded)
		res, err := presquile.Apply(context.Background(), f.markers, f.media)
		require.NoError(t, err)
		// 100 frames of 417 bytes at 128 kbps
		assert.Equal(t, 2606250*time.Microsecond, res.Duration)
		assert.Equal(t, uint64(2606), res.Chapters[1].EndMS)
	})

	t.Run("explicit total duration", func(t *testing.T) {
		f := newFixture(t, openEnded)
		res, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithTotalDuration(90*time.Second))
		require.NoError(t, err)
		assert.Equal(t, uint64(90000), res.Chapters[1].EndMS)
	})

	t.Run("probe disabled", func(t *testing.T) {
		f := newFixture(t, openEnded)
		before := checksum(t, f.media)
		_, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithDurationProbe(false))
		require.Error(t, err)
		assert.Equal(t, "MissingFinalChapterEnd", presquile.KindOf(err))
		assert.Equal(t, before, checksum(t, f.media))
	})
}

func TestApply_Options(t *testing.T) {
	t.Run("output suffix", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		before := checksum(t, f.media)

		res, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithOutputSuffix("_enriched"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(f.dir, "episode_enriched.mp3"), res.Output)
		assert.FileExists(t, res.Output)
		assert.Equal(t, before, checksum(t, f.media))
	})

	t.Run("explicit output", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		out := filepath.Join(f.dir, "out.mp3")
		res, err := presquile.Apply(context.Background(), f.markers, f.media, presquile.WithOutput(out))
		require.NoError(t, err)
		assert.Equal(t, out, res.Output)
		assert.FileExists(t, out)
	})

	t.Run("dry run", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		before := checksum(t, f.media)
		res, err := presquile.Apply(context.Background(), f.markers, f.media, presquile.WithDryRun())
		require.NoError(t, err)
		assert.False(t, res.Report.Written)
		assert.Len(t, res.Chapters, 3)
		assert.Equal(t, before, checksum(t, f.media))
	})

	t.Run("backup", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		before := checksum(t, f.media)
		_, err := presquile.Apply(context.Background(), f.markers, f.media, presquile.WithBackup(".bak"))
		require.NoError(t, err)
		assert.Equal(t, before, checksum(t, f.media+".bak"))
	})

	t.Run("custom ids", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		_, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithIDPrefix("ch"), presquile.WithTOCID("contents"))
		require.NoError(t, err)

		in, err := presquile.Inspect(context.Background(), f.media)
		require.NoError(t, err)
		assert.Equal(t, "ch1", in.Chapters[1].ID)
		assert.Equal(t, "contents", in.TOCs[0].ID)
	})

	t.Run("latin1 overflow", func(t *testing.T) {
		f := newFixture(t, "Name,Start,End\n東京,0:00,0:10\n")
		_, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithTextEncoding(presquile.EncodingLatin1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, presquile.ErrFrameEncodingOverflow))
	})

	t.Run("utf16 titles", func(t *testing.T) {
		f := newFixture(t, "Name,Start,End\n東京,0:00,0:10\n")
		_, err := presquile.Apply(context.Background(), f.markers, f.media,
			presquile.WithTextEncoding(presquile.EncodingUTF16))
		require.NoError(t, err)

		in, err := presquile.Inspect(context.Background(), f.media)
		require.NoError(t, err)
		assert.Equal(t, "東京", in.Chapters[0].Title)
	})
}

func TestApply_Failures(t *testing.T) {
	t.Run("no tag", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		require.NoError(t, os.WriteFile(f.media, []byte("not an mp3 at all"), 0o644))

		_, err := presquile.Apply(context.Background(), f.markers, f.media)
		require.Error(t, err)
		assert.Equal(t, "TagRegionNotFound", presquile.KindOf(err))
	})

	t.Run("missing marker file", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		_, err := presquile.Apply(context.Background(), filepath.Join(f.dir, "nope.csv"), f.media)
		require.Error(t, err)
		assert.True(t, errors.Is(err, presquile.ErrIOFailure))
	})

	t.Run("malformed row", func(t *testing.T) {
		f := newFixture(t, "Name,Start\nIntro,soon\n")
		_, err := presquile.Apply(context.Background(), f.markers, f.media)
		var malformed *presquile.MalformedMarkerRowError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, 2, malformed.Row)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t, exampleMarkers)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := presquile.Apply(ctx, f.markers, f.media)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "Canceled", presquile.KindOf(err))
	})
}

func TestApply_LogsRunID(t *testing.T) {
	f := newFixture(t, exampleMarkers)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := presquile.Apply(context.Background(), f.markers, f.media, presquile.WithLogger(logger))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, res.RunID, entry["run_id"], line)
		assert.Equal(t, f.media, entry["media"])
	}
	assert.Contains(t, buf.String(), `"msg":"apply complete"`)
}

func TestApplyMany(t *testing.T) {
	good1 := newFixture(t, exampleMarkers)
	bad := newFixture(t, "")
	good2 := newFixture(t, "Name,Start,End\nOnly,0:00,0:05\n")

	jobs := []presquile.Job{
		{Markers: good1.markers, Media: good1.media},
		{Markers: bad.markers, Media: bad.media},
		{Markers: good2.markers, Media: good2.media, Output: filepath.Join(good2.dir, "copy.mp3")},
	}

	results, err := presquile.ApplyMany(context.Background(), jobs, presquile.WithConcurrency(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, presquile.ErrNoMarkersFound))
	assert.Contains(t, err.Error(), bad.media)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Chapters, 3)
	assert.True(t, errors.Is(results[1].Err, presquile.ErrNoMarkersFound))
	assert.NoError(t, results[2].Err)
	assert.Equal(t, jobs[2].Output, results[2].Output)
	assert.NotEqual(t, results[0].RunID, results[2].RunID)
}

func TestApplyMany_Empty(t *testing.T) {
	results, err := presquile.ApplyMany(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestApplyMany_Cancelled(t *testing.T) {
	f := newFixture(t, exampleMarkers)
	before := checksum(t, f.media)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := presquile.ApplyMany(ctx, []presquile.Job{{Markers: f.markers, Media: f.media}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Equal(t, before, checksum(t, f.media))
}

func TestSuffixedPath(t *testing.T) {
	assert.Equal(t, "/a/show_enriched.mp3", presquile.SuffixedPath("/a/show.mp3", "_enriched"))
	assert.Equal(t, "noext-x", presquile.SuffixedPath("noext", "-x"))
}
