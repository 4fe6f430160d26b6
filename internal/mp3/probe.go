// Package mp3 probes MPEG audio frames for the stream duration. The
// duration closes the last chapter when the marker file gives it no end.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	binutil "github.com/newfla/presquile/internal/binary"
)

// maxSyncSearch bounds how far past the tag the first frame is searched for.
const maxSyncSearch = 1 << 20

// Version is the MPEG audio version of a stream.
type Version int

const (
	MPEG25 Version = iota // unofficial 2.5 extension
	_
	MPEG2
	MPEG1
)

func (v Version) String() string {
	switch v {
	case MPEG1:
		return "MPEG-1"
	case MPEG2:
		return "MPEG-2"
	case MPEG25:
		return "MPEG-2.5"
	default:
		return "unknown"
	}
}

// Layer III bitrates in kbps, indexed by the 4-bit bitrate index.
var (
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// Sample rates in Hz, indexed by version then the 2-bit rate index.
var sampleRates = map[Version][3]int{
	MPEG1:  {44100, 48000, 32000},
	MPEG2:  {22050, 24000, 16000},
	MPEG25: {11025, 12000, 8000},
}

// Info describes the audio stream found after the tag.
type Info struct {
	Version     Version
	Duration    time.Duration
	FrameOffset int64 // offset of the first audio frame
	Frames      uint32
	Bitrate     int // bits per second; average for VBR streams
	SampleRate  int
	Channels    int
	VBR         bool
}

// frameHeader is a decoded 4-byte MPEG audio frame header.
type frameHeader struct {
	version    Version
	bitrate    int
	sampleRate int
	channels   int
	padding    int
}

// samplesPerFrame returns the Layer III frame length in samples.
func (h frameHeader) samplesPerFrame() int {
	if h.version == MPEG1 {
		return 1152
	}
	return 576
}

// size returns the frame length in bytes.
func (h frameHeader) size() int {
	return h.samplesPerFrame()/8*h.bitrate/h.sampleRate + h.padding
}

// sideInfoSize returns the Layer III side information length, after which
// a Xing or Info header sits.
func (h frameHeader) sideInfoSize() int {
	switch {
	case h.version == MPEG1 && h.channels == 1:
		return 17
	case h.version == MPEG1:
		return 32
	case h.channels == 1:
		return 9
	default:
		return 17
	}
}

// Duration returns only the duration of the stream.
func Duration(r io.ReaderAt, size, tagSize int64, path string) (time.Duration, error) {
	info, err := Probe(r, size, tagSize, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// Probe locates the first Layer III frame at or after tagSize and derives
// the duration from a Xing, Info or VBRI header, falling back to a
// constant bitrate estimate over the payload.
func Probe(r io.ReaderAt, size, tagSize int64, path string) (Info, error) {
	sr := binutil.NewSafeReader(r, size, path)

	window := size - tagSize
	if window > maxSyncSearch+4 {
		window = maxSyncSearch + 4
	}
	if window < 4 {
		return Info{}, fmt.Errorf("%s: no audio after %d byte tag", path, tagSize)
	}
	buf := make([]byte, window)
	if err := sr.ReadAt(buf, tagSize, "audio frames"); err != nil {
		return Info{}, err
	}

	for i := 0; i+4 <= len(buf); i++ {
		h, ok := parseFrameHeader(binary.BigEndian.Uint32(buf[i:]))
		if !ok {
			continue
		}
		// a second header right after the first rules out stray sync bits
		if next := i + h.size(); next+4 <= len(buf) {
			if _, ok := parseFrameHeader(binary.BigEndian.Uint32(buf[next:])); !ok {
				continue
			}
		}
		return probeFrom(sr, h, tagSize+int64(i), size), nil
	}

	return Info{}, fmt.Errorf("%s: no MPEG audio frame found", path)
}

func probeFrom(sr *binutil.SafeReader, h frameHeader, offset, size int64) Info {
	info := Info{
		Version:     h.version,
		FrameOffset: offset,
		Bitrate:     h.bitrate,
		SampleRate:  h.sampleRate,
		Channels:    h.channels,
	}
	spf := uint64(h.samplesPerFrame())
	audioBytes := max(payloadEnd(sr, size)-offset, 0)

	if frames, ok := vbrFrames(sr, h, offset); ok && frames > 0 {
		info.VBR = true
		info.Frames = frames
		info.Duration = perSecond(uint64(frames)*spf, h.sampleRate)
		if secs := info.Duration.Seconds(); secs > 0 {
			info.Bitrate = int(float64(audioBytes) * 8 / secs)
		}
		return info
	}

	info.Duration = perSecond(uint64(audioBytes)*8, h.bitrate)
	if fs := h.size(); fs > 0 {
		info.Frames = uint32(audioBytes / int64(fs))
	}
	return info
}

// vbrFrames reads the frame count from a Xing/Info header after the side
// information, or a VBRI header 32 bytes after the frame header.
func vbrFrames(sr *binutil.SafeReader, h frameHeader, offset int64) (uint32, bool) {
	buf := make([]byte, 12)
	if err := sr.ReadAt(buf, offset+4+int64(h.sideInfoSize()), "Xing header"); err == nil {
		if tag := string(buf[0:4]); tag == "Xing" || tag == "Info" {
			flags := binary.BigEndian.Uint32(buf[4:8])
			if flags&0x1 == 0 {
				return 0, false
			}
			return binary.BigEndian.Uint32(buf[8:12]), true
		}
	}

	vbri := make([]byte, 18)
	if err := sr.ReadAt(vbri, offset+4+32, "VBRI header"); err == nil && string(vbri[0:4]) == "VBRI" {
		return binary.BigEndian.Uint32(vbri[14:18]), true
	}
	return 0, false
}

// payloadEnd returns the end of the audio, excluding a trailing ID3v1 tag.
func payloadEnd(sr *binutil.SafeReader, size int64) int64 {
	if size < 128 {
		return size
	}
	buf := make([]byte, 3)
	if err := sr.ReadAt(buf, size-128, "ID3v1 tag"); err == nil && string(buf) == "TAG" {
		return size - 128
	}
	return size
}

// perSecond converts n units at rate units per second into a duration
// without overflowing on long streams.
func perSecond(n uint64, rate int) time.Duration {
	r := uint64(rate)
	return time.Duration(n/r)*time.Second + time.Duration(n%r*uint64(time.Second)/r)
}

// parseFrameHeader validates a Layer III frame header.
func parseFrameHeader(v uint32) (frameHeader, bool) {
	if v&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, false
	}
	version := Version((v >> 19) & 0x3)
	if version == 1 {
		return frameHeader{}, false
	}
	if layer := (v >> 17) & 0x3; layer != 1 {
		return frameHeader{}, false
	}

	rateIdx := (v >> 10) & 0x3
	if rateIdx == 3 {
		return frameHeader{}, false
	}
	bitrateIdx := (v >> 12) & 0xF
	kbps := bitratesV1[bitrateIdx]
	if version != MPEG1 {
		kbps = bitratesV2[bitrateIdx]
	}
	if kbps == 0 {
		// free format and bad indexes cannot be sized
		return frameHeader{}, false
	}

	h := frameHeader{
		version:    version,
		bitrate:    kbps * 1000,
		sampleRate: sampleRates[version][rateIdx],
		channels:   2,
		padding:    int((v >> 9) & 0x1),
	}
	if (v>>6)&0x3 == 3 {
		h.channels = 1
	}
	return h, true
}
