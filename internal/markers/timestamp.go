package markers

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var errTimestamp = errors.New("want [[H:]MM:]SS[.fff]")

// MaxTimestamp is the latest time a chapter frame can hold: 2^32-1 ms.
const MaxTimestamp = time.Duration(math.MaxUint32) * time.Millisecond

var errTimestampRange = errors.New("timestamp exceeds " + MaxTimestamp.String())

// ParseTimestamp parses a marker timestamp of the form [[H:]M:]S[.fraction].
//
// Audition writes short sessions as "1:30.500" and long ones as
// "0:01:30.500"; both parse to 90.5s. The fraction is decimal and may have
// one to nine digits. Minutes and seconds must stay below 60 whenever a
// larger unit precedes them, and the total may not exceed MaxTimestamp.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errTimestamp
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	parts := strings.Split(whole, ":")
	if len(parts) > 3 {
		return 0, errTimestamp
	}

	units := []time.Duration{time.Second, time.Minute, time.Hour}
	var total time.Duration
	for i := range parts {
		// walk from seconds upward
		field := parts[len(parts)-1-i]
		if field == "" || !isDigits(field) {
			return 0, errTimestamp
		}
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return 0, errTimestamp
		}
		if i < 2 && i < len(parts)-1 && v >= 60 {
			return 0, errors.New("minutes and seconds must be below 60")
		}
		if time.Duration(v) > MaxTimestamp/units[i] {
			return 0, errTimestampRange
		}
		total += time.Duration(v) * units[i]
		if total > MaxTimestamp {
			return 0, errTimestampRange
		}
	}

	if hasFrac {
		if frac == "" || len(frac) > 9 || !isDigits(frac) {
			return 0, errTimestamp
		}
		padded := frac + strings.Repeat("0", 9-len(frac))
		ns, err := strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, errTimestamp
		}
		total += time.Duration(ns)
		if total > MaxTimestamp {
			return 0, errTimestampRange
		}
	}

	return total, nil
}

// FormatTimestamp renders d in the H:MM:SS.fff form ParseTimestamp accepts.
func FormatTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	sec := ms / 1000 % 60
	return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + pad2(sec) + "." + pad3(ms%1000)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

func pad3(v int64) string {
	switch {
	case v < 10:
		return "00" + strconv.FormatInt(v, 10)
	case v < 100:
		return "0" + strconv.FormatInt(v, 10)
	default:
		return strconv.FormatInt(v, 10)
	}
}
