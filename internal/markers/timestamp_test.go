package markers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0:00:00.000", 0},
		{"0:01:30.500", 90*time.Second + 500*time.Millisecond},
		{"1:30.500", 90*time.Second + 500*time.Millisecond},
		{"0:02:00", 2 * time.Minute},
		{"12.5", 12*time.Second + 500*time.Millisecond},
		{"90:00.000", 90 * time.Minute},
		{"1:00:00.001", time.Hour + time.Millisecond},
		{" 0:00:01.123456789 ", time.Second + 123456789*time.Nanosecond},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "0:60:00.000", "0:00:60", "1.", ".5", "0:-1:00", "0::01", "0:00:01.1234567890",
		"5124096:00:00.000", "3000000:00:00.000", "1193:02:47.296", "4294967:17", "4294967296"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			assert.Error(t, err)
		})
	}
}

func TestParseTimestamp_Limit(t *testing.T) {
	got, err := ParseTimestamp("1193:02:47.295")
	require.NoError(t, err)
	assert.Equal(t, MaxTimestamp, got)

	_, err = ParseTimestamp("1193:02:47.295000001")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "0:01:30.500", FormatTimestamp(90*time.Second+500*time.Millisecond))
	assert.Equal(t, "2:00:00.007", FormatTimestamp(2*time.Hour+7*time.Millisecond))

	back, err := ParseTimestamp(FormatTimestamp(225250 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 225250*time.Millisecond, back)
}
