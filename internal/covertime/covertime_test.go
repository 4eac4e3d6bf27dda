package covertime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromTime(t *testing.T) {
	t.Run("round trips through ToTime", func(t *testing.T) {
		src := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
		ts, err := FromTime(src)
		require.NoError(t, err)
		require.Equal(t, src, ts.ToTime())
	})

	t.Run("rejects pre-epoch times", func(t *testing.T) {
		src := time.Date(1969, time.December, 31, 23, 59, 59, 0, time.UTC)
		_, err := FromTime(src)
		require.Error(t, err)
	})
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(1000)
	require.Equal(t, Timestamp(1000), clock.Now())

	clock.Advance(500)
	require.Equal(t, Timestamp(1500), clock.Now())

	clock.Set(100)
	require.Equal(t, Timestamp(100), clock.Now())
}

func TestFromStdDuration(t *testing.T) {
	require.Equal(t, Duration(259200), FromStdDuration(72*time.Hour))
	require.Equal(t, Duration(0), FromStdDuration(-time.Hour))
	require.Equal(t, Duration(1), FromStdDuration(1500*time.Millisecond))
}
