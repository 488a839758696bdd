package models

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2022, 8, 27, 10, 0, 3, 7_000_000, loc)

	assert.Equal(t, "2022-08-27T02:00:03.007Z", FormatTime(ts))
}

func TestParseTime(t *testing.T) {
	ts, err := ParseTime("2022-08-27T02:05:29.000Z")
	require.NoError(t, err)
	assert.Equal(t, 2022, ts.Year())

	for _, bad := range []string{
		"not-a-date",
		"2022-08-27T02:05:29Z",
		"2022-08-27T02:05:29.0000Z",
		"2022-13-27T02:05:29.000Z",
		"",
	} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
		assert.False(t, ValidTime(bad), bad)
	}
}

func TestFormattedTimesSortLexically(t *testing.T) {
	base := time.Date(2021, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
	times := []time.Time{base.Add(time.Millisecond), base, base.Add(-time.Hour), base.AddDate(1, 0, 0)}

	formatted := make([]string, len(times))
	for i, ts := range times {
		formatted[i] = FormatTime(ts)
	}
	sort.Strings(formatted)

	for i := 1; i < len(formatted); i++ {
		prev, _ := ParseTime(formatted[i-1])
		cur, _ := ParseTime(formatted[i])
		assert.True(t, prev.Before(cur))
	}
}
