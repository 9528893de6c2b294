package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate_StripsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	d := NewDate(time.Date(2020, 1, 5, 23, 59, 0, 0, loc))

	assert.Equal(t, "2020-01-05", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-02-10")
	require.NoError(t, err)
	assert.Equal(t, "2020-02-10", d.String())

	_, err = ParseDate("02/10/2020")
	require.Error(t, err)
}

func TestDate_Ordering(t *testing.T) {
	a := MustDate("2020-01-01")
	b := MustDate("2020-01-02")

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, a.Equal(MustDate("2020-01-01")))
}

func TestDate_Zero(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
	assert.Nil(t, d.Ptr())
	assert.True(t, NewDate(time.Time{}).IsZero())
}
