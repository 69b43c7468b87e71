package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeCursorRoundTrip(t *testing.T) {
	c := EncodeCompositeCursor("2026-01-05 10:00:00.000", 42)
	value, id := DecodeCompositeCursor(&c)
	assert.Equal(t, "2026-01-05 10:00:00.000", value)
	assert.Equal(t, 42, id)

	bad := "not base64!"
	value, id = DecodeCompositeCursor(&bad)
	assert.Empty(t, value)
	assert.Zero(t, id)
	value, id = DecodeCompositeCursor(nil)
	assert.Empty(t, value)
	assert.Zero(t, id)
}

func TestDecodeCursor(t *testing.T) {
	c := EncodeCursor("abc")
	got, err := DecodeCursor(&c)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = DecodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTimeCursorIsUTC(t *testing.T) {
	loc := time.FixedZone("MMT", 6*3600+1800)
	assert.Equal(t, "2026-01-05 03:30:00.000", timeCursor(time.Date(2026, 1, 5, 10, 0, 0, 0, loc)))
}

func TestNormalizeLimit(t *testing.T) {
	n := func(v int) *int { return &v }
	assert.Equal(t, DefaultPageLimit, NormalizeLimit(nil))
	assert.Equal(t, DefaultPageLimit, NormalizeLimit(n(0)))
	assert.Equal(t, 5, NormalizeLimit(n(5)))
	assert.Equal(t, MaxPageLimit, NormalizeLimit(n(1000)))
}
