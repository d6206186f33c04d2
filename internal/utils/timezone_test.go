package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation_ValidZone(t *testing.T) {
	loc, err := ResolveLocation("America/New_York", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestResolveLocation_EmptyUsesDefault(t *testing.T) {
	loc, err := ResolveLocation("", "Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestResolveLocation_InvalidFallsBackWithWarning(t *testing.T) {
	loc, err := ResolveLocation("Mars/Olympus", "Europe/Berlin")
	assert.Error(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestResolveLocation_DoubleFallbackToUTC(t *testing.T) {
	loc, err := ResolveLocation("Mars/Olympus", "Pluto/Charon")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidTimezone(t *testing.T) {
	assert.True(t, ValidTimezone("UTC"))
	assert.True(t, ValidTimezone("Asia/Tokyo"))
	assert.False(t, ValidTimezone(""))
	assert.False(t, ValidTimezone("Mars/Olympus"))
}
