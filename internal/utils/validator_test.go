package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))

	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("no-at-sign"))
	assert.False(t, ValidateEmail("user@nodot"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", SanitizeEmail("  User@Example.COM "))
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+14155550123":      "+14155550123",
		"+1 (415) 555-0123": "+14155550123",
		"(415) 555-0123":    "+14155550123",
		"415-555-0123":      "+14155550123",
		"14155550123":       "+14155550123",
		"+442071838750":     "+442071838750",
	}
	for raw, want := range cases {
		got, err := NormalizePhone(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "555-0123", "not-a-number", "+12"} {
		_, err := NormalizePhone(raw)
		assert.Error(t, err, raw)
	}
}
