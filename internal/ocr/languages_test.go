package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLanguage(t *testing.T) {
	tests := map[string]string{
		"en":    "en",
		"EN":    "en",
		"en-US": "en",
		"pl":    "pl",
		" pl ":  "pl",
	}
	for in, want := range tests {
		got, err := CanonicalLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "not a language", "12"} {
		_, err := CanonicalLanguage(bad)
		assert.ErrorIs(t, err, ErrUnsupportedLanguage, bad)
	}
}

func TestISO3(t *testing.T) {
	got, err := ISO3("en")
	require.NoError(t, err)
	assert.Equal(t, "eng", got)

	got, err = ISO3("pl")
	require.NoError(t, err)
	assert.Equal(t, "pol", got)
}

func TestAllowList_Resolve(t *testing.T) {
	al, err := NewAllowList([]string{"en", "pl", "EN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "pl"}, al.Codes())

	got, err := al.Resolve([]string{"pl", "en", "pl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pl", "en"}, got)

	_, err = al.Resolve(nil)
	assert.ErrorIs(t, err, ErrNoLanguage)

	_, err = al.Resolve([]string{"en", "de"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Contains(t, err.Error(), "allowed: en, pl")
}

func TestNewAllowList_Empty(t *testing.T) {
	_, err := NewAllowList(nil)
	assert.ErrorIs(t, err, ErrNoLanguage)
}

func TestCacheKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, cacheKey([]string{"pl", "en"}), cacheKey([]string{"en", "pl"}))
	assert.NotEqual(t, cacheKey([]string{"en"}), cacheKey([]string{"en", "pl"}))
}
