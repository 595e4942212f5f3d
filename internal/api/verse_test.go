package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quran-player/internal/apperrors"
)

func TestAudioURL(t *testing.T) {
	require.Equal(t, DefaultAudioBaseURL+"/002005.mp3", AudioURL("", 2, 5))
	require.Equal(t, "https://example.com/mp3/114006.mp3", AudioURL("https://example.com/mp3/", 114, 6))
	require.Equal(t, "https://example.com/001001.mp3", AudioURL("https://example.com", 1, 1))
}

func TestParseVerseKey(t *testing.T) {
	chapter, verse, err := ParseVerseKey("2:255")
	require.NoError(t, err)
	require.Equal(t, 2, chapter)
	require.Equal(t, 255, verse)

	chapter, verse, err = ParseVerseKey(" 2:0 ")
	require.NoError(t, err)
	require.Equal(t, 2, chapter)
	require.Equal(t, 0, verse)

	for _, bad := range []string{"", "2", "x:1", "0:1", "2:x", ":"} {
		_, _, err := ParseVerseKey(bad)
		require.Error(t, err, bad)
		require.True(t, apperrors.IsCode(err, apperrors.CodeValidation), bad)
	}
}

func TestVerseKey(t *testing.T) {
	require.Equal(t, "2:5", VerseKey(2, 5))
}
