package api

import (
	"fmt"
	"strconv"
	"strings"

	"quran-player/internal/apperrors"
)

// DefaultAudioBaseURL serves one mp3 per verse.
const DefaultAudioBaseURL = "https://verses.quran.com/AbdulBaset/Mujawwad/mp3"

// VerseKey formats "<chapter>:<verse>".
func VerseKey(chapter, verse int) string {
	return strconv.Itoa(chapter) + ":" + strconv.Itoa(verse)
}

// ParseVerseKey splits "<chapter>:<verse>" into its numbers. It does not check
// ranges beyond both being positive integers.
func ParseVerseKey(key string) (chapter, verse int, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("verse key %q is not chapter:verse", key), nil)
	}
	chapter, err = strconv.Atoi(left)
	if err != nil || chapter < 1 {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("invalid chapter in verse key %q", key), err)
	}
	verse, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("invalid verse in verse key %q", key), err)
	}
	return chapter, verse, nil
}

// AudioURL builds "<base>/<CCC><VVV>.mp3" with both numbers zero-padded to
// three digits.
func AudioURL(base string, chapter, verse int) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		base = DefaultAudioBaseURL
	}
	return fmt.Sprintf("%s/%03d%03d.mp3", base, chapter, verse)
}
