package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapFormatsMessage(t *testing.T) {
	err := Wrap(CodeNetwork, "fetch verses", errors.New("connection refused"))
	require.Equal(t, "fetch verses: connection refused", err.Error())

	bare := Wrap(CodeValidation, "verse 0 out of range", nil)
	require.Equal(t, "verse 0 out of range", bare.Error())
}

func TestCodeSurvivesWrapping(t *testing.T) {
	cause := errors.New("deadline")
	err := fmt.Errorf("load chapter 2: %w", Wrap(CodeTimeout, "verses request timed out", cause))

	require.True(t, IsCode(err, CodeTimeout))
	require.True(t, IsNetwork(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, CodeTimeout, CodeOf(err))
}

func TestCodeOfPlainError(t *testing.T) {
	require.Equal(t, "", CodeOf(errors.New("boom")))
	require.False(t, IsNetwork(errors.New("boom")))
	require.False(t, IsNetwork(Wrap(CodeNoMatch, "nothing matched", nil)))
}
