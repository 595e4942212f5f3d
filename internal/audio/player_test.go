package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quran-player/internal/apperrors"
)

const verseURL = "https://verses.quran.com/AbdulBaset/Mujawwad/mp3/002255.mp3"

type call struct {
	name string
	args []string
}

func recordingRunner(calls *[]call, err error) CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args})
		return err
	}
}

func TestPlay_AppendsURL(t *testing.T) {
	var calls []call
	p := New("mpv --no-video  --really-quiet", WithCommandRunner(recordingRunner(&calls, nil)), WithLogger(zaptest.NewLogger(t)))
	require.True(t, p.Enabled())

	require.NoError(t, p.Play(context.Background(), verseURL))
	require.NoError(t, p.Play(context.Background(), verseURL))

	require.Len(t, calls, 2)
	require.Equal(t, "mpv", calls[0].name)
	require.Equal(t, []string{"--no-video", "--really-quiet", verseURL}, calls[0].args)
	require.Equal(t, calls[0], calls[1], "the configured arguments must not accumulate urls")
}

func TestPlay_Disabled(t *testing.T) {
	var calls []call
	p := New("   ", WithCommandRunner(recordingRunner(&calls, nil)))
	require.False(t, p.Enabled())

	err := p.Play(context.Background(), verseURL)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnsupported))
	require.Empty(t, calls)
}

func TestPlay_EmptyURL(t *testing.T) {
	var calls []call
	p := New("mpv", WithCommandRunner(recordingRunner(&calls, nil)))

	err := p.Play(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	require.Empty(t, calls)
}

func TestPlay_Failures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "player missing", err: fmt.Errorf("run mpv: %w", exec.ErrNotFound), wantCode: apperrors.CodeUnsupported},
		{name: "stream failed", err: errors.New("exit status 2: failed to open"), wantCode: apperrors.CodeNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls []call
			p := New("mpv", WithCommandRunner(recordingRunner(&calls, tc.err)), WithLogger(zaptest.NewLogger(t)))

			err := p.Play(context.Background(), verseURL)
			require.True(t, apperrors.IsCode(err, tc.wantCode), "got %v", err)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestPlay_CancelStops(t *testing.T) {
	started := make(chan struct{})
	p := New("mpv", WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error {
		close(started)
		<-ctx.Done()
		return errors.New("signal: killed")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Play(ctx, verseURL) }()

	<-started
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Play did not return after cancel")
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	require.NoError(t, execRunner(context.Background(), "sh", "-c", "exit 0"))

	err := execRunner(context.Background(), "sh", "-c", "echo broken stream >&2; exit 3")
	require.ErrorContains(t, err, "broken stream")

	err = execRunner(context.Background(), "quran-player-no-such-binary")
	require.ErrorIs(t, err, exec.ErrNotFound)
}
