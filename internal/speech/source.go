package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// AudioSource yields one recorded utterance.
type AudioSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CommandSource runs a recorder and takes its stdout as the audio. The
// command is split on whitespace; no shell quoting is applied.
type CommandSource struct {
	Command string
}

func (s CommandSource) Capture(ctx context.Context) ([]byte, error) {
	args := strings.Fields(s.Command)
	if len(args) == 0 {
		return nil, errors.New("capture command is empty")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s produced no audio", args[0])
	}
	return out, nil
}

// FileSource replays a prerecorded file.
type FileSource struct {
	Path string
}

func (s FileSource) Capture(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio file %s is empty", s.Path)
	}
	return data, nil
}
