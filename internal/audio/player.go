// Package audio plays a verse recitation by handing its URL to an external
// media player.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"quran-player/internal/apperrors"
)

type Config struct {
	// Command plays one URL appended as its last argument, e.g.
	// "mpv --no-video --really-quiet". Empty disables playback.
	Command string `yaml:"command" env:"COMMAND"`
}

// CommandRunner runs name with args until it exits or ctx is cancelled.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Player streams recitations through the configured command. The command is
// split on whitespace; no shell quoting is applied.
type Player struct {
	args   []string
	run    CommandRunner
	logger *zap.Logger
}

type Option func(*Player)

// WithCommandRunner replaces process execution.
func WithCommandRunner(r CommandRunner) Option {
	return func(p *Player) { p.run = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Player) { p.logger = l }
}

func New(command string, opts ...Option) *Player {
	p := &Player{
		args:   strings.Fields(command),
		run:    execRunner,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enabled reports whether a player command is configured.
func (p *Player) Enabled() bool {
	return len(p.args) > 0
}

// Play blocks until the recitation at url ends. Cancelling ctx stops the
// player and is not an error.
func (p *Player) Play(ctx context.Context, url string) error {
	if !p.Enabled() {
		return apperrors.Wrap(apperrors.CodeUnsupported, "audio playback is not configured", nil)
	}
	if url == "" {
		return apperrors.Wrap(apperrors.CodeValidation, "no audio to play", nil)
	}

	args := append(slices.Clone(p.args[1:]), url)
	p.logger.Debug("playback started", zap.String("player", p.args[0]), zap.String("url", url))
	start := time.Now()

	err := p.run(ctx, p.args[0], args...)
	if ctx.Err() != nil {
		p.logger.Debug("playback stopped", zap.String("url", url), zap.Duration("elapsed", time.Since(start)))
		return nil
	}
	if err != nil {
		p.logger.Warn("playback failed", zap.String("url", url), zap.Error(err))
		if errors.Is(err, exec.ErrNotFound) {
			return apperrors.Wrap(apperrors.CodeUnsupported, fmt.Sprintf("audio player %q not found", p.args[0]), err)
		}
		return apperrors.Wrap(apperrors.CodeNetwork, "audio playback failed", err)
	}
	p.logger.Debug("playback finished", zap.String("url", url), zap.Duration("elapsed", time.Since(start)))
	return nil
}
