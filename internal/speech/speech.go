// Package speech turns a short recitation into text.
//
// A [Transcriber] is single-shot: one capture, one final transcript, no
// interim results. When no backend is usable the player still gets a
// Transcriber, [Unsupported], whose every call fails with
// apperrors.CodeUnsupported, so a missing capability is an ordinary outcome.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quran-player/internal/apperrors"
)

const (
	BackendNone   = "none"
	BackendGoogle = "google"

	// DefaultLanguage is the recognition language for recitations.
	DefaultLanguage = "ar-SA"
)

// Config selects and tunes the transcription backend.
type Config struct {
	Backend    string `yaml:"backend" env:"BACKEND" env-default:"none"`
	Language   string `yaml:"language" env:"LANGUAGE" env-default:"ar-SA"`
	SampleRate int    `yaml:"sample_rate" env:"SAMPLE_RATE" env-default:"16000"`
	Encoding   string `yaml:"encoding" env:"ENCODING" env-default:"LINEAR16"`
	// CaptureCommand records from the microphone and writes audio to stdout,
	// e.g. "arecord -q -d 6 -f S16_LE -r 16000 -c 1 -t raw".
	CaptureCommand string `yaml:"capture_command" env:"CAPTURE_COMMAND"`
	// AudioFile is a prerecorded recitation used when CaptureCommand is empty.
	AudioFile string        `yaml:"audio_file" env:"AUDIO_FILE"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"30s"`
}

// Validate checks backend-independent settings and, for google, the encoding.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case "", BackendNone:
	case BackendGoogle:
		if _, err := audioEncoding(c.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("speech.encoding: %w", err))
		}
		if c.SampleRate <= 0 {
			errs = append(errs, fmt.Errorf("speech.sample_rate %d must be positive", c.SampleRate))
		}
	default:
		errs = append(errs, fmt.Errorf("speech.backend %q is invalid; valid values: none, google", c.Backend))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("speech.timeout %s must not be negative", c.Timeout))
	}
	return errors.Join(errs...)
}

// Request describes one transcription.
type Request struct {
	// Language is a BCP-47 tag. Empty means [DefaultLanguage].
	Language string
}

// Transcriber is the speech transcription capability.
type Transcriber interface {
	// Transcribe captures one utterance and returns its best transcript.
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Unsupported reports the capability as absent.
type Unsupported struct {
	Reason string
}

func (u Unsupported) Transcribe(context.Context, Request) (string, error) {
	reason := u.Reason
	if reason == "" {
		reason = "speech transcription is not available"
	}
	return "", apperrors.Wrap(apperrors.CodeUnsupported, reason, nil)
}

// New builds the configured Transcriber. Configuration that leaves no usable
// backend yields [Unsupported]; a backend that fails to initialise is logged
// and also yields [Unsupported].
func New(ctx context.Context, cfg Config, logger *zap.Logger) Transcriber {
	switch cfg.Backend {
	case "", BackendNone:
		return Unsupported{Reason: "speech backend disabled"}
	case BackendGoogle:
	default:
		return Unsupported{Reason: fmt.Sprintf("unknown speech backend %q", cfg.Backend)}
	}

	source := SourceFor(cfg)
	if source == nil {
		return Unsupported{Reason: "no audio capture configured"}
	}

	g, err := NewGoogle(ctx, cfg, source, logger)
	if err != nil {
		logger.Warn("speech backend unavailable", zap.String("backend", cfg.Backend), zap.Error(err))
		return Unsupported{Reason: "speech backend unavailable"}
	}
	return g
}

// SourceFor picks the capture command over the audio file. Nil when neither
// is set.
func SourceFor(cfg Config) AudioSource {
	if cmd := strings.TrimSpace(cfg.CaptureCommand); cmd != "" {
		return CommandSource{Command: cmd}
	}
	if cfg.AudioFile != "" {
		return FileSource{Path: cfg.AudioFile}
	}
	return nil
}
