package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"

	"quran-player/internal/apperrors"
)

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Google transcribes with Cloud Speech-to-Text synchronous recognition.
// Credentials come from Application Default Credentials.
type Google struct {
	client     recognizer
	source     AudioSource
	encoding   speechpb.RecognitionConfig_AudioEncoding
	sampleRate int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewGoogle dials the Speech API.
func NewGoogle(ctx context.Context, cfg Config, source AudioSource, logger *zap.Logger) (*Google, error) {
	client, err := gspeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	g, err := newGoogle(client, source, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return g, nil
}

func newGoogle(client recognizer, source AudioSource, cfg Config, logger *zap.Logger) (*Google, error) {
	encoding, err := audioEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Google{
		client:     client,
		source:     source,
		encoding:   encoding,
		sampleRate: cfg.SampleRate,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// Transcribe captures audio from the source and returns the first
// alternative of the first non-empty result.
func (g *Google) Transcribe(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	lang := req.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	audio, err := g.source.Capture(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.Wrap(apperrors.CodeTimeout, "capture audio: timed out", err)
		}
		return "", apperrors.Wrap(apperrors.CodeUnsupported, "capture audio", err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        g.encoding,
			SampleRateHertz: int32(g.sampleRate),
			LanguageCode:    lang,
			MaxAlternatives: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", classify("recognize speech", err)
	}

	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 && alts[0].GetTranscript() != "" {
			g.logger.Debug("speech recognized",
				zap.String("language", lang),
				zap.Float32("confidence", alts[0].GetConfidence()),
			)
			return alts[0].GetTranscript(), nil
		}
	}
	return "", apperrors.Wrap(apperrors.CodeNoMatch, "no speech detected in audio", nil)
}

// Close releases the API connection.
func (g *Google) Close() error {
	return g.client.Close()
}

func classify(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeTimeout, message+": timed out", err)
	}
	return apperrors.Wrap(apperrors.CodeNetwork, message, err)
}

func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
