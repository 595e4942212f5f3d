package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"quran-player/internal/api"
	"quran-player/internal/audio"
	"quran-player/internal/config"
	"quran-player/internal/logging"
	"quran-player/internal/match"
	"quran-player/internal/observe"
	"quran-player/internal/session"
	"quran-player/internal/speech"
	"quran-player/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $QURAN_CONFIG or the user config dir)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	if cfg.Log.File == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("locate log dir: %w", err)
		}
		cfg.Log.File = filepath.Join(cacheDir, "quran-player", "player.log")
	}
	logger, err := logging.New(cfg.Log, "quran-player")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	metrics := observe.DefaultMetrics()

	client := api.NewClient(
		api.WithChaptersURL(cfg.API.ChaptersURL),
		api.WithVersesURL(cfg.API.VersesURL),
		api.WithTafseerURL(cfg.API.TafseerURL),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger.Named("api")),
		api.WithMetrics(metrics),
	)

	matcher, err := match.New(
		match.WithThreshold(cfg.Matcher.Threshold),
		match.WithAlgorithm(match.Algorithm(cfg.Matcher.Algorithm)),
	)
	if err != nil {
		return err
	}

	transcriber := speech.New(ctx, cfg.Speech, logger.Named("speech"))
	if c, ok := transcriber.(io.Closer); ok {
		defer c.Close()
	}

	opts := []session.Option{
		session.WithTranscriber(transcriber),
		session.WithMatcher(matcher),
		session.WithMetrics(metrics),
		session.WithLogger(logger.Named("session")),
		session.WithAudioBaseURL(cfg.API.AudioBaseURL),
		session.WithTafseerID(cfg.API.TafseerID),
		session.WithLanguage(cfg.Speech.Language),
	}
	player := audio.New(cfg.Player.Command, audio.WithLogger(logger.Named("audio")))
	if player.Enabled() {
		opts = append(opts, session.WithPlayer(player))
	}
	ctrl := session.New(client, opts...)

	logger.Info("starting player",
		zap.String("env", cfg.Env),
		zap.String("speech_backend", cfg.Speech.Backend),
		zap.String("matcher", cfg.Matcher.Algorithm),
		zap.Bool("playback", player.Enabled()),
	)

	p := tea.NewProgram(
		ui.NewModel(ctrl, cfg.UI.Theme, logger.Named("ui")),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		return err
	}
	return nil
}
