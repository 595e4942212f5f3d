package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quran-player/internal/api"
	"quran-player/internal/config"
	"quran-player/internal/logging"
	"quran-player/internal/match"
	"quran-player/internal/observe"
	"quran-player/internal/proxy"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (default $QURAN_CONFIG or the user config dir)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	os.Exit(run(*configPath, *printConfig))
}

func run(configPath string, printConfig bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if printConfig {
		if err := config.Dump(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return 0
	}

	logger, err := logging.New(cfg.Log, "tafseer-proxy")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "tafseer-proxy",
		ServiceVersion: version,
	})
	if err != nil {
		logger.Error("metrics provider", zap.Error(err))
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(flushCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}()
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
		logger.Error("matcher", zap.Error(err))
		return 1
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := proxy.NewHandler(client, matcher, metrics, logger.Named("proxy"))
	router := proxy.NewRouter(handler, metrics, logger.Named("http"), proxy.PrometheusHandler())
	srv := proxy.NewServer(cfg.HTTP, router)

	logger.Info("starting tafseer proxy",
		zap.String("version", version),
		zap.String("env", cfg.Env),
		zap.String("address", cfg.HTTP.Address),
		zap.String("tafseer_url", cfg.API.TafseerURL),
	)
	if err := proxy.Run(ctx, srv, cfg.HTTP.ShutdownTimeout, logger); err != nil {
		logger.Error("proxy stopped", zap.Error(err))
		return 1
	}
	return 0
}
