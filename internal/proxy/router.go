package proxy

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quran-player/internal/config"
	"quran-player/internal/observe"
)

// NewRouter wires the handlers and middleware. metricsHandler serves
// /metrics; nil leaves the route out.
func NewRouter(h *Handler, metrics *observe.Metrics, logger *zap.Logger, metricsHandler http.Handler) *gin.Engine {
	if metrics == nil {
		metrics = observe.Discard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(logger),
		metricsMiddleware(metrics),
		errorHandler(),
	)

	router.GET("/healthz", h.Health)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")
	{
		api.GET("/tafseer/:tafseer_id/:surah", h.Tafseer)
		api.GET("/chapters/:surah/match", h.Match)
	}
	return router
}

// PrometheusHandler serves the default Prometheus registry, which is where the
// OpenTelemetry exporter installed by observe.InitProvider registers.
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// NewServer wraps router in an http.Server configured from cfg.
func NewServer(cfg config.HTTPConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.Address,
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
