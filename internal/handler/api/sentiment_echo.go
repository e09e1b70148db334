package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	icache "SentiPull/internal/service/cache"
	"SentiPull/internal/service/ratelimit"
	"SentiPull/internal/usecase"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
	xutil "SentiPull/pkg/util"

	"github.com/labstack/echo/v4"
)

const signalCacheKey = "market-signal"

// SentimentEchoHandler exposes the sentiment API over Echo.
type SentimentEchoHandler struct {
	logger     *xlogger.Logger
	analyzer   *usecase.Analyzer
	agg        *usecase.SignalAggregator
	history    domrepo.History
	classifier domrepo.Classifier

	cache    icache.BytesCache
	cacheTTL time.Duration

	limiter *ratelimit.Limiter
	rlRPS   float64
	rlBurst float64
}

// HandlerOption configures SentimentEchoHandler.
type HandlerOption func(*SentimentEchoHandler)

// WithSignalCache enables response caching for GET /market-signal.
func WithSignalCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *SentimentEchoHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithRateLimit enables per-client token-bucket limiting on POST /analyze.
func WithRateLimit(rps, burst float64) HandlerOption {
	return func(h *SentimentEchoHandler) {
		h.limiter = ratelimit.New()
		h.rlRPS = rps
		h.rlBurst = burst
	}
}

func NewSentimentEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	agg *usecase.SignalAggregator,
	history domrepo.History,
	classifier domrepo.Classifier,
	opts ...HandlerOption,
) *SentimentEchoHandler {
	h := &SentimentEchoHandler{
		logger:     logger,
		analyzer:   analyzer,
		agg:        agg,
		history:    history,
		classifier: classifier,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SentimentEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/analyze", h.Analyze, h.rateLimit)
	e.GET("/market-signal", h.MarketSignal)
	e.GET("/health", h.Health)
}

// Analyze scores one text and feeds the rolling aggregate.
func (h *SentimentEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.analyzer.Analyze(c.Request().Context(), req.Text, "api")
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			return xhttp.BadRequestResponse(c, xhttp.InvalidInputError("text must not be empty"))
		case errors.Is(err, domrepo.ErrClassifierUnavailable):
			h.logger.Warn("analyze rejected, classifier unavailable", xlogger.Error(err))
			return xhttp.ServiceUnavailableResponse(c,
				xhttp.ServiceUnavailableError("ERR_CLASSIFIER_UNAVAILABLE", "model not ready"))
		default:
			h.logger.Error("analyze usecase error", xlogger.Error(err))
			return xhttp.InternalServerErrorResponse(c)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// MarketSignal aggregates the current history window into a signal. An
// optional since query parameter (RFC3339 or unix seconds) restricts the
// snapshot to entries observed after that time; such filtered views bypass
// the cache.
func (h *SentimentEchoHandler) MarketSignal(c echo.Context) error {
	sinceRaw := c.QueryParam("since")
	since, hasSince := xutil.ParseTime(sinceRaw)
	if sinceRaw != "" && !hasSince {
		return xhttp.BadRequestResponse(c, xhttp.InvalidInputError("since must be RFC3339 or unix seconds"))
	}

	if !hasSince && h.cache != nil {
		if b, ok, err := h.cache.GetBytes(signalCacheKey); err == nil && ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	snap := h.history.Snapshot()
	if hasSince {
		filtered := snap[:0]
		for _, r := range snap {
			if r.ObservedAt.After(since) {
				filtered = append(filtered, r)
			}
		}
		snap = filtered
	}

	sig := h.agg.Compute(snap)

	if !hasSince && h.cache != nil {
		if b, err := json.Marshal(sig); err == nil {
			_ = h.cache.SetBytes(signalCacheKey, b, h.cacheTTL)
		}
	}

	return c.JSON(http.StatusOK, sig)
}

// Health reports liveness plus classifier readiness, letting callers tell an
// empty history apart from a service still warming up.
func (h *SentimentEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:               "healthy",
		Service:              "sentiment-analyzer",
		ModelLoaded:          h.classifier.Ready(c.Request().Context()),
		SentimentHistorySize: h.history.Size(),
	})
}

func (h *SentimentEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP(), h.rlBurst, h.rlRPS) {
			return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}
