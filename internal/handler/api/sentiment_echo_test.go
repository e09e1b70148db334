package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	internalrepo "SentiPull/internal/repository"
	"SentiPull/internal/service/cache"
	"SentiPull/internal/usecase"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/metrics"
)

type stubClassifier struct {
	cls   models.Classification
	err   error
	ready bool
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (models.Classification, error) {
	return s.cls, s.err
}

func (s *stubClassifier) Ready(_ context.Context) bool { return s.ready }

type handlerFixture struct {
	e       *echo.Echo
	history *internalrepo.SentimentHistory
	cls     *stubClassifier
}

func newFixture(t *testing.T, opts ...HandlerOption) *handlerFixture {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	cls := &stubClassifier{
		cls:   models.Classification{Label: models.LabelPositive, Confidence: 0.93},
		ready: true,
	}
	history := internalrepo.NewSentimentHistory(100)
	rec := metrics.New(prometheus.NewRegistry())
	analyzer := usecase.NewAnalyzer(cls, history, rec, nil, l)
	agg := usecase.NewSignalAggregator()

	h := NewSentimentEchoHandler(l, analyzer, agg, history, cls, opts...)
	e := echo.New()
	h.RegisterRoutes(e)

	return &handlerFixture{e: e, history: history, cls: cls}
}

func (f *handlerFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/analyze", `{"text":"stocks only go up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.LabelPositive, resp.Sentiment)
	assert.InDelta(t, 0.93, resp.Confidence, 1e-9)

	// the observation landed in the history window
	assert.Equal(t, 1, f.history.Size())
}

func TestAnalyzeEndpointMissingText(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{}`, `{"text":""}`} {
		rec := f.do(http.MethodPost, "/analyze", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Equal(t, 0, f.history.Size())
}

func TestAnalyzeEndpointWhitespaceText(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/analyze", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.history.Size())
}

func TestAnalyzeEndpointTextTooLong(t *testing.T) {
	f := newFixture(t)

	long := strings.Repeat("a", 513)
	rec := f.do(http.MethodPost, "/analyze", `{"text":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointClassifierDown(t *testing.T) {
	f := newFixture(t)
	f.cls.err = domrepo.ErrClassifierUnavailable

	rec := f.do(http.MethodPost, "/analyze", `{"text":"anything"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_CLASSIFIER_UNAVAILABLE")
	assert.Equal(t, 0, f.history.Size())
}

func TestMarketSignalEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/market-signal", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig models.MarketSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, models.SignalNeutral, sig.Signal)
	assert.Zero(t, sig.SampleSize)
}

func TestMarketSignalBullish(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		f.history.Record(models.ClassificationResult{Label: models.LabelPositive, Confidence: 0.9, ObservedAt: time.Now()})
	}
	for i := 0; i < 2; i++ {
		f.history.Record(models.ClassificationResult{Label: models.LabelNegative, Confidence: 0.9, ObservedAt: time.Now()})
	}

	rec := f.do(http.MethodGet, "/market-signal", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig models.MarketSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, models.SignalBullish, sig.Signal)
	assert.InDelta(t, 0.6, sig.Strength, 1e-9)
	assert.Equal(t, 10, sig.SampleSize)
}

func TestMarketSignalSinceFilter(t *testing.T) {
	f := newFixture(t)
	old := time.Now().Add(-time.Hour)
	f.history.Record(models.ClassificationResult{Label: models.LabelNegative, Confidence: 0.9, ObservedAt: old})
	f.history.Record(models.ClassificationResult{Label: models.LabelPositive, Confidence: 0.9, ObservedAt: time.Now()})

	cutoff := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	rec := f.do(http.MethodGet, "/market-signal?since="+cutoff, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig models.MarketSignal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, 1, sig.SampleSize)
	assert.Equal(t, models.SignalBullish, sig.Signal)
}

func TestMarketSignalBadSince(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/market-signal?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketSignalCached(t *testing.T) {
	f := newFixture(t, WithSignalCache(cache.NewTTLCache(), time.Minute))

	rec := f.do(http.MethodGet, "/market-signal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := rec.Body.String()

	// new observations do not show up until the cached entry expires
	f.history.Record(models.ClassificationResult{Label: models.LabelPositive, Confidence: 0.9, ObservedAt: time.Now()})

	rec = f.do(http.MethodGet, "/market-signal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, first, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	f.history.Record(models.ClassificationResult{Label: models.LabelNeutral, Confidence: 0.5, ObservedAt: time.Now()})

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "sentiment-analyzer", resp.Service)
	assert.True(t, resp.ModelLoaded)
	assert.Equal(t, 1, resp.SentimentHistorySize)
}

func TestHealthEndpointModelNotReady(t *testing.T) {
	f := newFixture(t)
	f.cls.ready = false

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.ModelLoaded)
}

func TestAnalyzeRateLimited(t *testing.T) {
	f := newFixture(t, WithRateLimit(0.001, 2))

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/analyze", `{"text":"fine"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := f.do(http.MethodPost, "/analyze", `{"text":"over the line"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
