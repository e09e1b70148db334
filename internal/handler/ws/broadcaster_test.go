package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
	internalrepo "SentiPull/internal/repository"
	"SentiPull/internal/usecase"
	xlogger "SentiPull/pkg/logger"
)

func newBroadcasterFixture(t *testing.T) (*SignalBroadcaster, *internalrepo.SentimentHistory, *httptest.Server) {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	history := internalrepo.NewSentimentHistory(100)
	b := NewSignalBroadcaster(history, usecase.NewSignalAggregator(), l, 20*time.Millisecond)

	e := echo.New()
	b.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return b, history, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signal"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcasterPushesSignal(t *testing.T) {
	b, history, srv := newBroadcasterFixture(t)
	for i := 0; i < 5; i++ {
		history.Record(models.ClassificationResult{Label: models.LabelPositive, Confidence: 0.9, ObservedAt: time.Now()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var sig models.MarketSignal
	require.NoError(t, json.Unmarshal(msg, &sig))
	assert.Equal(t, models.SignalBullish, sig.Signal)
	assert.Equal(t, 5, sig.SampleSize)
}

func TestBroadcasterTracksDisconnects(t *testing.T) {
	b, _, srv := newBroadcasterFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)
	defer b.Stop()

	conn := dial(t, srv)
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcasterStopClosesClients(t *testing.T) {
	b, _, srv := newBroadcasterFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	conn := dial(t, srv)
	b.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
