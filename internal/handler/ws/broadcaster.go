package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	domrepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/usecase"
	xlogger "SentiPull/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// SignalBroadcaster pushes the recomputed market signal to connected
// websocket clients on a fixed interval. It is a live-dashboard feed over
// the same snapshot/compute path the REST endpoint uses.
type SignalBroadcaster struct {
	history  domrepo.History
	agg      *usecase.SignalAggregator
	logger   *xlogger.Logger
	interval time.Duration

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSignalBroadcaster(history domrepo.History, agg *usecase.SignalAggregator, logger *xlogger.Logger, interval time.Duration) *SignalBroadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SignalBroadcaster{
		history:  history,
		agg:      agg,
		logger:   logger,
		interval: interval,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		stopCh:   make(chan struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (b *SignalBroadcaster) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signal", b.handleConnect)
}

// Start launches the periodic push loop.
func (b *SignalBroadcaster) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopCh:
				return
			case <-ticker.C:
				b.push()
			}
		}
	}()
}

// Stop halts the push loop and closes all client connections.
func (b *SignalBroadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()

	b.mu.Lock()
	for c := range b.clients {
		_ = c.Close()
		delete(b.clients, c)
	}
	b.mu.Unlock()
}

func (b *SignalBroadcaster) push() {
	b.mu.Lock()
	n := len(b.clients)
	b.mu.Unlock()
	if n == 0 {
		return
	}

	sig := b.agg.Compute(b.history.Snapshot())
	msg, err := json.Marshal(sig)
	if err != nil {
		b.logger.Error("marshal signal", xlogger.Error(err))
		return
	}

	b.mu.Lock()
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Warn("websocket write failed", xlogger.Error(err))
			_ = c.Close()
			delete(b.clients, c)
		}
	}
	b.mu.Unlock()
}

func (b *SignalBroadcaster) handleConnect(c echo.Context) error {
	conn, err := b.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	// read loop drains control frames and detects disconnects
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}
