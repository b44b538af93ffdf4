// Package feed maintains a live price cache from the tick websocket.
// Inference reads the latest quote here and falls back to the last daily
// close when the feed is cold.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/logger"
)

const (
	// Reconnect settings
	reconnectDelay    = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute

	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	// maxQuoteAge marks quotes stale once the venue goes quiet.
	maxQuoteAge = 90 * time.Second
)

// tick is one inbound websocket message.
type tick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TS     int64   `json:"ts"` // unix millis
}

// Client manages the tick websocket and the latest-quote cache
// ⭐ SSOT: 실시간 시세 연결은 이 클라이언트에서만
type Client struct {
	config *config.FeedConfig
	logger *logger.Logger

	conn   *websocket.Conn
	connMu sync.RWMutex

	symbols []string

	quotes   map[string]contracts.Quote
	quotesMu sync.RWMutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewClient creates a new feed client tracking symbols.
func NewClient(cfg *config.FeedConfig, log *logger.Logger, symbols []string) *Client {
	return &Client{
		config:  cfg,
		logger:  log,
		symbols: symbols,
		quotes:  make(map[string]contracts.Quote),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start connects and begins streaming. Returns an error only when the
// initial connection fails; later disconnects reconnect in the background.
func (c *Client) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("Tick feed disabled, quotes will fall back to last close")
		close(c.doneCh)
		return nil
	}

	c.logger.Info("Starting tick feed client")

	if err := c.connect(ctx); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go c.readLoop(ctx)
	go c.pingLoop(ctx)

	return nil
}

// Stop stops the feed client.
func (c *Client) Stop() {
	if !c.config.Enabled {
		return
	}

	c.logger.Info("Stopping tick feed client")

	close(c.stopCh)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	<-c.doneCh
}

// Quote returns the latest live quote for symbol. ok is false when the feed
// has never seen the symbol or the quote has gone stale.
func (c *Client) Quote(symbol string) (contracts.Quote, bool) {
	c.quotesMu.RLock()
	defer c.quotesMu.RUnlock()

	quote, ok := c.quotes[symbol]
	if !ok || time.Since(quote.AsOf) > maxQuoteAge {
		return contracts.Quote{}, false
	}
	return quote, true
}

// connect establishes the websocket connection and subscribes.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.logger.WithField("url", c.config.URL).Debug("Connecting to tick feed")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.conn = conn

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	subscribe := map[string]interface{}{
		"action":  "subscribe",
		"symbols": c.symbols,
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	c.logger.WithField("symbols", len(c.symbols)).Info("Connected to tick feed")
	return nil
}

// readLoop reads messages until stopped, reconnecting on failures.
func (c *Client) readLoop(ctx context.Context) {
	defer close(c.doneCh)

	delay := reconnectDelay

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}

			c.logger.WithError(err).Warn("Tick feed read failed, reconnecting")
			if !c.reconnect(ctx, &delay) {
				return
			}
			continue
		}
		delay = reconnectDelay

		var t tick
		if err := json.Unmarshal(message, &t); err != nil {
			c.logger.WithError(err).Debug("Skipping malformed tick")
			continue
		}
		if t.Symbol == "" || t.Price <= 0 {
			continue
		}

		c.quotesMu.Lock()
		c.quotes[t.Symbol] = contracts.Quote{
			Symbol: t.Symbol,
			Price:  t.Price,
			AsOf:   time.UnixMilli(t.TS).UTC(),
			Live:   true,
		}
		c.quotesMu.Unlock()
	}
}

// reconnect retries with doubling delay until connected or stopped.
func (c *Client) reconnect(ctx context.Context, delay *time.Duration) bool {
	for {
		select {
		case <-c.stopCh:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(*delay):
		}

		if err := c.connect(ctx); err == nil {
			return true
		}

		*delay *= 2
		if *delay > maxReconnectDelay {
			*delay = maxReconnectDelay
		}
		c.logger.WithField("next_delay", delay.String()).Warn("Tick feed reconnect failed")
	}
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.WithError(err).Debug("Ping failed")
			}
		}
	}
}
