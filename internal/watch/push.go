// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/warwatch-io/warwatch/internal/config"
	"github.com/warwatch-io/warwatch/internal/feed"
	"github.com/warwatch-io/warwatch/internal/logging"
)

// PushAdapter receives conflict events over the upstream push channel.
//
// Start performs the subscribe handshake to obtain a channel identifier,
// then opens a persistent websocket bound to that channel. Incoming
// messages, single events or batches, are forwarded to the handler
// immediately; push delivery is deduplicated upstream, so no watermark is
// kept. Transport loss is handed to the ReconnectManager rather than
// retried inline.
type PushAdapter struct {
	cfg     config.PushConfig
	apiKey  string
	handler Handler

	httpClient *http.Client
	reconnect  *ReconnectManager

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	baseCtx  context.Context

	connMu sync.RWMutex
	conn   *websocket.Conn
	wg     sync.WaitGroup
}

// NewPushAdapter creates a push adapter. apiKey authenticates both the
// subscribe handshake and the websocket connection.
func NewPushAdapter(cfg config.PushConfig, apiKey string, handler Handler) *PushAdapter {
	p := &PushAdapter{
		cfg:        cfg,
		apiKey:     apiKey,
		handler:    handler,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		stopChan:   make(chan struct{}),
	}
	p.reconnect = NewReconnectManager(cfg.ReconnectBaseDelay, cfg.MaxReconnectAttempts, p.reconnectCallback)
	return p
}

// Start begins the subscribe/connect sequence. A failed initial connect is
// delegated to the reconnect manager, so Start itself only fails on misuse.
// Restarting after the manager has given up resets the attempt counter.
func (p *PushAdapter) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.baseCtx = ctx
	p.mu.Unlock()

	p.reconnect.Reset()

	logging.Info().Msg("starting push adapter")

	if err := p.connect(ctx); err != nil {
		p.reconnect.Disconnected()
	}
	return nil
}

// Stop tears down the transport and suppresses any pending reconnect.
// Idempotent; safe to call before Start completes.
func (p *PushAdapter) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.reconnect.Stop()
	p.closeConnection()
	p.wg.Wait()
	logging.Info().Msg("push adapter stopped")
}

// IsConnected reports whether the websocket is currently established.
func (p *PushAdapter) IsConnected() bool {
	p.connMu.RLock()
	defer p.connMu.RUnlock()
	return p.conn != nil
}

// GivenUp reports whether the reconnect manager has exhausted its attempts.
// The surrounding application surfaces this as a standing degraded-state
// signal; the polling adapter and other tenants are unaffected.
func (p *PushAdapter) GivenUp() bool {
	return p.reconnect.State() == StateGivenUp
}

// Status returns a snapshot of the adapter's runtime state.
func (p *PushAdapter) Status() PushStatus {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	return PushStatus{
		Running:           running,
		Connected:         p.IsConnected(),
		ReconnectState:    p.reconnect.State().String(),
		ReconnectAttempts: p.reconnect.Attempts(),
		GivenUp:           p.GivenUp(),
	}
}

// PushStatus is a point-in-time view of the push adapter.
type PushStatus struct {
	Running           bool   `json:"running"`
	Connected         bool   `json:"connected"`
	ReconnectState    string `json:"reconnect_state"`
	ReconnectAttempts int    `json:"reconnect_attempts"`
	GivenUp           bool   `json:"given_up"`
}

// reconnectCallback runs when a scheduled reconnect timer fires.
func (p *PushAdapter) reconnectCallback() {
	p.mu.RLock()
	ctx := p.baseCtx
	running := p.running
	p.mu.RUnlock()

	if !running || p.stopped() {
		return
	}
	if err := p.connect(ctx); err != nil {
		p.reconnect.Disconnected()
	}
}

// connect performs the handshake and opens the websocket, then starts the
// listener and keepalive goroutines for the new connection.
func (p *PushAdapter) connect(ctx context.Context) error {
	p.reconnect.Connecting()

	channel, err := p.subscribe(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("push subscribe handshake failed")
		return err
	}

	socketURL := strings.TrimSuffix(p.cfg.SocketURL, "/") + "/" + channel
	dialer := websocket.Dialer{
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: true,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)

	conn, resp, err := dialer.DialContext(ctx, socketURL, header)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		} else {
			err = fmt.Errorf("websocket dial: %w", err)
		}
		logging.Error().Err(err).Msg("push connect failed")
		return err
	}

	p.connMu.Lock()
	p.conn = conn
	p.connMu.Unlock()

	p.reconnect.Connected()
	logging.Info().Str("channel", channel).Msg("push transport connected")

	done := make(chan struct{})
	p.wg.Add(2)
	go p.listen(ctx, conn, done)
	go p.pingLoop(conn, done)

	return nil
}

// subscribe performs the authenticated handshake and returns the channel
// identifier to bind the websocket to.
func (p *PushAdapter) subscribe(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.SubscribeURL, nil)
	if err != nil {
		return "", fmt.Errorf("build subscribe request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("subscribe request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("subscribe returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode subscribe response: %w", err)
	}
	if parsed.Channel == "" {
		return "", fmt.Errorf("subscribe response missing channel")
	}
	return parsed.Channel, nil
}

// listen reads messages from one connection until it fails or the adapter
// stops. A read failure closes the connection and hands control to the
// reconnect manager.
func (p *PushAdapter) listen(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer p.wg.Done()
	defer close(done)

	for {
		if p.stopped() || ctx.Err() != nil {
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(90 * time.Second)); err != nil {
			logging.Warn().Err(err).Msg("push read deadline not set")
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if p.stopped() || ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info().Msg("push websocket closed by upstream")
			} else {
				logging.Warn().Err(err).Msg("push websocket read error")
			}
			p.closeConnection()
			p.reconnect.Disconnected()
			return
		}

		p.handleMessage(ctx, message)
	}
}

// handleMessage parses one push frame and forwards its events. A parse
// error is absorbed at the message boundary.
func (p *PushAdapter) handleMessage(ctx context.Context, message []byte) {
	events, err := feed.DecodePushPayload(message)
	if err != nil {
		logging.Error().Err(err).Msg("push message discarded")
		return
	}
	for i := range events {
		p.handler(ctx, &events[i])
	}
}

// pingLoop keeps the connection alive; a failed ping closes it so the read
// loop observes the loss and triggers the reconnect path.
func (p *PushAdapter) pingLoop(conn *websocket.Conn, done chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				logging.Warn().Err(err).Msg("push ping failed")
				p.closeConnection()
				return
			}
		}
	}
}

func (p *PushAdapter) closeConnection() {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	if p.conn == nil {
		return
	}
	_ = p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err := p.conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("push websocket close failed")
	}
	p.conn = nil
}

func (p *PushAdapter) stopped() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	select {
	case <-p.stopChan:
		return true
	default:
		return false
	}
}
