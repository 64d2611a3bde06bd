package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages; pongs extend it.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to its notification channel.
	// pending maps request ID to a subscription awaiting its ID.
	subs    map[int64]*signatureSub
	pending map[uint64]*pendingSub
	subsMu  sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

type signatureSub struct {
	signature string
	ch        chan SignatureNotification
}

type pendingSub struct {
	sub   *signatureSub
	ready chan error
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[int64]*signatureSub),
		pending:  make(map[uint64]*pendingSub),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.conn = conn
	return nil
}

// SignatureSubscribe subscribes to the confirmation of a single signature.
func (c *WSClientImpl) SignatureSubscribe(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": string(commitment)},
		},
	}

	p := &pendingSub{
		sub: &signatureSub{
			signature: signature,
			ch:        make(chan SignatureNotification, 1),
		},
		ready: make(chan error, 1),
	}
	c.subsMu.Lock()
	c.pending[reqID] = p
	c.subsMu.Unlock()

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		c.dropPending(reqID)
		return nil, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		c.dropPending(reqID)
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case err, ok := <-p.ready:
		if !ok {
			return nil, ErrClientClosed
		}
		if err != nil {
			return nil, err
		}
	case <-time.After(c.config.SubscribeTimeout):
		c.dropPending(reqID)
		return nil, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, ErrClientClosed
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, ctx.Err()
	}

	return p.sub.ch, nil
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.subsMu.Lock()
	delete(c.pending, reqID)
	c.subsMu.Unlock()
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.closeAll()
	return nil
}

// closeAll closes every outstanding subscription and pending request.
func (c *WSClientImpl) closeAll() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	for id, p := range c.pending {
		close(p.ready)
		delete(c.pending, id)
	}
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
// A read error ends the loop; subscribers observe it as a closed channel.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.closeAll()
			}
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Method == "signatureNotification" {
		c.handleSignatureNotification(msg.Params)
		return
	}

	if msg.ID != nil {
		c.handleSubscribeResponse(*msg.ID, msg.Result, msg.Error)
	}
}

// handleSubscribeResponse registers the subscription before releasing the caller,
// so a notification that immediately follows the response is not lost.
func (c *WSClientImpl) handleSubscribeResponse(id uint64, result json.RawMessage, rpcErr *RPCError) {
	c.subsMu.Lock()
	p, ok := c.pending[id]
	if !ok {
		c.subsMu.Unlock()
		return
	}
	delete(c.pending, id)

	if rpcErr != nil {
		c.subsMu.Unlock()
		p.ready <- fmt.Errorf("signatureSubscribe: %w", rpcErr)
		return
	}

	var subID int64
	if err := json.Unmarshal(result, &subID); err != nil {
		c.subsMu.Unlock()
		p.ready <- fmt.Errorf("unmarshal subscription id: %w", err)
		return
	}
	c.subs[subID] = p.sub
	c.subsMu.Unlock()

	p.ready <- nil
}

// handleSignatureNotification delivers the notification and retires the subscription.
// The node unsubscribes automatically after the first notification.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	if params == nil {
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[params.Subscription]
	if ok {
		delete(c.subs, params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	notif := SignatureNotification{
		Signature: sub.signature,
		Err:       params.Result.Value.Err,
	}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}

	sub.ch <- notif
	close(sub.ch)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A failed ping surfaces as a read error in readLoop.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsMessage covers both subscribe responses and notifications.
type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *RPCError             `json:"error,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext       `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}

var _ WSClient = (*WSClientImpl)(nil)
