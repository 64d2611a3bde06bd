package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Confirmation defaults.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// DialFunc opens a WebSocket client.
type DialFunc func(ctx context.Context, endpoint string) (WSClient, error)

// ConfirmerOptions configures a Confirmer.
type ConfirmerOptions struct {
	RPC        RPCClient
	Commitment Commitment
	// WSEndpoint enables signatureSubscribe; empty means polling only.
	WSEndpoint   string
	Dial         DialFunc
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       hclog.Logger
}

// Confirmer waits until submitted signatures reach a commitment level.
type Confirmer struct {
	rpc          RPCClient
	commitment   Commitment
	wsEndpoint   string
	dial         DialFunc
	timeout      time.Duration
	pollInterval time.Duration
	logger       hclog.Logger
}

// NewConfirmer creates a Confirmer, filling unset options with defaults.
func NewConfirmer(opts ConfirmerOptions) *Confirmer {
	c := &Confirmer{
		rpc:          opts.RPC,
		commitment:   opts.Commitment,
		wsEndpoint:   opts.WSEndpoint,
		dial:         opts.Dial,
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}
	if c.commitment == "" {
		c.commitment = CommitmentConfirmed
	}
	if c.dial == nil {
		c.dial = func(ctx context.Context, endpoint string) (WSClient, error) {
			return NewWSClient(ctx, endpoint, nil)
		}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultConfirmTimeout
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	return c
}

// Confirm blocks until signature reaches the configured commitment.
func (c *Confirmer) Confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.confirm(ctx, signature)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return fmt.Errorf("%w: %s after %s", ErrConfirmTimeout, signature, c.timeout)
	}
	return err
}

func (c *Confirmer) confirm(ctx context.Context, signature string) error {
	if c.wsEndpoint != "" {
		done, err := c.subscribe(ctx, signature)
		if done || err != nil {
			return err
		}
	}
	return c.poll(ctx, signature)
}

// subscribe waits on signatureSubscribe. It reports done=false when the
// subscription could not be used and polling should take over.
func (c *Confirmer) subscribe(ctx context.Context, signature string) (bool, error) {
	ws, err := c.dial(ctx, c.wsEndpoint)
	if err != nil {
		c.logger.Debug("websocket unavailable, polling signature status", "endpoint", c.wsEndpoint, "error", err)
		return false, nil
	}
	defer ws.Close()

	ch, err := ws.SignatureSubscribe(ctx, signature, c.commitment)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		c.logger.Debug("signatureSubscribe failed, polling signature status", "signature", signature, "error", err)
		return false, nil
	}

	// The signature may have landed before the subscription was registered.
	if done, err := c.check(ctx, signature); done || err != nil {
		return true, err
	}

	select {
	case notif, ok := <-ch:
		if !ok {
			c.logger.Debug("websocket closed before notification, polling signature status", "signature", signature)
			return false, nil
		}
		if notif.Err != nil {
			return true, &TransactionError{Signature: signature, Err: notif.Err}
		}
		c.logger.Debug("signature confirmed", "signature", signature, "slot", notif.Slot, "via", "websocket")
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// poll queries getSignatureStatuses until the commitment is reached.
func (c *Confirmer) poll(ctx context.Context, signature string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.check(ctx, signature)
		if done || err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// check performs a single status lookup.
func (c *Confirmer) check(ctx context.Context, signature string) (bool, error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, signature)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		return true, fmt.Errorf("get signature status: %w", err)
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Failed() {
		return true, &TransactionError{Signature: signature, Err: status.Err}
	}
	if status.Satisfies(c.commitment) {
		c.logger.Debug("signature confirmed", "signature", signature, "slot", status.Slot, "via", "status")
		return true, nil
	}
	return false, nil
}
