package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SignatureSubscribe waits for a signature to reach commitment.
	// The returned channel yields at most one notification and is then closed.
	// A channel closed without a notification means the connection was lost.
	SignatureSubscribe(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}
