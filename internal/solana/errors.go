package solana

import (
	"errors"
	"fmt"
)

var (
	// ErrConfirmTimeout is returned when a signature does not reach the
	// requested commitment before the confirmer's timeout.
	ErrConfirmTimeout = errors.New("transaction was not confirmed in time")

	// ErrTransactionFailed is returned when a transaction landed with an error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrClientClosed is returned by a WebSocket client after Close.
	ErrClientClosed = errors.New("client closed")
)

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TransactionError carries the on-chain error of a failed signature.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransactionFailed, e.Signature, e.Err)
}

// Unwrap allows errors.Is(err, ErrTransactionFailed).
func (e *TransactionError) Unwrap() error {
	return ErrTransactionFailed
}
