// Package storage defines the issuance ledger.
package storage

import "errors"

// Ledger errors. Records are append-only.
var (
	// ErrNotFound is returned when no issuance matches a lookup.
	ErrNotFound = errors.New("issuance not found")

	// ErrDuplicateKey is returned when an issuance for the same mint is already recorded.
	ErrDuplicateKey = errors.New("duplicate key: issuance already recorded")

	// ErrInvalidInput is returned when a record lacks its mint or payer.
	ErrInvalidInput = errors.New("invalid input: issuance requires mint and payer")
)
