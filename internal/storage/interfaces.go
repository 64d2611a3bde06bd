package storage

import (
	"context"

	"solana-token-mint/internal/domain"
)

// IssuanceStore provides access to token_issuances storage.
type IssuanceStore interface {
	// Insert adds a new issuance. Returns ErrDuplicateKey if mint exists.
	Insert(ctx context.Context, i *domain.Issuance) error

	// GetByMint retrieves an issuance by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Issuance, error)

	// GetByPayer retrieves all issuances funded by payer, ordered by created_at ASC.
	GetByPayer(ctx context.Context, payer string) ([]*domain.Issuance, error)
}
