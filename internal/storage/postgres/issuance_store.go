package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-mint/internal/domain"
	"solana-token-mint/internal/storage"
)

// IssuanceStore implements storage.IssuanceStore using PostgreSQL.
type IssuanceStore struct {
	pool *Pool
}

// NewIssuanceStore creates a new IssuanceStore.
func NewIssuanceStore(pool *Pool) *IssuanceStore {
	return &IssuanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IssuanceStore = (*IssuanceStore)(nil)

const issuanceColumns = `
	mint, payer, token_account, decimals, supply::text, amount::text,
	rpc_endpoint, airdrop_sig, mint_to_sig, created_at
`

// Insert adds a new issuance. Returns ErrDuplicateKey if mint exists.
func (s *IssuanceStore) Insert(ctx context.Context, i *domain.Issuance) error {
	if i == nil || i.Mint == "" || i.Payer == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_issuances (
			mint, payer, token_account, decimals, supply, amount,
			rpc_endpoint, airdrop_sig, mint_to_sig, created_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		i.Mint,
		i.Payer,
		i.TokenAccount,
		int16(i.Decimals),
		i.Supply,
		i.Amount,
		i.RPCEndpoint,
		i.AirdropSig,
		i.MintToSig,
		i.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token issuance: %w", err)
	}
	return nil
}

// GetByMint retrieves an issuance by mint address. Returns ErrNotFound if not exists.
func (s *IssuanceStore) GetByMint(ctx context.Context, mint string) (*domain.Issuance, error) {
	query := `SELECT ` + issuanceColumns + ` FROM token_issuances WHERE mint = $1`

	i, err := scanIssuance(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token issuance by mint: %w", err)
	}
	return i, nil
}

// GetByPayer retrieves all issuances funded by payer, ordered by created_at ASC.
func (s *IssuanceStore) GetByPayer(ctx context.Context, payer string) ([]*domain.Issuance, error) {
	query := `SELECT ` + issuanceColumns + `
		FROM token_issuances
		WHERE payer = $1
		ORDER BY created_at ASC, mint ASC
	`

	rows, err := s.pool.Query(ctx, query, payer)
	if err != nil {
		return nil, fmt.Errorf("query token issuances by payer: %w", err)
	}
	defer rows.Close()

	var result []*domain.Issuance
	for rows.Next() {
		i, err := scanIssuance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token issuance: %w", err)
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token issuances: %w", err)
	}
	return result, nil
}

// scanIssuance scans a single row into Issuance.
func scanIssuance(row pgx.Row) (*domain.Issuance, error) {
	var (
		i        domain.Issuance
		decimals int16
	)

	err := row.Scan(
		&i.Mint,
		&i.Payer,
		&i.TokenAccount,
		&decimals,
		&i.Supply,
		&i.Amount,
		&i.RPCEndpoint,
		&i.AirdropSig,
		&i.MintToSig,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Decimals = uint8(decimals)
	return &i, nil
}
