package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-mint/internal/domain"
	"solana-token-mint/internal/storage"
)

// IssuanceStore is an in-memory implementation of storage.IssuanceStore.
type IssuanceStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.Issuance
}

// NewIssuanceStore creates a new in-memory issuance store.
func NewIssuanceStore() *IssuanceStore {
	return &IssuanceStore{
		byMint: make(map[string]*domain.Issuance),
	}
}

// Insert adds a new issuance. Returns ErrDuplicateKey if mint already exists.
func (s *IssuanceStore) Insert(_ context.Context, i *domain.Issuance) error {
	if i == nil || i.Mint == "" || i.Payer == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMint[i.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	issuanceCopy := *i
	s.byMint[i.Mint] = &issuanceCopy
	return nil
}

// GetByMint retrieves an issuance by mint address. Returns ErrNotFound if not exists.
func (s *IssuanceStore) GetByMint(_ context.Context, mint string) (*domain.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	issuanceCopy := *i
	return &issuanceCopy, nil
}

// GetByPayer retrieves all issuances funded by payer, ordered by created_at ASC.
func (s *IssuanceStore) GetByPayer(_ context.Context, payer string) ([]*domain.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Issuance
	for _, i := range s.byMint {
		if i.Payer == payer {
			issuanceCopy := *i
			result = append(result, &issuanceCopy)
		}
	}

	sort.Slice(result, func(a, b int) bool {
		if result[a].CreatedAt != result[b].CreatedAt {
			return result[a].CreatedAt < result[b].CreatedAt
		}
		return result[a].Mint < result[b].Mint
	})

	return result, nil
}

var _ storage.IssuanceStore = (*IssuanceStore)(nil)
