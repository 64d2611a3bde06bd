package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-mint/internal/domain"
	"solana-token-mint/internal/storage"
)

func TestIssuanceStore_InsertAndGetByMint(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	airdrop := "airdropSig"
	issuance := &domain.Issuance{
		Mint:         "mint1",
		Payer:        "payer1",
		TokenAccount: "ata1",
		Decimals:     6,
		Supply:       "500",
		Amount:       "500000000",
		RPCEndpoint:  "https://api.devnet.solana.com",
		AirdropSig:   &airdrop,
		MintToSig:    "mintToSig",
		CreatedAt:    1704067200000,
	}

	if err := store.Insert(ctx, issuance); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}

	if result.Amount != "500000000" {
		t.Errorf("Amount mismatch: got %s, want 500000000", result.Amount)
	}
	if result.AirdropSig == nil || *result.AirdropSig != "airdropSig" {
		t.Errorf("AirdropSig mismatch: got %v", result.AirdropSig)
	}

	// Mutating the returned copy must not affect the store.
	result.Amount = "0"
	again, _ := store.GetByMint(ctx, "mint1")
	if again.Amount != "500000000" {
		t.Errorf("store mutated through returned copy: %s", again.Amount)
	}
}

func TestIssuanceStore_DuplicateMint(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	issuance := &domain.Issuance{Mint: "mint1", Payer: "payer1"}
	if err := store.Insert(ctx, issuance); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	err := store.Insert(ctx, issuance)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestIssuanceStore_InvalidInput(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	tests := []*domain.Issuance{
		nil,
		{Payer: "payer1"},
		{Mint: "mint1"},
	}

	for _, i := range tests {
		if err := store.Insert(ctx, i); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", i, err)
		}
	}
}

func TestIssuanceStore_NotFound(t *testing.T) {
	store := NewIssuanceStore()

	_, err := store.GetByMint(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIssuanceStore_GetByPayerOrdered(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	for _, i := range []*domain.Issuance{
		{Mint: "mintC", Payer: "payer1", CreatedAt: 3000},
		{Mint: "mintA", Payer: "payer1", CreatedAt: 1000},
		{Mint: "mintX", Payer: "payer2", CreatedAt: 500},
		{Mint: "mintB", Payer: "payer1", CreatedAt: 2000},
	} {
		if err := store.Insert(ctx, i); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByPayer(ctx, "payer1")
	if err != nil {
		t.Fatalf("GetByPayer failed: %v", err)
	}

	want := []string{"mintA", "mintB", "mintC"}
	if len(result) != len(want) {
		t.Fatalf("expected %d issuances, got %d", len(want), len(result))
	}
	for idx, mint := range want {
		if result[idx].Mint != mint {
			t.Errorf("position %d: got %s, want %s", idx, result[idx].Mint, mint)
		}
	}

	empty, err := store.GetByPayer(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetByPayer failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no issuances, got %d", len(empty))
	}
}
