package spl

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// Account sizes of the SPL Token program.
const (
	MintSize         = 82
	TokenAccountSize = 165
)

var (
	// ErrAccountNotFound is returned when an expected account does not exist.
	ErrAccountNotFound = errors.New("token account not found")

	// ErrInvalidAccountOwner is returned when an account is not owned by the Token program.
	ErrInvalidAccountOwner = errors.New("account is not owned by the token program")

	// ErrInvalidMint is returned when a token account belongs to a different mint.
	ErrInvalidMint = errors.New("token account mint mismatch")

	// ErrInvalidOwner is returned when a token account belongs to a different owner.
	ErrInvalidOwner = errors.New("token account owner mismatch")

	// ErrInvalidAccountSize is returned when account data is shorter than its layout.
	ErrInvalidAccountSize = errors.New("invalid account size")
)

// TokenAccount is a decoded SPL token account.
type TokenAccount struct {
	Address common.PublicKey
	Mint    common.PublicKey
	Owner   common.PublicKey
	Amount  uint64
	// State: 0 uninitialized, 1 initialized, 2 frozen.
	State uint8
}

// ParseTokenAccount decodes token account data.
// Layout: mint(32) | owner(32) | amount(8) | delegate option(4+32) | state(1) | ...
func ParseTokenAccount(address common.PublicKey, data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountSize {
		return nil, fmt.Errorf("%w: token account data is %d bytes", ErrInvalidAccountSize, len(data))
	}

	acc := &TokenAccount{
		Address: address,
		Amount:  binary.LittleEndian.Uint64(data[64:72]),
		State:   data[108],
	}
	copy(acc.Mint[:], data[0:32])
	copy(acc.Owner[:], data[32:64])
	return acc, nil
}

// PublicKeyFromBase58 decodes a 32-byte address.
func PublicKeyFromBase58(s string) (common.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(b) != 32 {
		return common.PublicKey{}, fmt.Errorf("decode address %q: got %d bytes, want 32", s, len(b))
	}
	var pk common.PublicKey
	copy(pk[:], b)
	return pk, nil
}
