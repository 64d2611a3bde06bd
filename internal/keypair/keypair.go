// Package keypair loads signing keypairs from disk.
//
// The primary format is the solana-keygen file: a JSON array of the 64 secret
// key bytes (32-byte seed followed by the 32-byte public key). A JSON string
// holding the same 64 bytes in base58, as exported by browser wallets, is
// accepted as well.
package keypair

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"filippo.io/edwards25519"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidLength is returned when the secret key is not 64 bytes.
	ErrInvalidLength = errors.New("invalid secret key length")

	// ErrInvalidByte is returned when an array element is outside 0..255.
	ErrInvalidByte = errors.New("secret key element out of byte range")

	// ErrPublicKeyMismatch is returned when the public half does not match the seed.
	ErrPublicKeyMismatch = errors.New("provided secretKey is invalid")

	// ErrInvalidPublicKey is returned when the public half is not a curve point.
	ErrInvalidPublicKey = errors.New("public key is not a valid ed25519 point")
)

// Load reads a keypair file and returns the signing account.
func Load(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair %s: %w", path, err)
	}
	acc, err := Parse(data)
	if err != nil {
		return types.Account{}, fmt.Errorf("parse keypair %s: %w", path, err)
	}
	return acc, nil
}

// Parse decodes keypair file contents and validates the key material.
func Parse(data []byte) (types.Account, error) {
	secret, err := decode(data)
	if err != nil {
		return types.Account{}, err
	}
	if err := Validate(secret); err != nil {
		return types.Account{}, err
	}
	acc, err := types.AccountFromBytes(secret)
	if err != nil {
		return types.Account{}, fmt.Errorf("account from bytes: %w", err)
	}
	return acc, nil
}

// Validate checks that secret is a consistent ed25519 keypair.
func Validate(secret []byte) error {
	if len(secret) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidLength, len(secret), ed25519.PrivateKeySize)
	}

	pub := secret[ed25519.SeedSize:]
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return ErrInvalidPublicKey
	}

	derived := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize]).Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, pub) {
		return ErrPublicKeyMismatch
	}
	return nil
}

// Encode renders secret in the solana-keygen JSON array format.
func Encode(secret []byte) ([]byte, error) {
	ints := make([]int, len(secret))
	for i, b := range secret {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

func decode(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, fmt.Errorf("unmarshal keypair json: %w", err)
		}
		secret, err := base58.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode base58 secret key: %w", err)
		}
		return secret, nil
	}

	var ints []int
	if err := json.Unmarshal(trimmed, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}

	secret := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: index %d value %d", ErrInvalidByte, i, v)
		}
		secret[i] = byte(v)
	}
	return secret, nil
}
