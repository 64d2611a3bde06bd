// Package amount converts whole-token quantities into base units.
package amount

import (
	"errors"
	"fmt"
	"math/big"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// ErrAmountOverflow is returned when a base-unit amount exceeds u64.
var ErrAmountOverflow = errors.New("amount exceeds u64")

var maxU64 = new(big.Int).SetUint64(^uint64(0))

// BaseUnits returns supply * 10^decimals.
func BaseUnits(supply *big.Int, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, supply)
}

// Uint64 narrows v to the on-chain u64 amount.
func Uint64(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU64) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, v)
	}
	return v.Uint64(), nil
}

// SOL converts whole SOL into lamports.
func SOL(n uint64) uint64 {
	return n * LamportsPerSOL
}
