// Package prices converts between the pool's Q64.96 sqrt-price encoding and
// human-readable decimal prices (token1 per token0).
package prices

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	ui "github.com/holiman/uint256"
)

var (
	ErrNonPositivePrice = errors.New("prices: price must be positive")
	ErrPriceOverflow    = errors.New("prices: price too large for Q64.96")
)

// quoting precision in decimal digits
const precision = 30

var q192Dec = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// FromSqrtX96 returns the price encoded by a Q64.96 sqrt ratio:
// (sqrtPriceX96 / 2^96)^2.
func FromSqrtX96(sqrtPriceX96 *ui.Int) decimal.Decimal {
	sq := new(big.Int).Mul(sqrtPriceX96.ToBig(), sqrtPriceX96.ToBig())
	return decimal.NewFromBigInt(sq, 0).DivRound(q192Dec, precision)
}

// SqrtX96FromPrice encodes a decimal price as a Q64.96 sqrt ratio.
func SqrtX96FromPrice(price decimal.Decimal) (*ui.Int, error) {
	if !price.IsPositive() {
		return nil, ErrNonPositivePrice
	}

	// price * 2^192, then integer square root
	scaled := price.Mul(q192Dec)
	root := new(big.Int).Sqrt(scaled.BigInt())

	out, overflow := ui.FromBig(root)
	if overflow {
		return nil, ErrPriceOverflow
	}
	return out, nil
}
