package feemath

import (
	"errors"

	cons "github.com/rangepool/rangepool/lib/constants"
	fm "github.com/rangepool/rangepool/lib/fullmath"

	ui "github.com/holiman/uint256"
)

// ErrZeroLiquidity is returned when a fee would be spread over zero active
// liquidity. The pool rejects zero-liquidity swaps before any fee is taken,
// so hitting this from pool code means the guard was bypassed.
var ErrZeroLiquidity = errors.New("feemath: division by zero liquidity")

// Growth converts a collected fee amount into the Q128 fee-growth increment
// for the global accumulator: feeAmount / liquidity.
func Growth(feeAmount, liquidity *ui.Int) (*ui.Int, error) {
	if liquidity.IsZero() {
		return nil, ErrZeroLiquidity
	}
	return fm.MulDiv(feeAmount, cons.Q128, liquidity), nil
}

// Owed returns the fees earned by a position since its last snapshot:
// (global - last) * liquidity. The global accumulator never decreases, so
// the result is non-negative.
func Owed(feeGrowthGlobalX128, feeGrowthLastX128, liquidity *ui.Int) *ui.Int {
	delta := new(ui.Int).Sub(feeGrowthGlobalX128, feeGrowthLastX128)
	return fm.MulDiv(delta, liquidity, cons.Q128)
}
