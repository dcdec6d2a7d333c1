package fullmath

import (
	cons "github.com/rangepool/rangepool/lib/constants"

	ui "github.com/holiman/uint256"
)

// MulDiv returns a*b/denominator with the intermediate product kept at full
// 512-bit width. Panics if the result does not fit 256 bits; every caller in
// this module works with values that cannot overflow unless the pool's own
// accounting is already broken.
func MulDiv(a, b, denominator *ui.Int) *ui.Int {
	result, overflow := new(ui.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		panic("fullmath: mulDiv overflow")
	}
	return result
}

// MulDivRoundingUp is MulDiv rounding the quotient toward positive infinity.
func MulDivRoundingUp(a, b, denominator *ui.Int) *ui.Int {
	if a.IsZero() || b.IsZero() {
		return ui.NewInt(0)
	}
	result := MulDiv(a, b, denominator)
	rem := new(ui.Int).MulMod(a, b, denominator)
	if !rem.IsZero() {
		result.Add(result, cons.One)
	}
	return result
}

// DivRoundingUp returns ceil(a/denominator).
func DivRoundingUp(a, denominator *ui.Int) *ui.Int {
	result := new(ui.Int).Div(a, denominator)
	rem := new(ui.Int).Mod(a, denominator)
	if !rem.IsZero() {
		result.Add(result, cons.One)
	}
	return result
}
