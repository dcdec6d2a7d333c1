package sqrtprice_math

import (
	cons "github.com/rangepool/rangepool/lib/constants"
	fm "github.com/rangepool/rangepool/lib/fullmath"

	ui "github.com/holiman/uint256"
)

func multiplyIn256(x, y *ui.Int) *ui.Int {
	product := new(ui.Int).Mul(x, y)
	return new(ui.Int).And(product, cons.MaxUint256)
}

// Amount0Delta returns the token0 amount covering the move between the two
// sqrt ratios at the given liquidity: liquidity * (1/sqrtA - 1/sqrtB).
// roundUp when the amount is owed to the pool, down when owed to the caller.
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int, roundUp bool) *ui.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Eq(sqrtRatioBX96) {
		return new(ui.Int)
	}

	numerator1 := new(ui.Int).Lsh(liquidity, 96)
	numerator2 := new(ui.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return fm.DivRoundingUp(fm.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96), sqrtRatioAX96)
	}
	res := fm.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	return res.Div(res, sqrtRatioAX96)
}

// Amount1Delta returns the token1 amount covering the move between the two
// sqrt ratios at the given liquidity: liquidity * (sqrtB - sqrtA).
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *ui.Int, roundUp bool) *ui.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(ui.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fm.MulDivRoundingUp(liquidity, diff, cons.Q96)
	}
	return fm.MulDiv(liquidity, diff, cons.Q96)
}

// NextSqrtPriceFromAmount0 returns the sqrt ratio after adding (or, when add
// is false, removing) amount of token0 at constant liquidity. Token0 in moves
// the price down, so the result rounds up to keep the move conservative.
func NextSqrtPriceFromAmount0(sqrtPX96, liquidity, amount *ui.Int, add bool) *ui.Int {
	if amount.IsZero() {
		return sqrtPX96.Clone()
	}

	numerator1 := new(ui.Int).Lsh(liquidity, 96)
	if add {
		product := multiplyIn256(amount, sqrtPX96)
		if new(ui.Int).Div(product, amount).Eq(sqrtPX96) {
			denominator := new(ui.Int).Add(numerator1, product)
			if denominator.Cmp(numerator1) >= 0 {
				return fm.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		return fm.DivRoundingUp(numerator1, new(ui.Int).Add(new(ui.Int).Div(numerator1, sqrtPX96), amount))
	}

	product := multiplyIn256(amount, sqrtPX96)
	denominator := new(ui.Int).Sub(numerator1, product)
	return fm.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

// NextSqrtPriceFromAmount1 is the token1 counterpart; token1 in moves the
// price up, and the result rounds down.
func NextSqrtPriceFromAmount1(sqrtPX96, liquidity, amount *ui.Int, add bool) *ui.Int {
	if add {
		quotient := fm.MulDiv(amount, cons.Q96, liquidity)
		return new(ui.Int).Add(sqrtPX96, quotient)
	}
	quotient := fm.MulDivRoundingUp(amount, cons.Q96, liquidity)
	return new(ui.Int).Sub(sqrtPX96, quotient)
}

// NextSqrtPriceFromInput applies an exact input of the given token, net of
// the pool fee. The fee-adjusted input amount*(FeeBase-feePips)/FeeBase is
// carried inside the mulDiv chain at full Q96 precision instead of being
// floored to whole token units first; on small trades the floored form drops
// the entire fee.
func NextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *ui.Int, feePips uint64, zeroForOne bool) *ui.Int {
	if amountIn.IsZero() {
		return sqrtPX96.Clone()
	}
	feeComplement := ui.NewInt(cons.FeeBase - feePips)

	if zeroForOne {
		numerator1 := new(ui.Int).Lsh(liquidity, 96)
		product := multiplyIn256(amountIn, sqrtPX96)
		if new(ui.Int).Div(product, amountIn).Eq(sqrtPX96) {
			effProduct := fm.MulDiv(product, feeComplement, cons.FeeBaseInt)
			denominator := new(ui.Int).Add(numerator1, effProduct)
			if denominator.Cmp(numerator1) >= 0 {
				return fm.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		// overflow fallback, loses only the sub-unit fee remainder
		effAmount := fm.MulDiv(amountIn, feeComplement, cons.FeeBaseInt)
		return fm.DivRoundingUp(numerator1, new(ui.Int).Add(new(ui.Int).Div(numerator1, sqrtPX96), effAmount))
	}

	feeCompQ96 := new(ui.Int).Lsh(feeComplement, 96)
	denominator := new(ui.Int).Mul(liquidity, cons.FeeBaseInt)
	quotient := fm.MulDiv(amountIn, feeCompQ96, denominator)
	return new(ui.Int).Add(sqrtPX96, quotient)
}
