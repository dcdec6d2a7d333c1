package swapmath

import (
	cons "github.com/rangepool/rangepool/lib/constants"
	fm "github.com/rangepool/rangepool/lib/fullmath"
	sqrtmath "github.com/rangepool/rangepool/lib/sqrtprice_math"

	ui "github.com/holiman/uint256"
)

// ComputeSwapStep runs the single closed-form transition of an exact-input
// swap: given the current and target sqrt ratios, the active liquidity, and
// the input amount still to spend (gross of fee), it returns the sqrt ratio
// after the step, the input consumed by the curve, the output freed, and the
// fee taken. The target bounds the move; when the input cannot reach it the
// whole input is consumed and the remainder above the curve amount is the
// fee.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *ui.Int, feePips uint64) (sqrtRatioNextX96, amountIn, amountOut, feeAmount *ui.Int) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	feeComplement := ui.NewInt(cons.FeeBase - feePips)

	var amountInToTarget *ui.Int
	if zeroForOne {
		amountInToTarget = sqrtmath.Amount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
	} else {
		amountInToTarget = sqrtmath.Amount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
	}

	amountRemainingLessFee := fm.MulDiv(amountRemaining, feeComplement, cons.FeeBaseInt)
	if amountRemainingLessFee.Cmp(amountInToTarget) >= 0 {
		// input covers the full move to the target
		sqrtRatioNextX96 = sqrtRatioTargetX96.Clone()
		amountIn = amountInToTarget
		feeAmount = fm.MulDivRoundingUp(amountIn, ui.NewInt(feePips), feeComplement)
		if total := new(ui.Int).Add(amountIn, feeAmount); total.Cmp(amountRemaining) > 0 {
			feeAmount = new(ui.Int).Sub(amountRemaining, amountIn)
		}
	} else {
		sqrtRatioNextX96 = sqrtmath.NextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemaining, feePips, zeroForOne)
		// rounding in the fused price update must not carry past the target
		if zeroForOne {
			if sqrtRatioNextX96.Cmp(sqrtRatioTargetX96) < 0 {
				sqrtRatioNextX96 = sqrtRatioTargetX96.Clone()
			}
		} else {
			if sqrtRatioNextX96.Cmp(sqrtRatioTargetX96) > 0 {
				sqrtRatioNextX96 = sqrtRatioTargetX96.Clone()
			}
		}
		if zeroForOne {
			amountIn = sqrtmath.Amount0Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn = sqrtmath.Amount1Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true)
		}
		if amountIn.Cmp(amountRemaining) > 0 {
			amountIn = amountRemaining.Clone()
		}
		// the target was not reached: everything beyond the curve input is fee
		feeAmount = new(ui.Int).Sub(amountRemaining, amountIn)
	}

	if zeroForOne {
		amountOut = sqrtmath.Amount1Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
	} else {
		amountOut = sqrtmath.Amount0Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false)
	}
	return
}
