package sqrtprice_math

import (
	"testing"

	cons "github.com/rangepool/rangepool/lib/constants"

	ui "github.com/holiman/uint256"
)

func x96(n uint64) *ui.Int {
	return new(ui.Int).Mul(ui.NewInt(n), cons.Q96)
}

func TestAmount1Delta(t *testing.T) {
	liquidity := ui.NewInt(1_000_000)

	// between sqrt 1 and sqrt 2 the token1 amount is exactly liquidity
	got := Amount1Delta(x96(1), x96(2), liquidity, false)
	if !got.Eq(liquidity) {
		t.Fatalf("want %v, got %v", liquidity, got)
	}

	// argument order does not matter
	swapped := Amount1Delta(x96(2), x96(1), liquidity, false)
	if !swapped.Eq(got) {
		t.Fatalf("order dependent: %v vs %v", got, swapped)
	}
}

func TestAmount0Delta(t *testing.T) {
	liquidity := ui.NewInt(1_000_000)

	// liquidity * (1/1 - 1/2) = liquidity / 2
	got := Amount0Delta(x96(1), x96(2), liquidity, false)
	want := ui.NewInt(500_000)
	if !got.Eq(want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	if zero := Amount0Delta(x96(2), x96(2), liquidity, true); !zero.IsZero() {
		t.Fatalf("equal bounds: want 0, got %v", zero)
	}
}

func TestDeltaRoundingDirection(t *testing.T) {
	liquidity := ui.NewInt(31_337)
	a, b := x96(3), x96(7)

	up0 := Amount0Delta(a, b, liquidity, true)
	down0 := Amount0Delta(a, b, liquidity, false)
	if up0.Cmp(down0) < 0 {
		t.Fatal("amount0: rounding up below rounding down")
	}

	up1 := Amount1Delta(a, b, liquidity, true)
	down1 := Amount1Delta(a, b, liquidity, false)
	if up1.Cmp(down1) < 0 {
		t.Fatal("amount1: rounding up below rounding down")
	}
}

func TestNextSqrtPriceFromAmount1(t *testing.T) {
	liquidity := ui.NewInt(1_000_000_000_000_000_000)
	amount := ui.NewInt(500_000_000_000_000_000)

	// adding token1 moves the price up by amount/liquidity
	next := NextSqrtPriceFromAmount1(x96(1), liquidity, amount, true)
	want := new(ui.Int).Add(x96(1), new(ui.Int).Rsh(cons.Q96, 1))
	if !next.Eq(want) {
		t.Fatalf("want %v, got %v", want, next)
	}

	// removing it again returns to the start
	back := NextSqrtPriceFromAmount1(next, liquidity, amount, false)
	if !back.Eq(x96(1)) {
		t.Fatalf("want %v, got %v", x96(1), back)
	}
}

func TestNextSqrtPriceFromAmount0(t *testing.T) {
	liquidity := ui.NewInt(1_000_000)

	// adding amount0 == liquidity at sqrtP 1 halves the sqrt price
	next := NextSqrtPriceFromAmount0(x96(1), liquidity, ui.NewInt(1_000_000), true)
	want := new(ui.Int).Rsh(cons.Q96, 1)
	if !next.Eq(want) {
		t.Fatalf("want %v, got %v", want, next)
	}

	if same := NextSqrtPriceFromAmount0(x96(5), liquidity, new(ui.Int), true); !same.Eq(x96(5)) {
		t.Fatalf("zero amount must not move the price, got %v", same)
	}
}

// The fee-adjusted input is applied at full precision inside the price
// update: the resulting price must sit strictly between the prices produced
// by the floored net input and by the gross input.
func TestNextSqrtPriceFromInputKeepsFeePrecision(t *testing.T) {
	liquidity := ui.NewInt(1_000_000_000)
	current := x96(100)
	amount := ui.NewInt(100)
	const feePips = 3000

	fused := NextSqrtPriceFromInput(current, liquidity, amount, feePips, true)

	// floored net input: 100 * 0.997 -> 99
	floored := NextSqrtPriceFromAmount0(current, liquidity, ui.NewInt(99), true)
	gross := NextSqrtPriceFromAmount0(current, liquidity, ui.NewInt(100), true)

	if !(fused.Cmp(gross) > 0 && fused.Cmp(floored) < 0) {
		t.Fatalf("fused price %v not between gross %v and floored %v", fused, gross, floored)
	}

	// zero fee reduces to the plain amount0 update
	noFee := NextSqrtPriceFromInput(current, liquidity, amount, 0, true)
	if !noFee.Eq(gross) {
		t.Fatalf("zero fee: want %v, got %v", gross, noFee)
	}
}

func TestNextSqrtPriceFromInputDirection(t *testing.T) {
	liquidity := ui.NewInt(1_000_000_000)
	current := x96(100)
	amount := ui.NewInt(1_000_000)

	down := NextSqrtPriceFromInput(current, liquidity, amount, 3000, true)
	if down.Cmp(current) >= 0 {
		t.Fatal("token0 input must move the price down")
	}

	up := NextSqrtPriceFromInput(current, liquidity, amount, 3000, false)
	if up.Cmp(current) <= 0 {
		t.Fatal("token1 input must move the price up")
	}
}
