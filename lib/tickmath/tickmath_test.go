package tickmath

import (
	"testing"

	cons "github.com/rangepool/rangepool/lib/constants"

	ui "github.com/holiman/uint256"
)

func TestSqrtRatioAtTickKnownValues(t *testing.T) {
	r, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Eq(cons.Q96) {
		t.Fatalf("tick 0: want Q96, got %v", r)
	}

	r, err = SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Eq(MinSqrtRatio) {
		t.Fatalf("MinTick: want %v, got %v", MinSqrtRatio, r)
	}

	r, err = SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Eq(MaxSqrtRatio) {
		t.Fatalf("MaxTick: want %v, got %v", MaxSqrtRatio, r)
	}
}

func TestSqrtRatioAtTickOutOfRange(t *testing.T) {
	if _, err := SqrtRatioAtTick(MinTick - 1); err != ErrInvalidTick {
		t.Fatalf("want ErrInvalidTick, got %v", err)
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); err != ErrInvalidTick {
		t.Fatalf("want ErrInvalidTick, got %v", err)
	}
}

func TestSqrtRatioMonotonic(t *testing.T) {
	ticks := []int{MinTick, -500000, -105972, -1000, -1, 0, 1, 1000, 105971, 500000, MaxTick}
	var prev *ui.Int
	for _, tick := range ticks {
		r, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if prev != nil && r.Cmp(prev) <= 0 {
			t.Fatalf("ratio not increasing at tick %d", tick)
		}
		prev = r
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int{MinTick, -887271, -105972, -42, -1, 0, 1, 42, 105971, 887271}
	for _, tick := range ticks {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip tick %d: got %d", tick, got)
		}
	}
}

// TickAtSqrtRatio floors: for any ratio between two tick ratios it returns
// the lower tick, and re-encoding that tick never exceeds the input.
func TestTickAtSqrtRatioFloors(t *testing.T) {
	for _, tick := range []int{-105972, -1, 0, 1000, 105971} {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatal(err)
		}
		bumped := new(ui.Int).Add(ratio, ui.NewInt(1))

		got, err := TickAtSqrtRatio(bumped)
		if err != nil {
			t.Fatal(err)
		}
		if got != tick {
			t.Fatalf("ratio just above tick %d: got %d", tick, got)
		}

		back, err := SqrtRatioAtTick(got)
		if err != nil {
			t.Fatal(err)
		}
		if back.Cmp(bumped) > 0 {
			t.Fatalf("tick %d: re-encoded ratio exceeds input", tick)
		}
	}
}

func TestTickAtSqrtRatioBounds(t *testing.T) {
	if _, err := TickAtSqrtRatio(new(ui.Int).Sub(MinSqrtRatio, ui.NewInt(1))); err != ErrInvalidTick {
		t.Fatalf("below MinSqrtRatio: want ErrInvalidTick, got %v", err)
	}
	if _, err := TickAtSqrtRatio(MaxSqrtRatio); err != ErrInvalidTick {
		t.Fatalf("at MaxSqrtRatio: want ErrInvalidTick, got %v", err)
	}

	tick, err := TickAtSqrtRatio(new(ui.Int).Sub(MaxSqrtRatio, ui.NewInt(1)))
	if err != nil {
		t.Fatal(err)
	}
	if tick != MaxTick-1 {
		t.Fatalf("just below MaxSqrtRatio: want %d, got %d", MaxTick-1, tick)
	}
}
