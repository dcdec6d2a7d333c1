package position

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rangepool/rangepool/lib/feemath"

	ui "github.com/holiman/uint256"
)

// ErrInsufficientLiquidity is returned when a negative liquidity delta would
// drive a position (or the pool aggregate) below zero.
var ErrInsufficientLiquidity = errors.New("position: insufficient liquidity")

// Info is one owner's stake in the pool: contributed liquidity, the global
// fee-growth values at the last touch, and fees/principal credited but not
// yet withdrawn.
type Info struct {
	Liquidity                *ui.Int
	FeeGrowthInside0LastX128 *ui.Int
	FeeGrowthInside1LastX128 *ui.Int
	TokensOwed0              *ui.Int
	TokensOwed1              *ui.Int
}

func newInfo() *Info {
	return &Info{
		Liquidity:                ui.NewInt(0),
		FeeGrowthInside0LastX128: ui.NewInt(0),
		FeeGrowthInside1LastX128: ui.NewInt(0),
		TokensOwed0:              ui.NewInt(0),
		TokensOwed1:              ui.NewInt(0),
	}
}

func (i *Info) Clone() *Info {
	return &Info{
		Liquidity:                i.Liquidity.Clone(),
		FeeGrowthInside0LastX128: i.FeeGrowthInside0LastX128.Clone(),
		FeeGrowthInside1LastX128: i.FeeGrowthInside1LastX128.Clone(),
		TokensOwed0:              i.TokensOwed0.Clone(),
		TokensOwed1:              i.TokensOwed1.Clone(),
	}
}

// Ledger holds every position of one pool, keyed by owner.
type Ledger struct {
	positions map[common.Address]*Info
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[common.Address]*Info)}
}

// Get returns the owner's position, or nil if the owner never minted.
func (l *Ledger) Get(owner common.Address) *Info {
	return l.positions[owner]
}

// Update settles fees earned since the position's last snapshot into
// TokensOwed, moves the snapshot to the current global accumulators, then
// applies the liquidity delta. The position is created on first touch and
// persists at zero liquidity after a full burn.
func (l *Ledger) Update(owner common.Address, liquidityDelta *ui.Int, negative bool, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *ui.Int) (*Info, error) {
	pos := l.positions[owner]
	if negative && (pos == nil || liquidityDelta.Cmp(pos.Liquidity) > 0) {
		return nil, ErrInsufficientLiquidity
	}
	if pos == nil {
		pos = newInfo()
		l.positions[owner] = pos
	}

	owed0 := feemath.Owed(feeGrowthGlobal0X128, pos.FeeGrowthInside0LastX128, pos.Liquidity)
	owed1 := feemath.Owed(feeGrowthGlobal1X128, pos.FeeGrowthInside1LastX128, pos.Liquidity)

	pos.TokensOwed0.Add(pos.TokensOwed0, owed0)
	pos.TokensOwed1.Add(pos.TokensOwed1, owed1)
	pos.FeeGrowthInside0LastX128 = feeGrowthGlobal0X128.Clone()
	pos.FeeGrowthInside1LastX128 = feeGrowthGlobal1X128.Clone()

	if negative {
		pos.Liquidity.Sub(pos.Liquidity, liquidityDelta)
	} else {
		pos.Liquidity.Add(pos.Liquidity, liquidityDelta)
	}
	return pos, nil
}

// Collect removes up to the requested amounts from the owner's TokensOwed
// balances and returns what was actually taken. Excess owed balance stays for
// a later collect. A missing position owes nothing.
func (l *Ledger) Collect(owner common.Address, amount0Requested, amount1Requested *ui.Int) (amount0, amount1 *ui.Int) {
	pos := l.positions[owner]
	if pos == nil {
		return new(ui.Int), new(ui.Int)
	}

	amount0 = minInt(amount0Requested, pos.TokensOwed0)
	amount1 = minInt(amount1Requested, pos.TokensOwed1)
	pos.TokensOwed0.Sub(pos.TokensOwed0, amount0)
	pos.TokensOwed1.Sub(pos.TokensOwed1, amount1)
	return amount0, amount1
}

func minInt(a, b *ui.Int) *ui.Int {
	if a.Cmp(b) < 0 {
		return a.Clone()
	}
	return b.Clone()
}

// TotalLiquidity sums liquidity over every position; always equal to the
// pool's aggregate liquidity.
func (l *Ledger) TotalLiquidity() *ui.Int {
	total := new(ui.Int)
	for _, pos := range l.positions {
		total.Add(total, pos.Liquidity)
	}
	return total
}

// Snapshot clones the full ledger so a failed operation can roll back.
func (l *Ledger) Snapshot() map[common.Address]*Info {
	snap := make(map[common.Address]*Info, len(l.positions))
	for owner, pos := range l.positions {
		snap[owner] = pos.Clone()
	}
	return snap
}

// Restore replaces the ledger contents with a previously taken snapshot.
func (l *Ledger) Restore(snap map[common.Address]*Info) {
	l.positions = snap
}
