package pool

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rangepool/rangepool/lib/position"
	"github.com/rangepool/rangepool/lib/token"

	ui "github.com/holiman/uint256"
)

// Slot0 is the pool's hot state: current price and the tick it maps to.
type Slot0 struct {
	SqrtPriceX96 *ui.Int
	Tick         int
	Initialized  bool
}

func (p *Pool) Slot0() Slot0 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Slot0{
		SqrtPriceX96: p.sqrtPriceX96.Clone(),
		Tick:         p.tick,
		Initialized:  !p.sqrtPriceX96.IsZero(),
	}
}

func (p *Pool) Address() common.Address { return p.addr }

func (p *Pool) Token0() *token.Token { return p.token0 }

func (p *Pool) Token1() *token.Token { return p.token1 }

func (p *Pool) Fee() uint64 { return p.fee }

func (p *Pool) TickLower() int { return p.tickLower }

func (p *Pool) TickUpper() int { return p.tickUpper }

func (p *Pool) SqrtPriceLowerX96() *ui.Int { return p.sqrtPriceLowerX96.Clone() }

func (p *Pool) SqrtPriceUpperX96() *ui.Int { return p.sqrtPriceUpperX96.Clone() }

func (p *Pool) Liquidity() *ui.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liquidity.Clone()
}

func (p *Pool) FeeGrowthGlobal0X128() *ui.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feeGrowthGlobal0X128.Clone()
}

func (p *Pool) FeeGrowthGlobal1X128() *ui.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feeGrowthGlobal1X128.Clone()
}

// Position returns a copy of the owner's position, or nil if the owner never
// minted.
func (p *Pool) Position(owner common.Address) *position.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos := p.positions.Get(owner); pos != nil {
		return pos.Clone()
	}
	return nil
}

// PositionLiquiditySum is the aggregate liquidity over all positions; it
// always equals Liquidity.
func (p *Pool) PositionLiquiditySum() *ui.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions.TotalLiquidity()
}
