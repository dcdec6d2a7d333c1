// Package pool implements a concentrated-liquidity pool with one immutable
// price range. A pool holds two tokens, lets owners mint and burn liquidity
// against the range, accrues swap fees per unit of liquidity, and executes
// exact-input swaps as a single closed-form price transition. Calls are
// strictly sequential per pool and either commit fully or leave no trace.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	cons "github.com/rangepool/rangepool/lib/constants"
	"github.com/rangepool/rangepool/lib/feemath"
	"github.com/rangepool/rangepool/lib/position"
	sqrtmath "github.com/rangepool/rangepool/lib/sqrtprice_math"
	"github.com/rangepool/rangepool/lib/swapmath"
	"github.com/rangepool/rangepool/lib/tickmath"
	"github.com/rangepool/rangepool/lib/token"

	ui "github.com/holiman/uint256"
)

var (
	ErrIdenticalTokens    = errors.New("pool: token0 and token1 are the same token")
	ErrAlreadyInitialized = errors.New("pool: already initialized")
	ErrNotInitialized     = errors.New("pool: not initialized")
	ErrZeroAmount         = errors.New("pool: zero amount")
	ErrInsufficientInput  = errors.New("pool: funding callback under-delivered")
	ErrPriceLimit         = errors.New("pool: price limit violation")
	ErrPriceOutOfRange    = errors.New("pool: price outside pool range")
	ErrInvalidFee         = errors.New("pool: fee must be below the fee base")
)

// MintCallback funds a mint: it must transfer at least the owed amounts to
// the pool address before returning. The pool verifies its balances
// afterwards instead of trusting the callback.
type MintCallback interface {
	PayForMint(pool common.Address, amount0Owed, amount1Owed *ui.Int, data []byte) error
}

// SwapCallback funds a swap. The deltas are signed two's-complement values:
// the positive one is owed to the pool, the negative one was already sent to
// the recipient.
type SwapCallback interface {
	PayForSwap(pool common.Address, amount0Delta, amount1Delta *ui.Int, data []byte) error
}

// SwapParams describes one exact-input swap.
type SwapParams struct {
	Recipient common.Address
	// ZeroForOne sells token0 for token1 (price moves down) when true.
	ZeroForOne bool
	// AmountSpecified is the exact input amount, gross of fee. Must be > 0.
	AmountSpecified *ui.Int
	// SqrtPriceLimitX96 optionally bounds the price move; nil or zero means
	// only the pool's own range bounds apply.
	SqrtPriceLimitX96 *ui.Int
	// RequireFullFill rejects the swap instead of partially filling when a
	// bound is hit before the input is consumed.
	RequireFullFill bool
	Data            []byte
}

type Pool struct {
	mu  sync.Mutex
	log *zap.Logger

	token0 *token.Token
	token1 *token.Token
	addr   common.Address
	fee    uint64

	tickLower int
	tickUpper int
	// cached sqrt ratios of the immutable bounds
	sqrtPriceLowerX96 *ui.Int
	sqrtPriceUpperX96 *ui.Int

	sqrtPriceX96         *ui.Int // zero until Initialize
	tick                 int
	liquidity            *ui.Int
	feeGrowthGlobal0X128 *ui.Int
	feeGrowthGlobal1X128 *ui.Int

	positions *position.Ledger
}

// New creates an uninitialized pool for the given token pair, tick range, and
// fee rate in parts per million. Tokens are stored in canonical order
// (token0 address below token1); the bounds must satisfy tickLower <
// tickUpper and lie in the representable tick range.
func New(token0, token1 *token.Token, tickLower, tickUpper int, fee uint64, addr common.Address) (*Pool, error) {
	if token0.Address() == token1.Address() {
		return nil, ErrIdenticalTokens
	}
	if token1.Address().Big().Cmp(token0.Address().Big()) < 0 {
		token0, token1 = token1, token0
	}
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("%w: lower %d upper %d", tickmath.ErrInvalidTick, tickLower, tickUpper)
	}
	if fee >= cons.FeeBase {
		return nil, ErrInvalidFee
	}

	sqrtLower, err := tickmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}

	return &Pool{
		log:                  zap.NewNop(),
		token0:               token0,
		token1:               token1,
		addr:                 addr,
		fee:                  fee,
		tickLower:            tickLower,
		tickUpper:            tickUpper,
		sqrtPriceLowerX96:    sqrtLower,
		sqrtPriceUpperX96:    sqrtUpper,
		sqrtPriceX96:         new(ui.Int),
		liquidity:            new(ui.Int),
		feeGrowthGlobal0X128: new(ui.Int),
		feeGrowthGlobal1X128: new(ui.Int),
		positions:            position.NewLedger(),
	}, nil
}

// SetLogger attaches a structured logger; a nil logger reverts to no-op.
func (p *Pool) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	p.log = log
}

// Initialize sets the starting price. It may be called exactly once, and the
// price must lie inside the pool's range.
func (p *Pool) Initialize(sqrtPriceX96 *ui.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sqrtPriceX96.IsZero() {
		return ErrAlreadyInitialized
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return ErrZeroAmount
	}
	if sqrtPriceX96.Cmp(p.sqrtPriceLowerX96) < 0 || sqrtPriceX96.Cmp(p.sqrtPriceUpperX96) > 0 {
		return ErrPriceOutOfRange
	}

	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}

	p.sqrtPriceX96 = sqrtPriceX96.Clone()
	p.tick = tick
	p.log.Info("pool initialized",
		zap.String("pool", p.addr.Hex()),
		zap.String("sqrt_price_x96", sqrtPriceX96.Dec()),
		zap.Int("tick", tick))
	return nil
}

// Mint adds liquidity for owner. The required token amounts are rounded up,
// the position and pool liquidity are updated optimistically, and the funding
// callback must then deliver at least those amounts to the pool address; the
// whole call is rolled back if it does not.
func (p *Pool) Mint(owner common.Address, liquidityDelta *ui.Int, cb MintCallback, data []byte) (amount0, amount1 *ui.Int, err error) {
	if liquidityDelta == nil || liquidityDelta.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sqrtPriceX96.IsZero() {
		return nil, nil, ErrNotInitialized
	}

	amount0 = sqrtmath.Amount0Delta(p.sqrtPriceX96, p.sqrtPriceUpperX96, liquidityDelta, true)
	amount1 = sqrtmath.Amount1Delta(p.sqrtPriceLowerX96, p.sqrtPriceX96, liquidityDelta, true)

	snap := p.positions.Snapshot()
	liquidityBefore := p.liquidity.Clone()

	if _, err = p.positions.Update(owner, liquidityDelta, false, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128); err != nil {
		return nil, nil, err
	}
	p.liquidity.Add(p.liquidity, liquidityDelta)

	balance0Before := p.token0.BalanceOf(p.addr)
	balance1Before := p.token1.BalanceOf(p.addr)

	rollback := func() {
		p.positions.Restore(snap)
		p.liquidity = liquidityBefore
	}

	if err = cb.PayForMint(p.addr, amount0.Clone(), amount1.Clone(), data); err != nil {
		rollback()
		return nil, nil, fmt.Errorf("mint callback: %w", err)
	}
	if !p.receivedAtLeast(p.token0, balance0Before, amount0) || !p.receivedAtLeast(p.token1, balance1Before, amount1) {
		rollback()
		return nil, nil, ErrInsufficientInput
	}

	p.log.Debug("mint",
		zap.String("owner", owner.Hex()),
		zap.String("liquidity", liquidityDelta.Dec()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()))
	return amount0, amount1, nil
}

// Burn removes liquidity and credits the freed token amounts, rounded down,
// to the position's TokensOwed balances. Funds stay in the pool until an
// explicit Collect.
func (p *Pool) Burn(owner common.Address, liquidityDelta *ui.Int) (amount0, amount1 *ui.Int, err error) {
	if liquidityDelta == nil || liquidityDelta.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sqrtPriceX96.IsZero() {
		return nil, nil, ErrNotInitialized
	}

	pos, err := p.positions.Update(owner, liquidityDelta, true, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128)
	if err != nil {
		return nil, nil, err
	}

	amount0 = sqrtmath.Amount0Delta(p.sqrtPriceX96, p.sqrtPriceUpperX96, liquidityDelta, false)
	amount1 = sqrtmath.Amount1Delta(p.sqrtPriceLowerX96, p.sqrtPriceX96, liquidityDelta, false)

	pos.TokensOwed0.Add(pos.TokensOwed0, amount0)
	pos.TokensOwed1.Add(pos.TokensOwed1, amount1)
	p.liquidity.Sub(p.liquidity, liquidityDelta)

	p.log.Debug("burn",
		zap.String("owner", owner.Hex()),
		zap.String("liquidity", liquidityDelta.Dec()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()))
	return amount0, amount1, nil
}

// Collect pays out up to the requested amounts of the owner's TokensOwed
// balances to the recipient. It never moves more than what is owed.
func (p *Pool) Collect(owner, recipient common.Address, amount0Requested, amount1Requested *ui.Int) (amount0, amount1 *ui.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amount0, amount1 = p.positions.Collect(owner, amount0Requested, amount1Requested)

	if !amount0.IsZero() {
		if err = p.token0.Transfer(p.addr, recipient, amount0); err != nil {
			// owed amounts never exceed the real balance unless accounting broke
			return nil, nil, fmt.Errorf("collect token0: %w", err)
		}
	}
	if !amount1.IsZero() {
		if err = p.token1.Transfer(p.addr, recipient, amount1); err != nil {
			return nil, nil, fmt.Errorf("collect token1: %w", err)
		}
	}

	p.log.Debug("collect",
		zap.String("owner", owner.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()))
	return amount0, amount1, nil
}

// Swap executes an exact-input swap as one atomic transition. It returns the
// signed token deltas from the pool's point of view: the input delta is
// positive, the output delta negative. When a bound or the caller's limit is
// hit first, the realized input may be below AmountSpecified; the deltas
// report what actually happened.
func (p *Pool) Swap(params SwapParams, cb SwapCallback) (amount0, amount1 *ui.Int, err error) {
	if params.AmountSpecified == nil || params.AmountSpecified.IsZero() || params.AmountSpecified.Sign() < 0 {
		return nil, nil, ErrZeroAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sqrtPriceX96.IsZero() {
		return nil, nil, ErrNotInitialized
	}
	if p.liquidity.IsZero() {
		return nil, nil, position.ErrInsufficientLiquidity
	}

	target, limitBinds, err := p.swapTarget(params.ZeroForOne, params.SqrtPriceLimitX96)
	if err != nil {
		return nil, nil, err
	}
	if p.sqrtPriceX96.Eq(target) {
		// price already pinned at the binding bound, nothing can be filled
		if limitBinds {
			return nil, nil, ErrPriceLimit
		}
		return nil, nil, position.ErrInsufficientLiquidity
	}

	sqrtPriceNext, amountIn, amountOut, feeAmount := swapmath.ComputeSwapStep(
		p.sqrtPriceX96, target, p.liquidity, params.AmountSpecified, p.fee)

	amountInTotal := new(ui.Int).Add(amountIn, feeAmount)
	if params.RequireFullFill && amountInTotal.Cmp(params.AmountSpecified) < 0 {
		return nil, nil, ErrPriceLimit
	}
	if amountInTotal.IsZero() || amountOut.IsZero() {
		if limitBinds {
			return nil, nil, ErrPriceLimit
		}
		return nil, nil, position.ErrInsufficientLiquidity
	}

	tickNext, err := tickmath.TickAtSqrtRatio(sqrtPriceNext)
	if err != nil {
		return nil, nil, err
	}

	growth, err := feemath.Growth(feeAmount, p.liquidity)
	if err != nil {
		return nil, nil, err
	}

	// commit price and fee growth, then settle balances
	sqrtPriceBefore, tickBefore := p.sqrtPriceX96, p.tick
	var feeGrowthBefore *ui.Int
	p.sqrtPriceX96 = sqrtPriceNext
	p.tick = tickNext
	if params.ZeroForOne {
		feeGrowthBefore = p.feeGrowthGlobal0X128.Clone()
		p.feeGrowthGlobal0X128.Add(p.feeGrowthGlobal0X128, growth)
		amount0 = amountInTotal
		amount1 = new(ui.Int).Neg(amountOut)
	} else {
		feeGrowthBefore = p.feeGrowthGlobal1X128.Clone()
		p.feeGrowthGlobal1X128.Add(p.feeGrowthGlobal1X128, growth)
		amount0 = new(ui.Int).Neg(amountOut)
		amount1 = amountInTotal
	}

	inputToken, outputToken := p.token0, p.token1
	if !params.ZeroForOne {
		inputToken, outputToken = p.token1, p.token0
	}

	rollback := func() {
		p.sqrtPriceX96 = sqrtPriceBefore
		p.tick = tickBefore
		if params.ZeroForOne {
			p.feeGrowthGlobal0X128 = feeGrowthBefore
		} else {
			p.feeGrowthGlobal1X128 = feeGrowthBefore
		}
	}

	// pay the output optimistically, then pull the input via the callback
	if err = outputToken.Transfer(p.addr, params.Recipient, amountOut); err != nil {
		rollback()
		return nil, nil, fmt.Errorf("swap output: %w", err)
	}

	inputBalanceBefore := inputToken.BalanceOf(p.addr)
	if err = cb.PayForSwap(p.addr, amount0.Clone(), amount1.Clone(), params.Data); err != nil {
		rollback()
		_ = outputToken.Transfer(params.Recipient, p.addr, amountOut)
		return nil, nil, fmt.Errorf("swap callback: %w", err)
	}
	if !p.receivedAtLeast(inputToken, inputBalanceBefore, amountInTotal) {
		rollback()
		_ = outputToken.Transfer(params.Recipient, p.addr, amountOut)
		return nil, nil, ErrInsufficientInput
	}

	p.log.Debug("swap",
		zap.Bool("zero_for_one", params.ZeroForOne),
		zap.String("amount_in", amountInTotal.Dec()),
		zap.String("amount_out", amountOut.Dec()),
		zap.String("sqrt_price_x96", sqrtPriceNext.Dec()),
		zap.Int("tick", tickNext))
	return amount0, amount1, nil
}

// swapTarget resolves the sqrt ratio the swap may move to: the tighter of the
// pool's own range bound and the caller's limit. A limit on the wrong side of
// the current price is a PriceLimitViolation.
func (p *Pool) swapTarget(zeroForOne bool, limit *ui.Int) (target *ui.Int, limitBinds bool, err error) {
	if zeroForOne {
		target = p.sqrtPriceLowerX96
		if limit != nil && !limit.IsZero() {
			if limit.Cmp(p.sqrtPriceX96) >= 0 {
				return nil, false, ErrPriceLimit
			}
			if limit.Cmp(target) > 0 {
				return limit.Clone(), true, nil
			}
		}
		return target.Clone(), false, nil
	}

	target = p.sqrtPriceUpperX96
	if limit != nil && !limit.IsZero() {
		if limit.Cmp(p.sqrtPriceX96) <= 0 {
			return nil, false, ErrPriceLimit
		}
		if limit.Cmp(target) < 0 {
			return limit.Clone(), true, nil
		}
	}
	return target.Clone(), false, nil
}

func (p *Pool) receivedAtLeast(tok *token.Token, balanceBefore, owed *ui.Int) bool {
	if owed.IsZero() {
		return true
	}
	balance := tok.BalanceOf(p.addr)
	received := new(ui.Int).Sub(balance, balanceBefore)
	return balance.Cmp(balanceBefore) >= 0 && received.Cmp(owed) >= 0
}
