package scenario

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rangepool/rangepool/lib/factory"
	"github.com/rangepool/rangepool/lib/pool"
	"github.com/rangepool/rangepool/lib/prices"
	"github.com/rangepool/rangepool/lib/token"

	ui "github.com/holiman/uint256"
)

// Participant is a named account that funds its own pool operations through
// the mint and swap callbacks.
type Participant struct {
	Name string
	Addr common.Address

	token0 *token.Token
	token1 *token.Token
}

// PayForMint transfers the owed amounts from the participant to the pool.
func (pt *Participant) PayForMint(poolAddr common.Address, amount0Owed, amount1Owed *ui.Int, _ []byte) error {
	if !amount0Owed.IsZero() {
		if err := pt.token0.Transfer(pt.Addr, poolAddr, amount0Owed); err != nil {
			return err
		}
	}
	if !amount1Owed.IsZero() {
		return pt.token1.Transfer(pt.Addr, poolAddr, amount1Owed)
	}
	return nil
}

// PayForSwap transfers the positive (owed) delta from the participant to the
// pool; the negative delta has already been paid out to the recipient.
func (pt *Participant) PayForSwap(poolAddr common.Address, amount0Delta, amount1Delta *ui.Int, _ []byte) error {
	if amount0Delta.Sign() > 0 {
		return pt.token0.Transfer(pt.Addr, poolAddr, amount0Delta)
	}
	if amount1Delta.Sign() > 0 {
		return pt.token1.Transfer(pt.Addr, poolAddr, amount1Delta)
	}
	return nil
}

// Summary is the pool state after a replay.
type Summary struct {
	OpsApplied int
	Price      decimal.Decimal
	Tick       int
	Liquidity  *ui.Int
	Balance0   *ui.Int
	Balance1   *ui.Int
}

// Runner replays a scenario against one pool.
type Runner struct {
	scenario *Scenario
	log      *zap.Logger

	token0 *token.Token
	token1 *token.Token
	pool   *pool.Pool

	funding0 *ui.Int
	funding1 *ui.Int

	participants map[string]*Participant
}

// NewRunner deploys the scenario's tokens and pool through a registry.
func NewRunner(s *Scenario, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}

	t0 := token.New(s.Token0)
	t1 := token.New(s.Token1)

	reg := factory.New(common.BytesToAddress(crypto.Keccak256([]byte("scenario-factory"))[12:]))
	p, err := reg.CreatePool(t0, t1, s.TickLower, s.TickUpper, s.Fee)
	if err != nil {
		return nil, err
	}
	p.SetLogger(log)

	// the registry canonicalizes token order; sides in the ops (funding0,
	// zero_for_one) always refer to the pool's token0/token1
	t0, t1 = p.Token0(), p.Token1()

	funding0, err := parseAmount("funding0", s.Funding0)
	if err != nil {
		return nil, err
	}
	funding1, err := parseAmount("funding1", s.Funding1)
	if err != nil {
		return nil, err
	}

	return &Runner{
		scenario:     s,
		log:          log,
		token0:       t0,
		token1:       t1,
		pool:         p,
		funding0:     funding0,
		funding1:     funding1,
		participants: make(map[string]*Participant),
	}, nil
}

func (r *Runner) Pool() *pool.Pool { return r.pool }

// Run applies every operation in order. The first failing operation aborts
// the replay; pool state stays at the last successful operation.
func (r *Runner) Run() (Summary, error) {
	for i, op := range r.scenario.Ops {
		if err := r.apply(op); err != nil {
			return Summary{}, fmt.Errorf("op %d (%s): %w", i, op.Type, err)
		}
	}

	slot := r.pool.Slot0()
	return Summary{
		OpsApplied: len(r.scenario.Ops),
		Price:      prices.FromSqrtX96(slot.SqrtPriceX96),
		Tick:       slot.Tick,
		Liquidity:  r.pool.Liquidity(),
		Balance0:   r.token0.BalanceOf(r.pool.Address()),
		Balance1:   r.token1.BalanceOf(r.pool.Address()),
	}, nil
}

func (r *Runner) apply(op Op) error {
	switch op.Type {
	case "initialize":
		price, err := decimal.NewFromString(op.Price)
		if err != nil {
			return fmt.Errorf("bad price %q: %w", op.Price, err)
		}
		sqrtX96, err := prices.SqrtX96FromPrice(price)
		if err != nil {
			return err
		}
		return r.pool.Initialize(sqrtX96)

	case "mint":
		pt := r.participant(op.Owner)
		liquidity, err := parseAmount("liquidity", op.Liquidity)
		if err != nil {
			return err
		}
		amount0, amount1, err := r.pool.Mint(pt.Addr, liquidity, pt, nil)
		if err != nil {
			return err
		}
		r.log.Info("mint applied",
			zap.String("owner", op.Owner),
			zap.String("liquidity", liquidity.Dec()),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()))
		return nil

	case "burn":
		pt := r.participant(op.Owner)
		liquidity, err := parseAmount("liquidity", op.Liquidity)
		if err != nil {
			return err
		}
		amount0, amount1, err := r.pool.Burn(pt.Addr, liquidity)
		if err != nil {
			return err
		}
		r.log.Info("burn applied",
			zap.String("owner", op.Owner),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()))
		return nil

	case "collect":
		pt := r.participant(op.Owner)
		req0, err := parseAmount("amount0_requested", op.Amount0Requested)
		if err != nil {
			return err
		}
		req1, err := parseAmount("amount1_requested", op.Amount1Requested)
		if err != nil {
			return err
		}
		if op.Amount0Requested == "" {
			req0 = maxCollect()
		}
		if op.Amount1Requested == "" {
			req1 = maxCollect()
		}
		amount0, amount1, err := r.pool.Collect(pt.Addr, pt.Addr, req0, req1)
		if err != nil {
			return err
		}
		r.log.Info("collect applied",
			zap.String("owner", op.Owner),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()))
		return nil

	case "swap":
		pt := r.participant(op.Owner)
		amountIn, err := parseAmount("amount_in", op.AmountIn)
		if err != nil {
			return err
		}
		var limit *ui.Int
		if op.PriceLimit != "" {
			limitPrice, err := decimal.NewFromString(op.PriceLimit)
			if err != nil {
				return fmt.Errorf("bad price_limit %q: %w", op.PriceLimit, err)
			}
			if limit, err = prices.SqrtX96FromPrice(limitPrice); err != nil {
				return err
			}
		}
		amount0, amount1, err := r.pool.Swap(pool.SwapParams{
			Recipient:         pt.Addr,
			ZeroForOne:        op.ZeroForOne,
			AmountSpecified:   amountIn,
			SqrtPriceLimitX96: limit,
		}, pt)
		if err != nil {
			return err
		}
		r.log.Info("swap applied",
			zap.String("owner", op.Owner),
			zap.Bool("zero_for_one", op.ZeroForOne),
			zap.String("amount0_delta", signedDec(amount0)),
			zap.String("amount1_delta", signedDec(amount1)))
		return nil

	default:
		return fmt.Errorf("unknown op type %q", op.Type)
	}
}

// participant returns the named participant, funding it on first use.
func (r *Runner) participant(name string) *Participant {
	if pt := r.participants[name]; pt != nil {
		return pt
	}
	pt := &Participant{
		Name:   name,
		Addr:   common.BytesToAddress(crypto.Keccak256([]byte("participant:" + name))[12:]),
		token0: r.token0,
		token1: r.token1,
	}
	if !r.funding0.IsZero() {
		r.token0.Mint(pt.Addr, r.funding0)
	}
	if !r.funding1.IsZero() {
		r.token1.Mint(pt.Addr, r.funding1)
	}
	r.participants[name] = pt
	return pt
}

func maxCollect() *ui.Int {
	max := new(ui.Int)
	return max.Not(max)
}

func signedDec(x *ui.Int) string {
	if x.Sign() < 0 {
		return "-" + new(ui.Int).Neg(x).Dec()
	}
	return x.Dec()
}
