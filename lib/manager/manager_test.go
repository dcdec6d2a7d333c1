package manager

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	cons "github.com/rangepool/rangepool/lib/constants"
	"github.com/rangepool/rangepool/lib/pool"
	"github.com/rangepool/rangepool/lib/token"

	ui "github.com/holiman/uint256"
)

var (
	managerAddr = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	poolAddr    = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	holderA     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	holderB     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type funder struct {
	addr   common.Address
	token0 *token.Token
	token1 *token.Token
	short  bool
}

func (f *funder) PayForMint(pool common.Address, amount0Owed, amount1Owed *ui.Int, _ []byte) error {
	if err := f.pay(f.token0, pool, amount0Owed); err != nil {
		return err
	}
	return f.pay(f.token1, pool, amount1Owed)
}

func (f *funder) pay(tok *token.Token, pool common.Address, owed *ui.Int) error {
	if owed.IsZero() {
		return nil
	}
	amount := owed.Clone()
	if f.short {
		amount.Sub(amount, ui.NewInt(1))
	}
	if amount.IsZero() {
		return nil
	}
	return tok.Transfer(f.addr, pool, amount)
}

func newTestSetup(t *testing.T) (*Manager, *pool.Pool, *funder) {
	t.Helper()

	a, b := token.New("USDX"), token.New("WETX")
	p, err := pool.New(a, b, -600, 600, 3000, poolAddr)
	require.NoError(t, err)
	require.NoError(t, p.Initialize(cons.Q96.Clone())) // 1:1

	f := &funder{addr: holderA, token0: p.Token0(), token1: p.Token1()}
	supply, _ := ui.FromDecimal("1000000000000000000")
	f.token0.Mint(holderA, supply)
	f.token1.Mint(holderA, supply)

	return New(managerAddr), p, f
}

func TestMintCreatesHandle(t *testing.T) {
	m, p, f := newTestSetup(t)

	id, amount0, amount1, err := m.Mint(holderA, p, ui.NewInt(1_000_000), f, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.False(t, amount0.IsZero())
	require.False(t, amount1.IsZero())

	holder, err := m.HolderOf(id)
	require.NoError(t, err)
	require.Equal(t, holderA, holder)

	pos, err := m.Position(id)
	require.NoError(t, err)
	require.Equal(t, ui.NewInt(1_000_000), pos.Liquidity)

	// the pool position lives under the synthetic owner, not the holder
	require.Nil(t, p.Position(holderA))

	id2, _, _, err := m.Mint(holderA, p, ui.NewInt(500), f, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id2)
}

func TestFailedMintConsumesNothing(t *testing.T) {
	m, p, f := newTestSetup(t)

	f.short = true
	_, _, _, err := m.Mint(holderA, p, ui.NewInt(1_000_000), f, nil)
	require.ErrorIs(t, err, pool.ErrInsufficientInput)

	_, err = m.HolderOf(1)
	require.ErrorIs(t, err, ErrUnknownPosition)

	f.short = false
	id, _, _, err := m.Mint(holderA, p, ui.NewInt(1_000_000), f, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id, "failed mint must not burn an id")
}

func TestIncreaseLiquidity(t *testing.T) {
	m, p, f := newTestSetup(t)

	id, _, _, err := m.Mint(holderA, p, ui.NewInt(1_000), f, nil)
	require.NoError(t, err)

	_, _, err = m.IncreaseLiquidity(holderA, id, ui.NewInt(500), f, nil)
	require.NoError(t, err)

	pos, err := m.Position(id)
	require.NoError(t, err)
	require.Equal(t, ui.NewInt(1_500), pos.Liquidity)
	require.Equal(t, ui.NewInt(1_500), p.Liquidity())

	_, _, err = m.IncreaseLiquidity(holderB, id, ui.NewInt(500), f, nil)
	require.ErrorIs(t, err, ErrNotOwner)
	_, _, err = m.IncreaseLiquidity(holderA, 99, ui.NewInt(500), f, nil)
	require.ErrorIs(t, err, ErrUnknownPosition)
}

func TestBurnAndCollect(t *testing.T) {
	m, p, f := newTestSetup(t)

	id, _, _, err := m.Mint(holderA, p, ui.NewInt(1_000_000), f, nil)
	require.NoError(t, err)

	owed0, owed1, err := m.Burn(holderA, id, ui.NewInt(1_000_000))
	require.NoError(t, err)
	require.True(t, p.Liquidity().IsZero())

	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	max := new(ui.Int).Not(new(ui.Int))
	got0, got1, err := m.Collect(holderA, id, recipient, max, max)
	require.NoError(t, err)
	require.Equal(t, owed0, got0)
	require.Equal(t, owed1, got1)
	require.Equal(t, owed0, f.token0.BalanceOf(recipient))
	require.Equal(t, owed1, f.token1.BalanceOf(recipient))

	_, _, err = m.Burn(holderB, id, ui.NewInt(1))
	require.ErrorIs(t, err, ErrNotOwner)
	_, _, err = m.Collect(holderB, id, recipient, max, max)
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestTransferHandle(t *testing.T) {
	m, p, f := newTestSetup(t)

	id, _, _, err := m.Mint(holderA, p, ui.NewInt(10_000), f, nil)
	require.NoError(t, err)

	require.ErrorIs(t, m.Transfer(holderB, id, holderB), ErrNotOwner)
	require.ErrorIs(t, m.Transfer(holderA, 99, holderB), ErrUnknownPosition)

	require.NoError(t, m.Transfer(holderA, id, holderB))
	holder, err := m.HolderOf(id)
	require.NoError(t, err)
	require.Equal(t, holderB, holder)

	// the old holder lost control, the new one gained it
	_, _, err = m.Burn(holderA, id, ui.NewInt(1_000))
	require.ErrorIs(t, err, ErrNotOwner)
	_, _, err = m.Burn(holderB, id, ui.NewInt(1_000))
	require.NoError(t, err)
}

func TestPositionUnknownHandle(t *testing.T) {
	m, _, _ := newTestSetup(t)
	_, err := m.Position(42)
	require.ErrorIs(t, err, ErrUnknownPosition)
	_, err = m.HolderOf(42)
	require.ErrorIs(t, err, ErrUnknownPosition)
}
