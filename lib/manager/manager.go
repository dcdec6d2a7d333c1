// Package manager wraps pool positions in transferable handles. Each handle
// owns a pool position under a synthetic per-handle address, and
// mint/burn/collect are forwarded to the pool on behalf of whichever address
// currently holds the handle.
package manager

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rangepool/rangepool/lib/pool"
	"github.com/rangepool/rangepool/lib/position"

	ui "github.com/holiman/uint256"
)

var (
	ErrNotOwner        = errors.New("manager: caller does not hold the handle")
	ErrUnknownPosition = errors.New("manager: unknown position handle")
)

type handle struct {
	pool     *pool.Pool
	holder   common.Address
	posOwner common.Address
}

type Manager struct {
	addr common.Address

	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*handle
}

func New(addr common.Address) *Manager {
	return &Manager{
		addr:   addr,
		nextID: 1,
		byID:   make(map[uint64]*handle),
	}
}

func (m *Manager) Address() common.Address { return m.addr }

// Mint creates a new handle held by holder and mints liquidity into the
// underlying pool under the handle's synthetic owner address. The caller's
// callback funds the mint as usual.
func (m *Manager) Mint(holder common.Address, p *pool.Pool, liquidityDelta *ui.Int, cb pool.MintCallback, data []byte) (id uint64, amount0, amount1 *ui.Int, err error) {
	m.mu.Lock()
	id = m.nextID
	posOwner := m.positionOwner(id)
	m.mu.Unlock()

	amount0, amount1, err = p.Mint(posOwner, liquidityDelta, cb, data)
	if err != nil {
		return 0, nil, nil, err
	}

	m.mu.Lock()
	m.nextID++
	m.byID[id] = &handle{pool: p, holder: holder, posOwner: posOwner}
	m.mu.Unlock()
	return id, amount0, amount1, nil
}

// IncreaseLiquidity adds liquidity to an existing handle's position.
func (m *Manager) IncreaseLiquidity(caller common.Address, id uint64, liquidityDelta *ui.Int, cb pool.MintCallback, data []byte) (amount0, amount1 *ui.Int, err error) {
	h, err := m.authorized(caller, id)
	if err != nil {
		return nil, nil, err
	}
	return h.pool.Mint(h.posOwner, liquidityDelta, cb, data)
}

// Burn removes liquidity from the handle's position; freed amounts accrue to
// the position's owed balances until collected.
func (m *Manager) Burn(caller common.Address, id uint64, liquidityDelta *ui.Int) (amount0, amount1 *ui.Int, err error) {
	h, err := m.authorized(caller, id)
	if err != nil {
		return nil, nil, err
	}
	return h.pool.Burn(h.posOwner, liquidityDelta)
}

// Collect pays owed tokens of the handle's position out to recipient.
func (m *Manager) Collect(caller common.Address, id uint64, recipient common.Address, amount0Requested, amount1Requested *ui.Int) (amount0, amount1 *ui.Int, err error) {
	h, err := m.authorized(caller, id)
	if err != nil {
		return nil, nil, err
	}
	return h.pool.Collect(h.posOwner, recipient, amount0Requested, amount1Requested)
}

// Transfer moves the handle to a new holder.
func (m *Manager) Transfer(caller common.Address, id uint64, to common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.byID[id]
	if h == nil {
		return ErrUnknownPosition
	}
	if h.holder != caller {
		return ErrNotOwner
	}
	h.holder = to
	return nil
}

// HolderOf returns the current holder of the handle.
func (m *Manager) HolderOf(id uint64) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.byID[id]
	if h == nil {
		return common.Address{}, ErrUnknownPosition
	}
	return h.holder, nil
}

// Position returns a copy of the underlying pool position for the handle.
func (m *Manager) Position(id uint64) (*position.Info, error) {
	m.mu.Lock()
	h := m.byID[id]
	m.mu.Unlock()
	if h == nil {
		return nil, ErrUnknownPosition
	}
	return h.pool.Position(h.posOwner), nil
}

func (m *Manager) authorized(caller common.Address, id uint64) (*handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.byID[id]
	if h == nil {
		return nil, ErrUnknownPosition
	}
	if h.holder != caller {
		return nil, ErrNotOwner
	}
	return h, nil
}

// positionOwner derives the synthetic pool-side owner address for a handle.
func (m *Manager) positionOwner(id uint64) common.Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	hash := crypto.Keccak256(m.addr.Bytes(), buf[:])
	return common.BytesToAddress(hash[12:])
}
