// Package factory deploys pool instances and indexes them by a deterministic
// address derived from their creation parameters, so a pool is locatable
// without enumeration.
package factory

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rangepool/rangepool/lib/pool"
	"github.com/rangepool/rangepool/lib/token"
)

var ErrPoolExists = errors.New("factory: pool already exists")

type Factory struct {
	addr common.Address

	mu    sync.Mutex
	pools map[common.Address]*pool.Pool
}

func New(addr common.Address) *Factory {
	return &Factory{
		addr:  addr,
		pools: make(map[common.Address]*pool.Pool),
	}
}

func (f *Factory) Address() common.Address { return f.addr }

// CreatePool deploys a pool for the given pair, range, and fee. Token order
// is canonicalized before the address is derived, so both argument orders
// name the same pool; a second create with the same parameters fails with
// ErrPoolExists.
func (f *Factory) CreatePool(token0, token1 *token.Token, tickLower, tickUpper int, fee uint64) (*pool.Pool, error) {
	if token0.Address() == token1.Address() {
		return nil, pool.ErrIdenticalTokens
	}
	if token1.Address().Big().Cmp(token0.Address().Big()) < 0 {
		token0, token1 = token1, token0
	}

	addr := f.PoolAddress(token0.Address(), token1.Address(), tickLower, tickUpper, fee)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.pools[addr]; ok {
		return nil, ErrPoolExists
	}

	p, err := pool.New(token0, token1, tickLower, tickUpper, fee, addr)
	if err != nil {
		return nil, err
	}
	f.pools[addr] = p
	return p, nil
}

// PoolAddress derives the address a pool with the given parameters deploys
// at: keccak over the factory address and the creation parameters. Pure, so
// callers can locate a pool without asking the registry.
func (f *Factory) PoolAddress(token0, token1 common.Address, tickLower, tickUpper int, fee uint64) common.Address {
	var params [24]byte
	binary.BigEndian.PutUint64(params[0:8], uint64(int64(tickLower)))
	binary.BigEndian.PutUint64(params[8:16], uint64(int64(tickUpper)))
	binary.BigEndian.PutUint64(params[16:24], fee)

	hash := crypto.Keccak256(
		f.addr.Bytes(),
		token0.Bytes(),
		token1.Bytes(),
		params[:],
	)
	return common.BytesToAddress(hash[12:])
}

// Pool returns the deployed pool at addr, or nil.
func (f *Factory) Pool(addr common.Address) *pool.Pool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pools[addr]
}

// PoolFor locates the pool for the given parameters via address derivation.
func (f *Factory) PoolFor(token0, token1 common.Address, tickLower, tickUpper int, fee uint64) *pool.Pool {
	if token1.Big().Cmp(token0.Big()) < 0 {
		token0, token1 = token1, token0
	}
	return f.Pool(f.PoolAddress(token0, token1, tickLower, tickUpper, fee))
}

// Pools snapshots the deployed pool set for tooling.
func (f *Factory) Pools() []*pool.Pool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*pool.Pool, 0, len(f.pools))
	for _, p := range f.pools {
		out = append(out, p)
	}
	return out
}
