// Package token is an in-memory fungible-token ledger: the direct-transfer
// primitive the pool pays recipients with, and the balances it re-reads after
// a funding callback.
package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	ui "github.com/holiman/uint256"
)

// ErrInsufficientBalance is returned when a transfer exceeds the sender's
// balance.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

type Token struct {
	symbol string
	addr   common.Address

	mu       sync.Mutex
	balances map[common.Address]*ui.Int
}

// New creates a token whose address is derived from its symbol, so the same
// symbol always yields the same address.
func New(symbol string) *Token {
	return &Token{
		symbol:   symbol,
		addr:     common.BytesToAddress(crypto.Keccak256([]byte("token:" + symbol))[12:]),
		balances: make(map[common.Address]*ui.Int),
	}
}

func (t *Token) Symbol() string { return t.symbol }

func (t *Token) Address() common.Address { return t.addr }

// Mint credits freshly issued units to an account. Test and scenario
// funding only; the pool never mints.
func (t *Token) Mint(to common.Address, amount *ui.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(to, amount)
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to common.Address, amount *ui.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	t.credit(to, amount)
	return nil
}

// BalanceOf returns a copy of the account's balance.
func (t *Token) BalanceOf(addr common.Address) *ui.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if bal := t.balances[addr]; bal != nil {
		return bal.Clone()
	}
	return new(ui.Int)
}

func (t *Token) credit(to common.Address, amount *ui.Int) {
	if bal := t.balances[to]; bal != nil {
		bal.Add(bal, amount)
		return
	}
	t.balances[to] = amount.Clone()
}
