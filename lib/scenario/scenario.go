// Package scenario replays a JSON-described sequence of pool operations
// against a freshly deployed pool, with named participants funding their own
// mints and swaps through the callback boundary.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	ui "github.com/holiman/uint256"
)

// Op is one replayed operation. Amount fields are decimal strings so
// scenarios can express values beyond uint64.
type Op struct {
	Type string `json:"type"` // initialize, mint, burn, collect, swap

	Owner string `json:"owner,omitempty"`

	// initialize
	Price string `json:"price,omitempty"` // decimal token1-per-token0 price

	// mint / burn
	Liquidity string `json:"liquidity,omitempty"`

	// swap
	AmountIn   string `json:"amount_in,omitempty"`
	ZeroForOne bool   `json:"zero_for_one,omitempty"`
	PriceLimit string `json:"price_limit,omitempty"` // optional decimal limit

	// collect; empty requested amounts mean "collect everything"
	Amount0Requested string `json:"amount0_requested,omitempty"`
	Amount1Requested string `json:"amount1_requested,omitempty"`
}

// Scenario describes the pool under test and the operations to replay.
type Scenario struct {
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	Fee       uint64 `json:"fee"`
	TickLower int    `json:"tick_lower"`
	TickUpper int    `json:"tick_upper"`

	// per-participant starting balances
	Funding0 string `json:"funding0"`
	Funding1 string `json:"funding1"`

	Ops []Op `json:"ops"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if s.Token0 == "" || s.Token1 == "" {
		return nil, fmt.Errorf("scenario: token symbols are required")
	}
	return &s, nil
}

func parseAmount(field, value string) (*ui.Int, error) {
	if value == "" {
		return new(ui.Int), nil
	}
	out, err := ui.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("scenario: bad %s %q: %w", field, value, err)
	}
	return out, nil
}
