package constants

import (
	ui "github.com/holiman/uint256"
)

var (
	Zero          = new(ui.Int)
	One           = new(ui.Int).SetOne()
	MaxUint256, _ = ui.FromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	// fixed-point scales used in price and fee-growth math
	Q96     = new(ui.Int).Lsh(new(ui.Int).SetOne(), 96)
	Q128, _ = ui.FromHex("0x100000000000000000000000000000000")
	Q192    = new(ui.Int).Lsh(new(ui.Int).SetOne(), 192)
)

// FeeBase is the denominator of the pool fee rate. Fees are expressed in
// parts per million of the swap input.
const FeeBase uint64 = 1_000_000

var FeeBaseInt = ui.NewInt(FeeBase)
