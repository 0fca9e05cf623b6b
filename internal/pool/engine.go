package pool

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Descriptor identifies one concentrated-liquidity pool. Currency0 and
// Currency1 follow the engine's canonical ordering (Currency0 < Currency1).
type Descriptor struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         uint32
	TickSpacing int32
	Hook        common.Address
}

// Canonical reports whether the descriptor's currencies are ordered.
func (d Descriptor) Canonical() bool {
	return bytes.Compare(d.Currency0.Bytes(), d.Currency1.Bytes()) < 0
}

// SwapParams carries one swap request as the engine hands it to hooks.
// AmountSpecified is negative for exact input and positive for exact
// output. ZeroForOne is true when the swap pays Currency0 in and takes
// Currency1 out.
type SwapParams struct {
	ZeroForOne      bool
	AmountSpecified *big.Int
	SqrtPriceLimit  *big.Int
}

// Engine is the narrow surface of the external market-making pool the
// controller touches.
type Engine interface {
	// Slot0 returns the current sqrt price (Q64.96) and tick.
	Slot0(ctx context.Context, desc Descriptor) (*big.Int, int32, error)
	// Liquidity returns the pool's currently active liquidity.
	Liquidity(ctx context.Context, desc Descriptor) (*big.Int, error)
	// ModifyLiquidity mints (positive delta) or burns (negative delta)
	// liquidity in the tick range and returns the amounts of each currency
	// the caller owes the pool (mint) or the pool owes the caller (burn),
	// always as non-negative values.
	ModifyLiquidity(ctx context.Context, desc Descriptor, tickLower, tickUpper int32, liquidityDelta *big.Int) (amount0, amount1 *big.Int, err error)
	// Settle pays an amount the caller owes the pool.
	Settle(ctx context.Context, desc Descriptor, currency common.Address, amount *big.Int) error
	// Take collects an amount the pool owes the caller.
	Take(ctx context.Context, desc Descriptor, currency common.Address, amount *big.Int) error
}
