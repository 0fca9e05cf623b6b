package jit

import (
	"fmt"
	"math/big"

	"jitvault/internal/pool"
	"jitvault/internal/poolmath"
)

const bpsDenominator = 10_000

// CapInputs carries everything the sizing step reads: the swap as the
// engine describes it, the pool's live state, and the vault's reserves for
// both currencies in canonical pool order.
type CapInputs struct {
	Desc          pool.Descriptor
	Params        pool.SwapParams
	SqrtPriceX96  *big.Int
	PoolLiquidity *big.Int
	Reserves0     *big.Int
	Reserves1     *big.Int
}

// ComputeCaps returns the maximum amounts of each currency the vault may
// offer as JIT liquidity for this swap, in canonical pool order.
//
// The input side is the vault's reserves scaled by the leverage multiplier
// (basis points). The output side is additionally clamped to the amount
// the pool itself would release for this swap in a single constant-
// liquidity step, so the injected position is never sized beyond what this
// swap will consume. A zero step output collapses the output cap to zero
// while the input cap keeps its leveraged figure.
func ComputeCaps(in CapInputs, leverageBps uint64) (cap0, cap1 *big.Int, err error) {
	if in.SqrtPriceX96 == nil || in.PoolLiquidity == nil {
		return nil, nil, fmt.Errorf("missing pool state")
	}

	stepOut, err := poolmath.StepOutput(
		in.SqrtPriceX96,
		in.PoolLiquidity,
		in.Params.AmountSpecified,
		in.Params.ZeroForOne,
		in.Desc.Fee,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("step output: %w", err)
	}

	reservesIn, reservesOut := in.Reserves0, in.Reserves1
	if !in.Params.ZeroForOne {
		reservesIn, reservesOut = in.Reserves1, in.Reserves0
	}

	capIn := leveraged(reservesIn, leverageBps)
	capOut := leveraged(reservesOut, leverageBps)
	if capOut.Cmp(stepOut) > 0 {
		capOut.Set(stepOut)
	}

	if in.Params.ZeroForOne {
		return capIn, capOut, nil
	}
	return capOut, capIn, nil
}

func leveraged(reserves *big.Int, leverageBps uint64) *big.Int {
	if reserves == nil || reserves.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(reserves, new(big.Int).SetUint64(leverageBps))
	return out.Div(out, big.NewInt(bpsDenominator))
}
