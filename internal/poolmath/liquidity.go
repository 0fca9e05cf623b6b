package poolmath

import (
	"fmt"
	"math/big"
)

// LiquidityForAmount0 computes the liquidity fundable by amount0 between
// two sqrt prices.
func LiquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if diff.Sign() == 0 {
		return nil, fmt.Errorf("zero-width price range")
	}
	intermediate := mulDiv(sqrtA, sqrtB, Q96)
	return mulDiv(amount0, intermediate, diff), nil
}

// LiquidityForAmount1 computes the liquidity fundable by amount1 between
// two sqrt prices.
func LiquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if diff.Sign() == 0 {
		return nil, fmt.Errorf("zero-width price range")
	}
	return mulDiv(amount1, Q96, diff), nil
}

// LiquidityForAmounts computes the maximum liquidity the two amounts can
// fund in the range [sqrtA, sqrtB] at current price sqrtP. Below the range
// only token0 funds it, above the range only token1, inside the range the
// smaller of the two sides binds.
func LiquidityForAmounts(sqrtP, sqrtA, sqrtB, amount0, amount1 *big.Int) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}

	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		return LiquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtP.Cmp(sqrtB) < 0:
		liq0, err := LiquidityForAmount0(sqrtP, sqrtB, amount0)
		if err != nil {
			return nil, err
		}
		liq1, err := LiquidityForAmount1(sqrtA, sqrtP, amount1)
		if err != nil {
			return nil, err
		}
		if liq0.Cmp(liq1) < 0 {
			return liq0, nil
		}
		return liq1, nil
	default:
		return LiquidityForAmount1(sqrtA, sqrtB, amount1)
	}
}
