package poolmath

import (
	"fmt"
	"math/big"
)

const feePipsDenominator = 1_000_000

// StepOutput predicts how much of the output token the pool releases for a
// swap in a single constant-liquidity step from sqrtP toward the
// direction-appropriate price boundary. amountSpecified follows the engine
// convention: negative is exact input, positive is exact output. A pool
// with zero liquidity releases nothing.
func StepOutput(sqrtP, liquidity, amountSpecified *big.Int, zeroForOne bool, feePips uint32) (*big.Int, error) {
	if liquidity == nil || liquidity.Sign() == 0 || sqrtP == nil || sqrtP.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if feePips >= feePipsDenominator {
		return nil, fmt.Errorf("fee %d out of range", feePips)
	}

	var target *big.Int
	if zeroForOne {
		target = new(big.Int).Add(MinSqrtRatio, big.NewInt(1))
	} else {
		target = new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))
	}

	maxOut, err := boundaryOutput(sqrtP, target, liquidity, zeroForOne)
	if err != nil {
		return nil, err
	}

	if amountSpecified.Sign() > 0 {
		// Exact output: the swap takes at most what it asked for.
		if amountSpecified.Cmp(maxOut) < 0 {
			return new(big.Int).Set(amountSpecified), nil
		}
		return maxOut, nil
	}

	// Exact input: apply the pool fee, walk the price, measure the output.
	amountIn := new(big.Int).Neg(amountSpecified)
	amountInLessFee := new(big.Int).Mul(amountIn, big.NewInt(feePipsDenominator-int64(feePips)))
	amountInLessFee.Div(amountInLessFee, big.NewInt(feePipsDenominator))
	if amountInLessFee.Sign() == 0 {
		return big.NewInt(0), nil
	}

	next, err := NextSqrtPriceFromInput(sqrtP, liquidity, amountInLessFee, zeroForOne)
	if err != nil {
		return nil, err
	}
	if zeroForOne && next.Cmp(target) < 0 {
		next = target
	}
	if !zeroForOne && next.Cmp(target) > 0 {
		next = target
	}

	return boundaryOutput(sqrtP, next, liquidity, zeroForOne)
}

func boundaryOutput(sqrtP, sqrtTo, liquidity *big.Int, zeroForOne bool) (*big.Int, error) {
	if zeroForOne {
		return Amount1Delta(sqrtTo, sqrtP, liquidity, false), nil
	}
	return Amount0Delta(sqrtP, sqrtTo, liquidity, false)
}
