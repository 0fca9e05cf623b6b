package poolmath

import (
	"fmt"
	"math/big"
)

// Q96 is the fixed-point scale of sqrt prices.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

func mulDiv(a, b, denominator *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Div(out, denominator)
}

func mulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	rem := new(big.Int)
	out.DivMod(out, denominator, rem)
	if rem.Sign() != 0 {
		out.Add(out, big.NewInt(1))
	}
	return out
}

func divRoundingUp(a, denominator *big.Int) *big.Int {
	out := new(big.Int)
	rem := new(big.Int)
	out.DivMod(a, denominator, rem)
	if rem.Sign() != 0 {
		out.Add(out, big.NewInt(1))
	}
	return out
}

// Amount0Delta returns the token0 amount between two sqrt prices for the
// given liquidity: L * (sqrtB - sqrtA) / (sqrtA * sqrtB), Q96-scaled.
func Amount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtA.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price must be positive")
	}

	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		return divRoundingUp(mulDivRoundingUp(numerator1, numerator2, sqrtB), sqrtA), nil
	}
	return new(big.Int).Div(mulDiv(numerator1, numerator2, sqrtB), sqrtA), nil
}

// Amount1Delta returns the token1 amount between two sqrt prices for the
// given liquidity: L * (sqrtB - sqrtA) / Q96.
func Amount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, Q96)
	}
	return mulDiv(liquidity, diff, Q96)
}

// NextSqrtPriceFromInput returns the sqrt price after consuming amountIn of
// the input token at constant liquidity.
func NextSqrtPriceFromInput(sqrtP, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtP.Sign() <= 0 || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price and liquidity must be positive")
	}
	if amountIn.Sign() == 0 {
		return new(big.Int).Set(sqrtP), nil
	}

	if zeroForOne {
		// Price moves down: L*Q96*sqrtP / (L*Q96 + amountIn*sqrtP), round up.
		numerator := new(big.Int).Lsh(liquidity, 96)
		product := new(big.Int).Mul(amountIn, sqrtP)
		denominator := new(big.Int).Add(numerator, product)
		return mulDivRoundingUp(numerator, sqrtP, denominator), nil
	}

	// Price moves up: sqrtP + amountIn*Q96/L, round down.
	quotient := mulDiv(amountIn, Q96, liquidity)
	return new(big.Int).Add(sqrtP, quotient), nil
}
