package jit

import (
	"math/big"
	"testing"

	"jitvault/internal/pool"
	"jitvault/internal/poolmath"
)

func capInputs(zeroForOne bool, amountSpecified int64, reserves0, reserves1 int64) CapInputs {
	return CapInputs{
		Desc: pool.Descriptor{Fee: 3000, TickSpacing: 60},
		Params: pool.SwapParams{
			ZeroForOne:      zeroForOne,
			AmountSpecified: big.NewInt(amountSpecified),
		},
		SqrtPriceX96:  new(big.Int).Set(poolmath.Q96),
		PoolLiquidity: new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil),
		Reserves0:     big.NewInt(reserves0),
		Reserves1:     big.NewInt(reserves1),
	}
}

func TestComputeCapsZeroForOne(t *testing.T) {
	// 2x leverage over reserves (5, 10): input cap 10, output cap 20. The
	// pool can release far more than 20 for this swap, so the reserve side
	// binds.
	cap0, cap1, err := ComputeCaps(capInputs(true, -1_000_000, 5, 10), 20_000)
	if err != nil {
		t.Fatalf("compute caps: %v", err)
	}
	if cap0.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("cap0 = %s, want 10", cap0)
	}
	if cap1.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("cap1 = %s, want 20", cap1)
	}
}

func TestComputeCapsOneForZero(t *testing.T) {
	// Same reserves, opposite direction: token1 is now the input side.
	cap0, cap1, err := ComputeCaps(capInputs(false, -1_000_000, 5, 10), 20_000)
	if err != nil {
		t.Fatalf("compute caps: %v", err)
	}
	if cap1.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("cap1 = %s, want 20", cap1)
	}
	if cap0.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("cap0 = %s, want 10", cap0)
	}
}

func TestComputeCapsStepOutputBinds(t *testing.T) {
	in := capInputs(true, 50, 1_000_000, 1_000_000)

	cap0, cap1, err := ComputeCaps(in, 20_000)
	if err != nil {
		t.Fatalf("compute caps: %v", err)
	}
	// Exact-output swap for 50: the output cap collapses to the step
	// output while the input cap keeps its leveraged figure.
	if cap1.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("cap1 = %s, want 50", cap1)
	}
	if cap0.Cmp(big.NewInt(2_000_000)) != 0 {
		t.Fatalf("cap0 = %s, want 2000000", cap0)
	}
}

func TestComputeCapsZeroStepOutput(t *testing.T) {
	// An input so small the fee consumes it: the pool releases nothing, so
	// the output cap is zero even though the reserve cap is not. The input
	// cap is unaffected.
	cap0, cap1, err := ComputeCaps(capInputs(true, -1, 5, 10), 20_000)
	if err != nil {
		t.Fatalf("compute caps: %v", err)
	}
	if cap0.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("cap0 = %s, want 10", cap0)
	}
	if cap1.Sign() != 0 {
		t.Fatalf("cap1 = %s, want 0", cap1)
	}
}

func TestComputeCapsZeroReserves(t *testing.T) {
	cap0, cap1, err := ComputeCaps(capInputs(true, -1_000_000, 0, 0), 20_000)
	if err != nil {
		t.Fatalf("compute caps: %v", err)
	}
	if cap0.Sign() != 0 || cap1.Sign() != 0 {
		t.Fatalf("caps = (%s, %s), want (0, 0)", cap0, cap1)
	}
}

func TestComputeCapsMissingState(t *testing.T) {
	in := capInputs(true, -1_000_000, 5, 10)
	in.SqrtPriceX96 = nil
	if _, _, err := ComputeCaps(in, 20_000); err == nil {
		t.Fatalf("expected error for missing pool state")
	}

	in = capInputs(true, -1_000_000, 5, 10)
	in.PoolLiquidity = nil
	if _, _, err := ComputeCaps(in, 20_000); err == nil {
		t.Fatalf("expected error for missing pool liquidity")
	}
}
