package sim

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/jit"
	"jitvault/internal/model"
	"jitvault/internal/pool"
)

// captureSink keeps cycle records in memory.
type captureSink struct {
	mu      sync.Mutex
	records []model.CycleRecord
}

func (s *captureSink) PutCycle(record model.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *captureSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// seed funds the runner's vault the way Run does, without driving swaps.
func (r *Runner) seed(ctx context.Context, t *testing.T) {
	t.Helper()
	if _, err := r.vault.Deposit(ctx, r.scenario.Deposit, SimDepositor); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	for _, lst := range []common.Address{SimLST1, SimLST2, SimLST3} {
		if err := r.vault.CreditLedger(SimOwner, lst, r.scenario.LSTSeed); err != nil {
			t.Fatalf("credit %s: %v", lst.Hex(), err)
		}
		if err := r.vault.SupplyToLedger(ctx, SimOwner, lst); err != nil {
			t.Fatalf("supply %s: %v", lst.Hex(), err)
		}
	}
}

func TestRunnerFullSimulation(t *testing.T) {
	ctx := context.Background()
	sink := &captureSink{}

	scenario := DefaultScenario()
	runner, err := NewRunner(scenario, sink, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Swaps != scenario.Swaps {
		t.Fatalf("swaps = %d, want %d", summary.Swaps, scenario.Swaps)
	}
	if summary.Injected == 0 {
		t.Fatalf("no cycles injected over %d swaps", summary.Swaps)
	}
	if sink.len() != summary.Injected {
		t.Fatalf("sink got %d records, want %d", sink.len(), summary.Injected)
	}
	if summary.TotalAssets.Cmp(summary.ShareSupply) < 0 {
		t.Fatalf("NAV %s fell below share supply %s", summary.TotalAssets, summary.ShareSupply)
	}
	for _, record := range sink.records {
		if record.Liquidity == "0" {
			t.Fatalf("settled cycle recorded zero liquidity")
		}
		if record.TickUpper-record.TickLower != scenario.TickSpacing {
			t.Fatalf("band [%d, %d] is not one spacing wide", record.TickLower, record.TickUpper)
		}
	}
}

func TestPreSwapZeroPoolLiquidity(t *testing.T) {
	ctx := context.Background()

	scenario := DefaultScenario()
	scenario.AmbientLiq = big.NewInt(0)
	runner, err := NewRunner(scenario, nil, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	runner.seed(ctx, t)

	// With no ambient liquidity the pool releases nothing for this swap,
	// so the output cap collapses and the position sizes to zero. The swap
	// proceeds unassisted.
	params := pool.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-1_000_000),
	}
	cycle, result, err := runner.controller.PreSwap(ctx, runner.desc, params)
	if err != nil {
		t.Fatalf("pre-swap: %v", err)
	}
	if cycle != nil {
		t.Fatalf("expected no-op cycle, got liquidity %s", cycle.Liquidity)
	}
	if result.Sentinel != pool.NoOpSentinel {
		t.Fatalf("sentinel = %q, want %q", result.Sentinel, pool.NoOpSentinel)
	}
}

func TestPreSwapUnsupportedPair(t *testing.T) {
	ctx := context.Background()
	runner, err := NewRunner(DefaultScenario(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	runner.seed(ctx, t)

	desc := runner.desc
	desc.Currency1 = common.HexToAddress("0xdead")
	cycle, _, err := runner.controller.PreSwap(ctx, desc, pool.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-1_000_000),
	})
	if err != nil {
		t.Fatalf("pre-swap: %v", err)
	}
	if cycle != nil {
		t.Fatalf("expected no-op for unsupported pair")
	}
}

func TestPreSwapNonCanonicalPair(t *testing.T) {
	ctx := context.Background()
	runner, err := NewRunner(DefaultScenario(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	runner.seed(ctx, t)

	// Both currencies are supported but mis-ordered; the controller must
	// degrade to a no-op instead of sizing against a malformed descriptor.
	desc := runner.desc
	desc.Currency0, desc.Currency1 = desc.Currency1, desc.Currency0
	cycle, result, err := runner.controller.PreSwap(ctx, desc, pool.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-1_000_000),
	})
	if err != nil {
		t.Fatalf("pre-swap: %v", err)
	}
	if cycle != nil {
		t.Fatalf("expected no-op for mis-ordered pair")
	}
	if result.Sentinel != pool.NoOpSentinel {
		t.Fatalf("sentinel = %q, want %q", result.Sentinel, pool.NoOpSentinel)
	}
}

func TestCycleLifecycle(t *testing.T) {
	ctx := context.Background()
	sink := &captureSink{}
	runner, err := NewRunner(DefaultScenario(), sink, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	runner.seed(ctx, t)

	// Token1 in: the band below the price is funded from the LST side,
	// beyond reserves via the borrow leg.
	params := pool.SwapParams{
		ZeroForOne:      false,
		AmountSpecified: big.NewInt(-50_000_000),
	}

	cycle, _, err := runner.controller.PreSwap(ctx, runner.desc, params)
	if err != nil {
		t.Fatalf("pre-swap: %v", err)
	}
	if cycle == nil {
		t.Fatalf("expected an injected cycle")
	}
	if cycle.State() != jit.StateInjected {
		t.Fatalf("state = %d, want injected", cycle.State())
	}
	if runner.engine.Settled(SimLST1).Sign() == 0 {
		t.Fatalf("nothing paid into the pool for the position")
	}

	if _, _, err := runner.engine.ExecuteSwap(ctx, runner.desc, params); err != nil {
		t.Fatalf("swap: %v", err)
	}

	if _, err := runner.controller.PostSwap(ctx, runner.desc, cycle); err != nil {
		t.Fatalf("post-swap: %v", err)
	}
	if cycle.State() != jit.StateIdle {
		t.Fatalf("state after settle = %d, want idle", cycle.State())
	}
	if cycle.Liquidity.Sign() != 0 {
		t.Fatalf("liquidity must be cleared after settle, got %s", cycle.Liquidity)
	}
	if runner.engine.Taken(SimLST1).Sign() == 0 {
		t.Fatalf("nothing taken back from the pool")
	}
	if sink.len() != 1 {
		t.Fatalf("sink got %d records, want 1", sink.len())
	}

	// A second PostSwap on the cleared cycle is a harmless no-op.
	if _, err := runner.controller.PostSwap(ctx, runner.desc, cycle); err != nil {
		t.Fatalf("repeat post-swap: %v", err)
	}
	if sink.len() != 1 {
		t.Fatalf("repeat post-swap wrote a record")
	}
}

func TestFakePoolSwapMovesPrice(t *testing.T) {
	ctx := context.Background()
	runner, err := NewRunner(DefaultScenario(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	before, _, err := runner.engine.Slot0(ctx, runner.desc)
	if err != nil {
		t.Fatalf("slot0: %v", err)
	}
	if _, _, err := runner.engine.ExecuteSwap(ctx, runner.desc, pool.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-10_000_000),
	}); err != nil {
		t.Fatalf("swap: %v", err)
	}
	after, _, err := runner.engine.Slot0(ctx, runner.desc)
	if err != nil {
		t.Fatalf("slot0: %v", err)
	}
	if after.Cmp(before) >= 0 {
		t.Fatalf("selling token0 must move the price down: %s -> %s", before, after)
	}
}
