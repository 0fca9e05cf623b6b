package sim

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"jitvault/internal/asset"
	"jitvault/internal/jit"
	"jitvault/internal/ledger"
	"jitvault/internal/model"
	"jitvault/internal/oracle"
	"jitvault/internal/pool"
	"jitvault/internal/poolmath"
	"jitvault/internal/storage"
	"jitvault/internal/vault"
)

// Well-known principals and assets of the simulated world.
var (
	SimOwner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	SimVault     = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	SimDepositor = common.HexToAddress("0x00000000000000000000000000000000000000a3")

	SimBase     = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	SimLST1     = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	SimLST2     = common.HexToAddress("0x0000000000000000000000000000000000000b03")
	SimLST3     = common.HexToAddress("0x0000000000000000000000000000000000000b04")
	simStaked1  = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	simStaked2  = common.HexToAddress("0x0000000000000000000000000000000000000c03")
	simStaked3  = common.HexToAddress("0x0000000000000000000000000000000000000c04")
)

// Scenario parameterizes one simulation run.
type Scenario struct {
	Swaps         int
	LeverageBps   uint64
	Fee           uint32
	TickSpacing   int32
	Deposit       *big.Int
	LSTSeed       *big.Int
	SwapAmountMax int64
	AmbientLiq    *big.Int
	Seed          int64
}

// DefaultScenario returns a scenario with sensible magnitudes.
func DefaultScenario() Scenario {
	return Scenario{
		Swaps:         20,
		LeverageBps:   20_000,
		Fee:           3000,
		TickSpacing:   60,
		Deposit:       big.NewInt(10_000_000_000),
		LSTSeed:       big.NewInt(2_000_000_000),
		SwapAmountMax: 50_000_000,
		AmbientLiq:    big.NewInt(500_000_000_000),
		Seed:          1,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	Swaps       int
	Injected    int
	ShareSupply *big.Int
	TotalAssets *big.Int
}

// Runner wires the vault, ledger, oracles, fake pool, and controller into
// a deterministic world and drives full swap cycles through it.
type Runner struct {
	scenario   Scenario
	registry   *asset.Registry
	feed       *oracle.StaticFeed
	norm       *oracle.Normalizer
	lendingSim *FakeLendingPool
	ledger     *ledger.Ledger
	vault      *vault.Vault
	engine     *FakePool
	controller *jit.Controller
	desc       pool.Descriptor
	snapshots  storage.SnapshotSink
	logger     *zap.Logger
}

// NewRunner constructs the simulated world. Sinks may be nil.
func NewRunner(scenario Scenario, cycles storage.CycleSink, snapshots storage.SnapshotSink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := asset.NewRegistry(
		asset.Entry{Address: SimBase, Symbol: "BASE", Decimals: 18, Kind: asset.KindBase},
		[3]asset.Entry{
			{Address: SimLST1, Symbol: "LST1", Decimals: 18, Kind: asset.KindWrapped, Underlying: simStaked1},
			{Address: SimLST2, Symbol: "LST2", Decimals: 18, Kind: asset.KindWrapped, Underlying: simStaked2},
			{Address: SimLST3, Symbol: "LST3", Decimals: 18, Kind: asset.KindWrapped, Underlying: simStaked3},
		},
	)
	if err != nil {
		return nil, err
	}

	feed := oracle.NewStaticFeed()
	// Staked underlyings trade at par with the base asset; wrappers carry
	// their accrued exchange rates.
	now := uint64(time.Now().Unix())
	feed.SetAnswer(simStaked1, big.NewInt(100_000_000), 8, now)
	feed.SetAnswer(simStaked2, big.NewInt(100_000_000), 8, now)
	feed.SetAnswer(simStaked3, big.NewInt(100_000_000), 8, now)
	feed.SetRate(SimLST1, big.NewInt(1_050_000_000_000_000_000))
	feed.SetRate(SimLST2, big.NewInt(1_020_000_000_000_000_000))
	feed.SetRate(SimLST3, big.NewInt(1_110_000_000_000_000_000))

	norm := oracle.NewNormalizer(registry, feed, feed)
	lendingSim := NewFakeLendingPool(SimVault)
	lgr := ledger.New(SimVault, SimVault, registry, lendingSim, norm, logger)
	v := vault.New(SimOwner, SimVault, registry, lgr, norm, lendingSim, logger)

	desc := pool.Descriptor{
		Currency0:   SimBase,
		Currency1:   SimLST1,
		Fee:         scenario.Fee,
		TickSpacing: scenario.TickSpacing,
		Hook:        SimOwner,
	}
	if !desc.Canonical() {
		return nil, fmt.Errorf("simulated pool pair is not canonically ordered")
	}

	engine := NewFakePool(desc, new(big.Int).Set(poolmath.Q96), 0, scenario.AmbientLiq)
	controller := jit.NewController(
		jit.Config{LeverageBps: scenario.LeverageBps},
		registry, engine, v, SimOwner, cycles, logger,
	)

	return &Runner{
		scenario:   scenario,
		registry:   registry,
		feed:       feed,
		norm:       norm,
		lendingSim: lendingSim,
		ledger:     lgr,
		vault:      v,
		engine:     engine,
		controller: controller,
		desc:       desc,
		snapshots:  snapshots,
		logger:     logger,
	}, nil
}

// Vault exposes the simulated vault for assertions.
func (r *Runner) Vault() *vault.Vault { return r.vault }

// Run seeds the vault, drives the swap loop, and snapshots after each
// cycle.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if _, err := r.vault.Deposit(ctx, r.scenario.Deposit, SimDepositor); err != nil {
		return Summary{}, fmt.Errorf("seed deposit: %w", err)
	}

	// Seed the wrapped-asset reserves the JIT band draws from.
	for _, lst := range []common.Address{SimLST1, SimLST2, SimLST3} {
		if err := r.vault.CreditLedger(SimOwner, lst, r.scenario.LSTSeed); err != nil {
			return Summary{}, err
		}
		if err := r.vault.SupplyToLedger(ctx, SimOwner, lst); err != nil {
			return Summary{}, err
		}
	}

	// Exercise the debt path once: borrow a sliver of base and repay it.
	borrow := big.NewInt(1_000_000)
	if err := r.vault.BorrowFromLedger(ctx, SimOwner, SimBase, borrow); err != nil {
		return Summary{}, err
	}
	if err := r.vault.RepayToLedger(ctx, SimOwner, SimBase, borrow); err != nil {
		return Summary{}, err
	}

	rng := rand.New(rand.NewSource(r.scenario.Seed))
	injected := 0

	for i := 0; i < r.scenario.Swaps; i++ {
		select {
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		default:
		}

		params := pool.SwapParams{
			ZeroForOne:      rng.Intn(2) == 0,
			AmountSpecified: big.NewInt(-(rng.Int63n(r.scenario.SwapAmountMax) + 1)),
		}

		cycle, _, err := r.controller.PreSwap(ctx, r.desc, params)
		if err != nil {
			return Summary{}, fmt.Errorf("pre-swap %d: %w", i, err)
		}
		if cycle != nil {
			injected++
		}

		if _, _, err := r.engine.ExecuteSwap(ctx, r.desc, params); err != nil {
			return Summary{}, fmt.Errorf("swap %d: %w", i, err)
		}

		if _, err := r.controller.PostSwap(ctx, r.desc, cycle); err != nil {
			return Summary{}, fmt.Errorf("post-swap %d: %w", i, err)
		}

		if err := r.snapshot(ctx); err != nil {
			return Summary{}, err
		}
	}

	hf, err := r.vault.HealthFactor(ctx)
	if err != nil {
		return Summary{}, err
	}

	supply := r.vault.TotalSupply()
	nav, err := r.vault.TotalAssets(ctx)
	if err != nil {
		return Summary{}, err
	}

	r.logger.Info("simulation complete",
		zap.Int("swaps", r.scenario.Swaps),
		zap.Int("injected", injected),
		zap.String("share_supply", supply.String()),
		zap.String("total_assets", nav.String()),
		zap.String("health_factor", hf.String()),
	)

	return Summary{
		Swaps:       r.scenario.Swaps,
		Injected:    injected,
		ShareSupply: supply,
		TotalAssets: nav,
	}, nil
}

func (r *Runner) snapshot(ctx context.Context) error {
	if r.snapshots == nil {
		return nil
	}

	nav, err := r.vault.TotalAssets(ctx)
	if err != nil {
		return err
	}

	snap := model.VaultSnapshot{
		TakenAt:     time.Now().UTC(),
		ShareSupply: r.vault.TotalSupply().String(),
		TotalAssets: nav.String(),
	}
	for _, addr := range r.registry.All() {
		entry, err := r.ledger.Entry(addr)
		if err != nil {
			return err
		}
		snap.Balances = append(snap.Balances, model.AssetBalance{
			Asset:    addr.Hex(),
			Supplied: entry.Supplied.String(),
			Borrowed: entry.Borrowed.String(),
		})
	}
	return r.snapshots.PutSnapshot(snap)
}
