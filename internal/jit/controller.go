package jit

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"jitvault/internal/asset"
	"jitvault/internal/model"
	"jitvault/internal/pool"
	"jitvault/internal/poolmath"
	"jitvault/internal/storage"
	"jitvault/internal/vault"
)

// CycleState tracks a cycle through one swap transaction.
type CycleState uint8

const (
	// StateIdle means no position is active.
	StateIdle CycleState = iota
	// StateSized means caps and band were computed but nothing minted yet.
	StateSized
	// StateInjected means the JIT position is live in the pool.
	StateInjected
	// StateSettled means the position was burned and proceeds routed back.
	StateSettled
)

// Cycle is the ephemeral per-swap state handed from PreSwap to PostSwap.
// It never outlives the transaction and is never shared across swaps. A
// nil cycle or zero liquidity is the no-op marker.
type Cycle struct {
	TickLower int32
	TickUpper int32
	Liquidity *big.Int

	state     CycleState
	supplied0 *big.Int
	supplied1 *big.Int
	borrowed0 *big.Int
	borrowed1 *big.Int
	returned0 *big.Int
	returned1 *big.Int
}

// State returns the cycle's current state.
func (c *Cycle) State() CycleState {
	if c == nil {
		return StateIdle
	}
	return c.state
}

// Config holds the controller's fixed parameters.
type Config struct {
	// LeverageBps scales vault reserves into liquidity caps; 20000 is 2x.
	LeverageBps uint64
}

// Controller runs the two-phase JIT cycle around each swap: size and
// inject liquidity before the swap, withdraw and settle it after. It is
// registered with the pool engine for exactly the pre- and post-swap
// callbacks.
type Controller struct {
	cfg       Config
	registry  *asset.Registry
	engine    pool.Engine
	vault     *vault.Vault
	principal common.Address
	sink      storage.CycleSink
	logger    *zap.Logger
}

// NewController builds the controller. principal must be the vault owner
// so ledger funding calls are authorized. sink may be nil.
func NewController(cfg Config, registry *asset.Registry, engine pool.Engine, v *vault.Vault, principal common.Address, sink storage.CycleSink, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:       cfg,
		registry:  registry,
		engine:    engine,
		vault:     v,
		principal: principal,
		sink:      sink,
		logger:    logger,
	}
}

// Permissions returns the hook registration: pre- and post-swap only.
func (c *Controller) Permissions() pool.HookPermissions {
	return pool.JITPermissions()
}

// PreSwap sizes and injects the JIT position for one swap. A nil cycle
// with the no-op sentinel means the swap proceeds on ambient liquidity:
// unsupported pairs, mis-ordered descriptors, zero caps, and bands that
// round to zero liquidity all degrade this way. Sizing failures also degrade; only pool or ledger
// mutation failures surface as errors.
func (c *Controller) PreSwap(ctx context.Context, desc pool.Descriptor, params pool.SwapParams) (*Cycle, pool.HookResult, error) {
	result := pool.NoOpResult()

	if !c.registry.Supported(desc.Currency0) || !c.registry.Supported(desc.Currency1) {
		c.logger.Debug("skip swap: unsupported pair",
			zap.String("currency0", desc.Currency0.Hex()),
			zap.String("currency1", desc.Currency1.Hex()),
		)
		return nil, result, nil
	}
	if !desc.Canonical() {
		c.logger.Debug("skip swap: non-canonical pool descriptor",
			zap.String("currency0", desc.Currency0.Hex()),
			zap.String("currency1", desc.Currency1.Hex()),
		)
		return nil, result, nil
	}

	sqrtP, tick, err := c.engine.Slot0(ctx, desc)
	if err != nil {
		return nil, result, fmt.Errorf("read slot0: %w", err)
	}
	poolLiquidity, err := c.engine.Liquidity(ctx, desc)
	if err != nil {
		return nil, result, fmt.Errorf("read liquidity: %w", err)
	}

	tickLower, tickUpper := Band(tick, desc.TickSpacing)
	if tickLower < poolmath.MinTick || tickUpper > poolmath.MaxTick {
		c.logger.Debug("skip swap: band out of tick range", zap.Int32("tick", tick))
		return nil, result, nil
	}

	reserves0, err := c.vault.Reserves(desc.Currency0)
	if err != nil {
		return nil, result, err
	}
	reserves1, err := c.vault.Reserves(desc.Currency1)
	if err != nil {
		return nil, result, err
	}

	cap0, cap1, err := ComputeCaps(CapInputs{
		Desc:          desc,
		Params:        params,
		SqrtPriceX96:  sqrtP,
		PoolLiquidity: poolLiquidity,
		Reserves0:     reserves0,
		Reserves1:     reserves1,
	}, c.cfg.LeverageBps)
	if err != nil {
		// Sizing failure is not allowed to block the underlying swap.
		c.logger.Warn("cap sizing failed, swap proceeds unassisted", zap.Error(err))
		return nil, result, nil
	}
	if cap0.Sign() == 0 && cap1.Sign() == 0 {
		return nil, result, nil
	}

	liquidity, err := c.liquidityForBand(sqrtP, tickLower, tickUpper, cap0, cap1)
	if err != nil {
		c.logger.Warn("liquidity sizing failed, swap proceeds unassisted", zap.Error(err))
		return nil, result, nil
	}
	if liquidity.Sign() == 0 {
		// Tight bands can starve small swaps; silently skip.
		return nil, result, nil
	}

	cycle := &Cycle{
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: liquidity,
		state:     StateSized,
		supplied0: big.NewInt(0),
		supplied1: big.NewInt(0),
		borrowed0: big.NewInt(0),
		borrowed1: big.NewInt(0),
		returned0: big.NewInt(0),
		returned1: big.NewInt(0),
	}

	owed0, owed1, err := c.engine.ModifyLiquidity(ctx, desc, tickLower, tickUpper, liquidity)
	if err != nil {
		return nil, result, fmt.Errorf("mint liquidity: %w", err)
	}

	if err := c.fund(ctx, desc, desc.Currency0, owed0, cycle.supplied0, cycle.borrowed0); err != nil {
		return nil, result, err
	}
	if err := c.fund(ctx, desc, desc.Currency1, owed1, cycle.supplied1, cycle.borrowed1); err != nil {
		return nil, result, err
	}
	cycle.state = StateInjected

	c.logger.Debug("jit position injected",
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("liquidity", liquidity.String()),
		zap.String("supplied0", cycle.supplied0.String()),
		zap.String("supplied1", cycle.supplied1.String()),
	)
	return cycle, result, nil
}

// PostSwap removes the recorded position and routes the proceeds back into
// the vault's ledger. A nil or empty cycle is a no-op.
func (c *Controller) PostSwap(ctx context.Context, desc pool.Descriptor, cycle *Cycle) (pool.HookResult, error) {
	result := pool.NoOpResult()
	if cycle == nil || cycle.Liquidity == nil || cycle.Liquidity.Sign() == 0 {
		return result, nil
	}

	burn := new(big.Int).Neg(cycle.Liquidity)
	returned0, returned1, err := c.engine.ModifyLiquidity(ctx, desc, cycle.TickLower, cycle.TickUpper, burn)
	if err != nil {
		return result, fmt.Errorf("burn liquidity: %w", err)
	}

	if err := c.settle(ctx, desc, desc.Currency0, returned0, cycle.borrowed0, cycle.returned0); err != nil {
		return result, err
	}
	if err := c.settle(ctx, desc, desc.Currency1, returned1, cycle.borrowed1, cycle.returned1); err != nil {
		return result, err
	}
	cycle.state = StateSettled

	c.logger.Debug("jit position settled",
		zap.String("liquidity", cycle.Liquidity.String()),
		zap.String("returned0", cycle.returned0.String()),
		zap.String("returned1", cycle.returned1.String()),
	)

	if c.sink != nil {
		if err := c.sink.PutCycle(c.record(desc, cycle)); err != nil {
			c.logger.Warn("cycle record write failed", zap.Error(err))
		}
	}

	// Clear the cycle; it must not leak into another transaction.
	cycle.Liquidity = big.NewInt(0)
	cycle.state = StateIdle
	return result, nil
}

func (c *Controller) liquidityForBand(sqrtP *big.Int, tickLower, tickUpper int32, cap0, cap1 *big.Int) (*big.Int, error) {
	sqrtA, err := poolmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtB, err := poolmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}
	return poolmath.LiquidityForAmounts(sqrtP, sqrtA, sqrtB, cap0, cap1)
}

// fund pays what the mint owes into the pool. Reserves cover it first;
// anything the leverage multiplier sized beyond them is borrowed from the
// lending pool for the duration of the cycle.
func (c *Controller) fund(ctx context.Context, desc pool.Descriptor, currency common.Address, owed, supplied, borrowed *big.Int) error {
	if owed == nil || owed.Sign() == 0 {
		return nil
	}

	reserves, err := c.vault.Reserves(currency)
	if err != nil {
		return err
	}

	fromReserves := new(big.Int).Set(owed)
	if fromReserves.Cmp(reserves) > 0 {
		fromReserves.Set(reserves)
		shortfall := new(big.Int).Sub(owed, reserves)
		if err := c.vault.BorrowFromLedger(ctx, c.principal, currency, shortfall); err != nil {
			return fmt.Errorf("borrow %s: %w", currency.Hex(), err)
		}
		borrowed.Add(borrowed, shortfall)
	}
	if fromReserves.Sign() > 0 {
		if _, err := c.vault.WithdrawFromLedger(ctx, c.principal, currency, fromReserves, c.principal); err != nil {
			return fmt.Errorf("fund %s: %w", currency.Hex(), err)
		}
	}

	if err := c.engine.Settle(ctx, desc, currency, owed); err != nil {
		return fmt.Errorf("settle %s: %w", currency.Hex(), err)
	}
	supplied.Add(supplied, owed)
	return nil
}

// settle takes what the burn returned from the pool, pays down any debt
// this cycle opened, and supplies the remainder back through the ledger.
func (c *Controller) settle(ctx context.Context, desc pool.Descriptor, currency common.Address, returned, borrowed, total *big.Int) error {
	if returned == nil || returned.Sign() == 0 {
		return nil
	}
	if err := c.engine.Take(ctx, desc, currency, returned); err != nil {
		return fmt.Errorf("take %s: %w", currency.Hex(), err)
	}

	rest := new(big.Int).Set(returned)
	if borrowed.Sign() > 0 {
		repay := new(big.Int).Set(borrowed)
		if repay.Cmp(rest) > 0 {
			repay.Set(rest)
		}
		if err := c.vault.RepayToLedger(ctx, c.principal, currency, repay); err != nil {
			return fmt.Errorf("repay %s: %w", currency.Hex(), err)
		}
		rest.Sub(rest, repay)
	}

	if rest.Sign() > 0 {
		if err := c.vault.CreditLedger(c.principal, currency, rest); err != nil {
			return err
		}
		if err := c.vault.SupplyToLedger(ctx, c.principal, currency); err != nil {
			return fmt.Errorf("resupply %s: %w", currency.Hex(), err)
		}
	}
	total.Add(total, returned)
	return nil
}

func (c *Controller) record(desc pool.Descriptor, cycle *Cycle) model.CycleRecord {
	return model.CycleRecord{
		PoolID:    fmt.Sprintf("%s-%s-%d", desc.Currency0.Hex(), desc.Currency1.Hex(), desc.Fee),
		Currency0: desc.Currency0.Hex(),
		Currency1: desc.Currency1.Hex(),
		Fee:       desc.Fee,
		TickLower: cycle.TickLower,
		TickUpper: cycle.TickUpper,
		Liquidity: cycle.Liquidity.String(),
		Supplied0: cycle.supplied0.String(),
		Supplied1: cycle.supplied1.String(),
		Borrowed0: cycle.borrowed0.String(),
		Borrowed1: cycle.borrowed1.String(),
		Returned0: cycle.returned0.String(),
		Returned1: cycle.returned1.String(),
		SettledAt: time.Now().UTC(),
	}
}
