package sim

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/pool"
	"jitvault/internal/poolmath"
)

// FakePool is a single-pool concentrated-liquidity engine for tests and
// simulation. Swaps execute in one constant-liquidity step; every position
// whose band contains the current tick is treated as active.
type FakePool struct {
	mu        sync.Mutex
	desc      pool.Descriptor
	sqrtP     *big.Int
	tick      int32
	ambient   *big.Int
	positions map[string]*position

	settled map[common.Address]*big.Int
	taken   map[common.Address]*big.Int
}

type position struct {
	lower     int32
	upper     int32
	liquidity *big.Int
}

// NewFakePool builds the engine at the given starting price and ambient
// liquidity.
func NewFakePool(desc pool.Descriptor, sqrtP *big.Int, tick int32, ambient *big.Int) *FakePool {
	return &FakePool{
		desc:      desc,
		sqrtP:     new(big.Int).Set(sqrtP),
		tick:      tick,
		ambient:   new(big.Int).Set(ambient),
		positions: make(map[string]*position),
		settled:   make(map[common.Address]*big.Int),
		taken:     make(map[common.Address]*big.Int),
	}
}

// Slot0 implements pool.Engine.
func (p *FakePool) Slot0(_ context.Context, desc pool.Descriptor) (*big.Int, int32, error) {
	if err := p.check(desc); err != nil {
		return nil, 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.sqrtP), p.tick, nil
}

// Liquidity implements pool.Engine, returning the currently active
// liquidity.
func (p *FakePool) Liquidity(_ context.Context, desc pool.Descriptor) (*big.Int, error) {
	if err := p.check(desc); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeLiquidity(), nil
}

// ModifyLiquidity implements pool.Engine.
func (p *FakePool) ModifyLiquidity(_ context.Context, desc pool.Descriptor, tickLower, tickUpper int32, liquidityDelta *big.Int) (*big.Int, *big.Int, error) {
	if err := p.check(desc); err != nil {
		return nil, nil, err
	}
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("invalid tick range [%d, %d)", tickLower, tickUpper)
	}
	if liquidityDelta == nil || liquidityDelta.Sign() == 0 {
		return big.NewInt(0), big.NewInt(0), nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sqrtA, err := poolmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtB, err := poolmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	mint := liquidityDelta.Sign() > 0
	absDelta := new(big.Int).Abs(liquidityDelta)

	amount0 := big.NewInt(0)
	amount1 := big.NewInt(0)
	switch {
	case p.sqrtP.Cmp(sqrtA) <= 0:
		amount0, err = poolmath.Amount0Delta(sqrtA, sqrtB, absDelta, mint)
		if err != nil {
			return nil, nil, err
		}
	case p.sqrtP.Cmp(sqrtB) >= 0:
		amount1 = poolmath.Amount1Delta(sqrtA, sqrtB, absDelta, mint)
	default:
		amount0, err = poolmath.Amount0Delta(p.sqrtP, sqrtB, absDelta, mint)
		if err != nil {
			return nil, nil, err
		}
		amount1 = poolmath.Amount1Delta(sqrtA, p.sqrtP, absDelta, mint)
	}

	key := fmt.Sprintf("%d:%d", tickLower, tickUpper)
	pos, ok := p.positions[key]
	if !ok {
		pos = &position{lower: tickLower, upper: tickUpper, liquidity: big.NewInt(0)}
		p.positions[key] = pos
	}
	if mint {
		pos.liquidity.Add(pos.liquidity, absDelta)
	} else {
		if pos.liquidity.Cmp(absDelta) < 0 {
			return nil, nil, fmt.Errorf("burn exceeds position liquidity")
		}
		pos.liquidity.Sub(pos.liquidity, absDelta)
		if pos.liquidity.Sign() == 0 {
			delete(p.positions, key)
		}
	}

	return amount0, amount1, nil
}

// Settle implements pool.Engine, recording funds paid to the pool.
func (p *FakePool) Settle(_ context.Context, desc pool.Descriptor, currency common.Address, amount *big.Int) error {
	if err := p.check(desc); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accumulate(p.settled, currency, amount)
	return nil
}

// Take implements pool.Engine, recording funds collected from the pool.
func (p *FakePool) Take(_ context.Context, desc pool.Descriptor, currency common.Address, amount *big.Int) error {
	if err := p.check(desc); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accumulate(p.taken, currency, amount)
	return nil
}

// ExecuteSwap runs one swap in a single constant-liquidity step over the
// currently active liquidity, moving the pool price. It returns the input
// consumed and output released.
func (p *FakePool) ExecuteSwap(_ context.Context, desc pool.Descriptor, params pool.SwapParams) (*big.Int, *big.Int, error) {
	if err := p.check(desc); err != nil {
		return nil, nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	liquidity := p.activeLiquidity()
	if liquidity.Sign() == 0 || params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return big.NewInt(0), big.NewInt(0), nil
	}

	amountOut, err := poolmath.StepOutput(p.sqrtP, liquidity, params.AmountSpecified, params.ZeroForOne, desc.Fee)
	if err != nil {
		return nil, nil, err
	}

	var amountIn *big.Int
	if params.AmountSpecified.Sign() < 0 {
		amountIn = new(big.Int).Neg(params.AmountSpecified)
		lessFee := new(big.Int).Mul(amountIn, big.NewInt(1_000_000-int64(desc.Fee)))
		lessFee.Div(lessFee, big.NewInt(1_000_000))
		next, err := poolmath.NextSqrtPriceFromInput(p.sqrtP, liquidity, lessFee, params.ZeroForOne)
		if err != nil {
			return nil, nil, err
		}
		p.sqrtP = next
	} else {
		// Exact output: move the price by the amount actually released.
		if params.ZeroForOne {
			shift := new(big.Int).Mul(amountOut, poolmath.Q96)
			shift.Div(shift, liquidity)
			p.sqrtP = new(big.Int).Sub(p.sqrtP, shift)
		} else {
			// Approximate the inverse move for token0 output.
			shift := new(big.Int).Mul(amountOut, p.sqrtP)
			shift.Div(shift, liquidity)
			shift.Mul(shift, p.sqrtP)
			shift.Div(shift, poolmath.Q96)
			p.sqrtP = new(big.Int).Add(p.sqrtP, shift)
		}
		amountIn = big.NewInt(0)
	}

	if p.sqrtP.Cmp(poolmath.MinSqrtRatio) <= 0 {
		p.sqrtP = new(big.Int).Add(poolmath.MinSqrtRatio, big.NewInt(1))
	}
	if p.sqrtP.Cmp(poolmath.MaxSqrtRatio) >= 0 {
		p.sqrtP = new(big.Int).Sub(poolmath.MaxSqrtRatio, big.NewInt(1))
	}
	p.tick = tickFromSqrtRatio(p.sqrtP)

	return amountIn, amountOut, nil
}

// Settled reports the total paid into the pool for a currency.
func (p *FakePool) Settled(currency common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bal, ok := p.settled[currency]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Taken reports the total collected from the pool for a currency.
func (p *FakePool) Taken(currency common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bal, ok := p.taken[currency]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func (p *FakePool) check(desc pool.Descriptor) error {
	if desc != p.desc {
		return fmt.Errorf("unknown pool")
	}
	return nil
}

func (p *FakePool) activeLiquidity() *big.Int {
	active := new(big.Int).Set(p.ambient)
	for _, pos := range p.positions {
		if p.tick >= pos.lower && p.tick < pos.upper {
			active.Add(active, pos.liquidity)
		}
	}
	return active
}

func (p *FakePool) accumulate(store map[common.Address]*big.Int, currency common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	bal, ok := store[currency]
	if !ok {
		bal = big.NewInt(0)
		store[currency] = bal
	}
	bal.Add(bal, amount)
}

// tickFromSqrtRatio approximates the tick for a sqrt price. Float
// precision is plenty for a simulation engine.
func tickFromSqrtRatio(sqrtP *big.Int) int32 {
	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtP),
		new(big.Float).SetInt(poolmath.Q96),
	).Float64()
	tick := math.Floor(math.Log(ratio*ratio) / math.Log(1.0001))
	if tick < float64(poolmath.MinTick) {
		return poolmath.MinTick
	}
	if tick > float64(poolmath.MaxTick) {
		return poolmath.MaxTick
	}
	return int32(tick)
}
