package sim

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/lending"
)

// FakeLendingPool is a deterministic in-memory lending pool for tests and
// simulation. Supplied and borrowed balances are tracked per account; the
// pool acts on behalf of whichever account the caller names, and withdraw
// debits the account that supplied while delivering to the receiver, as
// the real pool does.
type FakeLendingPool struct {
	mu       sync.Mutex
	client   common.Address
	supplied map[common.Address]map[common.Address]*big.Int
	borrowed map[common.Address]map[common.Address]*big.Int
	paidOut  map[common.Address]map[common.Address]*big.Int
}

// NewFakeLendingPool builds the fake. client is the account whose position
// withdrawals debit.
func NewFakeLendingPool(client common.Address) *FakeLendingPool {
	return &FakeLendingPool{
		client:   client,
		supplied: make(map[common.Address]map[common.Address]*big.Int),
		borrowed: make(map[common.Address]map[common.Address]*big.Int),
		paidOut:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func balanceIn(store map[common.Address]map[common.Address]*big.Int, account, asset common.Address) *big.Int {
	byAsset, ok := store[account]
	if !ok {
		byAsset = make(map[common.Address]*big.Int)
		store[account] = byAsset
	}
	bal, ok := byAsset[asset]
	if !ok {
		bal = big.NewInt(0)
		byAsset[asset] = bal
	}
	return bal
}

// Supply implements lending.Pool.
func (p *FakeLendingPool) Supply(_ context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("supply amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	balanceIn(p.supplied, onBehalfOf, asset).Add(balanceIn(p.supplied, onBehalfOf, asset), amount)
	return nil
}

// Withdraw implements lending.Pool. It debits the client's position and
// fails when less is held than requested, as the real pool does.
func (p *FakeLendingPool) Withdraw(_ context.Context, asset common.Address, amount *big.Int, to common.Address) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("withdraw amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bal := balanceIn(p.supplied, p.client, asset)
	if bal.Cmp(amount) < 0 {
		return nil, fmt.Errorf("insufficient supplied balance: have %s, want %s", bal, amount)
	}
	bal.Sub(bal, amount)
	balanceIn(p.paidOut, to, asset).Add(balanceIn(p.paidOut, to, asset), amount)
	return new(big.Int).Set(amount), nil
}

// Borrow implements lending.Pool.
func (p *FakeLendingPool) Borrow(_ context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("borrow amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	balanceIn(p.borrowed, onBehalfOf, asset).Add(balanceIn(p.borrowed, onBehalfOf, asset), amount)
	return nil
}

// Repay implements lending.Pool, clamping to outstanding debt.
func (p *FakeLendingPool) Repay(_ context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("repay amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	debt := balanceIn(p.borrowed, onBehalfOf, asset)
	repaid := new(big.Int).Set(amount)
	if repaid.Cmp(debt) > 0 {
		repaid.Set(debt)
	}
	debt.Sub(debt, repaid)
	return repaid, nil
}

// GetReserveData implements lending.Pool with a synthetic yield token.
func (p *FakeLendingPool) GetReserveData(_ context.Context, asset common.Address) (lending.ReserveData, error) {
	yield := common.BytesToAddress(append([]byte{0xaa}, asset.Bytes()[1:]...))
	return lending.ReserveData{
		YieldToken:     yield,
		LiquidityIndex: big.NewInt(1e18),
	}, nil
}

// GetUserAccountData implements lending.Pool. The health factor is the
// raw collateral/debt ratio scaled by 1e18; with no debt it saturates.
func (p *FakeLendingPool) GetUserAccountData(_ context.Context, account common.Address) (lending.AccountData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	collateral := big.NewInt(0)
	for _, bal := range p.supplied[account] {
		collateral.Add(collateral, bal)
	}
	debt := big.NewInt(0)
	for _, bal := range p.borrowed[account] {
		debt.Add(debt, bal)
	}

	hf := new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)
	if debt.Sign() > 0 {
		hf = new(big.Int).Mul(collateral, big.NewInt(1e18))
		hf.Div(hf, debt)
	}
	return lending.AccountData{
		TotalCollateral: collateral,
		TotalDebt:       debt,
		HealthFactor:    hf,
	}, nil
}

// SuppliedBalance reports an account's supplied balance for one asset.
func (p *FakeLendingPool) SuppliedBalance(account, asset common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(balanceIn(p.supplied, account, asset))
}

// PaidOut reports the total delivered to a receiver for one asset.
func (p *FakeLendingPool) PaidOut(to, asset common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(balanceIn(p.paidOut, to, asset))
}
