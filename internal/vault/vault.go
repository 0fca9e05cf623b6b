package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"jitvault/internal/asset"
	"jitvault/internal/ledger"
	"jitvault/internal/lending"
	"jitvault/internal/oracle"
)

// ErrZeroAssets is returned when a redemption rounds to nothing.
var ErrZeroAssets = errors.New("zero assets")

// ErrZeroAmount is returned for zero-amount deposits and withdrawals.
var ErrZeroAmount = errors.New("zero amount")

// ErrInsufficientShares is returned when an owner redeems more shares than
// they hold.
var ErrInsufficientShares = errors.New("insufficient shares")

// Vault pools deposits of the base asset, keeps everything supplied to the
// lending pool through the asset ledger, and issues fungible shares priced
// against NAV. Redemptions are split proportionally across every supported
// asset by its fraction of NAV.
type Vault struct {
	owner    common.Address
	self     common.Address
	registry *asset.Registry
	ledger   *ledger.Ledger
	norm     *oracle.Normalizer
	pool     lending.Pool
	logger   *zap.Logger

	shareSupply *big.Int
	shares      map[common.Address]*big.Int
}

// New builds the vault. self is the vault's own principal and must be the
// ledger's authority; owner gates the ledger passthrough operations.
func New(owner, self common.Address, registry *asset.Registry, lgr *ledger.Ledger, norm *oracle.Normalizer, pool lending.Pool, logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{
		owner:       owner,
		self:        self,
		registry:    registry,
		ledger:      lgr,
		norm:        norm,
		pool:        pool,
		logger:      logger,
		shareSupply: big.NewInt(0),
		shares:      make(map[common.Address]*big.Int),
	}
}

// TotalAssets returns the vault NAV in base-asset units.
func (v *Vault) TotalAssets(ctx context.Context) (*big.Int, error) {
	return v.ledger.TotalValue(ctx)
}

// TotalSupply returns the outstanding share supply.
func (v *Vault) TotalSupply() *big.Int {
	return new(big.Int).Set(v.shareSupply)
}

// BalanceOf returns the share balance of an account.
func (v *Vault) BalanceOf(account common.Address) *big.Int {
	if bal, ok := v.shares[account]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Reserves returns the ledger's supplied balance for an asset.
func (v *Vault) Reserves(addr common.Address) (*big.Int, error) {
	return v.ledger.Reserves(addr)
}

// Deposit accepts amount of the base asset, mints shares against current
// NAV (1:1 on the first deposit), and pushes the entire on-hand base
// balance into the ledger. No idle float is retained.
func (v *Vault) Deposit(ctx context.Context, amount *big.Int, recipient common.Address) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	nav, err := v.ledger.TotalValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("value vault: %w", err)
	}

	minted := new(big.Int).Set(amount)
	if v.shareSupply.Sign() > 0 && nav.Sign() > 0 {
		minted.Mul(minted, v.shareSupply)
		minted.Div(minted, nav)
	}
	if minted.Sign() == 0 {
		return nil, ErrZeroAssets
	}

	base := v.registry.Base()
	if err := v.ledger.Credit(v.self, base, amount); err != nil {
		return nil, err
	}
	v.mint(recipient, minted)

	if err := v.ledger.Supply(ctx, v.self, base); err != nil {
		return nil, fmt.Errorf("supply deposit: %w", err)
	}

	v.logger.Info("vault deposit",
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
		zap.String("shares", minted.String()),
		zap.String("share_supply", v.shareSupply.String()),
	)
	return minted, nil
}

// Withdraw redeems enough shares from owner to pay out value base-asset
// units to the receiver. Shares are computed with ceiling division so the
// vault never under-burns.
func (v *Vault) Withdraw(ctx context.Context, value *big.Int, receiver, owner common.Address) (*big.Int, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	nav, err := v.ledger.TotalValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("value vault: %w", err)
	}
	if nav.Sign() == 0 {
		return nil, ErrZeroAssets
	}

	// shares = ceil(value * supply / NAV)
	burned := new(big.Int).Mul(value, v.shareSupply)
	burned.Add(burned, new(big.Int).Sub(nav, big.NewInt(1)))
	burned.Div(burned, nav)

	if err := v.burn(owner, burned); err != nil {
		return nil, err
	}
	if err := v.payOut(ctx, value, receiver); err != nil {
		return nil, err
	}

	v.logger.Info("vault withdraw",
		zap.String("owner", owner.Hex()),
		zap.String("receiver", receiver.Hex()),
		zap.String("value", value.String()),
		zap.String("shares", burned.String()),
	)
	return burned, nil
}

// Redeem burns shares from owner and pays the proportional slice of every
// supported asset out to the receiver. Fails with ErrZeroAssets when the
// computed value rounds to zero. Shares are burned before any external
// transfer.
func (v *Vault) Redeem(ctx context.Context, shares *big.Int, receiver, owner common.Address) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrZeroAssets
	}
	if v.shareSupply.Sign() == 0 {
		return nil, ErrZeroAssets
	}

	nav, err := v.ledger.TotalValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("value vault: %w", err)
	}

	value := new(big.Int).Mul(shares, nav)
	value.Div(value, v.shareSupply)
	if value.Sign() <= 0 {
		return nil, ErrZeroAssets
	}

	if err := v.burn(owner, shares); err != nil {
		return nil, err
	}
	if err := v.payOut(ctx, value, receiver); err != nil {
		return nil, err
	}

	v.logger.Info("vault redeem",
		zap.String("owner", owner.Hex()),
		zap.String("receiver", receiver.Hex()),
		zap.String("shares", shares.String()),
		zap.String("value", value.String()),
	)
	return value, nil
}

// payOut distributes value (base units) across every supported asset by
// its fraction of the gross reserve value, converting each slice back to
// native units and withdrawing it from the ledger to the receiver. The
// split divides by gross holdings, not NAV: NAV is net of debt, and
// dividing by it would pay out value*(gross/NAV) > value whenever debt is
// outstanding. Slices that round to zero are skipped for that asset only.
func (v *Vault) payOut(ctx context.Context, value *big.Int, receiver common.Address) error {
	assets := v.registry.All()
	reserves := make([]*big.Int, len(assets))
	held := make([]*big.Int, len(assets))
	gross := big.NewInt(0)

	for i, addr := range assets {
		r, err := v.ledger.Reserves(addr)
		if err != nil {
			return err
		}
		reserves[i] = r
		held[i] = big.NewInt(0)
		if r.Sign() == 0 {
			continue
		}
		h, err := v.norm.ToCommonUnit(ctx, addr, r)
		if err != nil {
			return fmt.Errorf("value reserves: %w", err)
		}
		held[i] = h
		gross.Add(gross, h)
	}
	if gross.Sign() == 0 {
		return ErrZeroAssets
	}

	for i, addr := range assets {
		if held[i].Sign() == 0 {
			continue
		}

		slice := new(big.Int).Mul(value, held[i])
		slice.Div(slice, gross)
		if slice.Sign() == 0 {
			continue
		}

		native, err := v.norm.FromCommonUnit(ctx, addr, slice)
		if err != nil {
			return fmt.Errorf("denormalize slice: %w", err)
		}
		if native.Sign() == 0 {
			continue
		}
		if native.Cmp(reserves[i]) > 0 {
			native.Set(reserves[i])
		}

		if _, err := v.ledger.Withdraw(ctx, v.self, addr, native, receiver); err != nil {
			return fmt.Errorf("withdraw slice: %w", err)
		}
	}
	return nil
}

// SupplyToLedger pushes an asset's on-hand balance into the lending pool.
// Owner only.
func (v *Vault) SupplyToLedger(ctx context.Context, caller, addr common.Address) error {
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	return v.ledger.Supply(ctx, v.self, addr)
}

// CreditLedger records funds delivered to the vault for an asset. Owner
// only.
func (v *Vault) CreditLedger(caller, addr common.Address, amount *big.Int) error {
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	return v.ledger.Credit(v.self, addr, amount)
}

// BorrowFromLedger draws debt from the lending pool. Owner only.
func (v *Vault) BorrowFromLedger(ctx context.Context, caller, addr common.Address, amount *big.Int) error {
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	return v.ledger.Borrow(ctx, v.self, addr, amount)
}

// RepayToLedger pays down debt, clamped to the outstanding balance. Owner
// only.
func (v *Vault) RepayToLedger(ctx context.Context, caller, addr common.Address, amount *big.Int) error {
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	return v.ledger.Repay(ctx, v.self, addr, amount)
}

// WithdrawFromLedger pulls funds out of the lending pool to the receiver.
// Owner only.
func (v *Vault) WithdrawFromLedger(ctx context.Context, caller, addr common.Address, amount *big.Int, to common.Address) (*big.Int, error) {
	if err := v.requireOwner(caller); err != nil {
		return nil, err
	}
	return v.ledger.Withdraw(ctx, v.self, addr, amount, to)
}

// HealthFactor reports the lending pool's risk metric for the vault
// account. Informational only.
func (v *Vault) HealthFactor(ctx context.Context) (*big.Int, error) {
	data, err := v.pool.GetUserAccountData(ctx, v.self)
	if err != nil {
		return nil, err
	}
	return data.HealthFactor, nil
}

func (v *Vault) requireOwner(caller common.Address) error {
	if caller != v.owner {
		return fmt.Errorf("%w: %s", ledger.ErrUnauthorized, caller.Hex())
	}
	return nil
}

func (v *Vault) mint(account common.Address, amount *big.Int) {
	bal, ok := v.shares[account]
	if !ok {
		bal = big.NewInt(0)
		v.shares[account] = bal
	}
	bal.Add(bal, amount)
	v.shareSupply.Add(v.shareSupply, amount)
}

func (v *Vault) burn(account common.Address, amount *big.Int) error {
	bal, ok := v.shares[account]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientShares, account.Hex())
	}
	bal.Sub(bal, amount)
	v.shareSupply.Sub(v.shareSupply, amount)
	return nil
}
