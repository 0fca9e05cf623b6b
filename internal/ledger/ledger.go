package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"jitvault/internal/asset"
	"jitvault/internal/lending"
	"jitvault/internal/oracle"
)

// ErrUnauthorized is returned when a ledger mutation comes from any caller
// other than the current authority.
var ErrUnauthorized = errors.New("unauthorized")

// Entry tracks one supported asset's balances: funds delivered to the
// vault but not yet supplied (OnHand), funds held in the external
// yield-bearing pool (Supplied), and debt owed to it (Borrowed).
type Entry struct {
	Asset    common.Address
	OnHand   *big.Int
	Supplied *big.Int
	Borrowed *big.Int
}

// Ledger is the per-asset bookkeeping around the external lending pool.
// All mutations are gated to a single authority principal set at
// construction. Entries exist for exactly the supported assets and are
// never destroyed.
type Ledger struct {
	authority common.Address
	account   common.Address
	registry  *asset.Registry
	entries   map[common.Address]*Entry
	pool      lending.Pool
	norm      *oracle.Normalizer
	logger    *zap.Logger
}

// New builds the ledger with one entry per supported asset. account is the
// principal the ledger supplies and borrows on behalf of.
func New(authority, account common.Address, registry *asset.Registry, pool lending.Pool, norm *oracle.Normalizer, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries := make(map[common.Address]*Entry, 4)
	for _, addr := range registry.All() {
		entries[addr] = &Entry{
			Asset:    addr,
			OnHand:   big.NewInt(0),
			Supplied: big.NewInt(0),
			Borrowed: big.NewInt(0),
		}
	}
	return &Ledger{
		authority: authority,
		account:   account,
		registry:  registry,
		entries:   entries,
		pool:      pool,
		norm:      norm,
		logger:    logger,
	}
}

// Authority returns the current authority principal.
func (l *Ledger) Authority() common.Address {
	return l.authority
}

// TransferAuthority moves the authority one hop. Only the current
// authority may call it.
func (l *Ledger) TransferAuthority(caller, next common.Address) error {
	if caller != l.authority {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	l.authority = next
	return nil
}

// Credit records funds arriving at the vault as un-supplied on-hand
// balance.
func (l *Ledger) Credit(caller, addr common.Address, amount *big.Int) error {
	entry, err := l.authorized(caller, addr)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	entry.OnHand.Add(entry.OnHand, amount)
	return nil
}

// Supply moves the entry's entire on-hand balance into the lending pool.
// A zero balance is a no-op, never an error.
func (l *Ledger) Supply(ctx context.Context, caller, addr common.Address) error {
	entry, err := l.authorized(caller, addr)
	if err != nil {
		return err
	}
	if entry.OnHand.Sign() == 0 {
		return nil
	}

	amount := new(big.Int).Set(entry.OnHand)
	if err := l.pool.Supply(ctx, addr, amount, l.account); err != nil {
		return fmt.Errorf("lending supply: %w", err)
	}
	entry.OnHand.SetInt64(0)
	entry.Supplied.Add(entry.Supplied, amount)

	l.logger.Debug("ledger supply",
		zap.String("asset", addr.Hex()),
		zap.String("amount", amount.String()),
		zap.String("supplied", entry.Supplied.String()),
	)
	return nil
}

// Borrow draws amount of the asset from the lending pool against the
// ledger's collateral and delivers it to the authority. A zero amount is a
// no-op.
func (l *Ledger) Borrow(ctx context.Context, caller, addr common.Address, amount *big.Int) error {
	entry, err := l.authorized(caller, addr)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	if err := l.pool.Borrow(ctx, addr, amount, l.account); err != nil {
		return fmt.Errorf("lending borrow: %w", err)
	}
	entry.Borrowed.Add(entry.Borrowed, amount)

	l.logger.Debug("ledger borrow",
		zap.String("asset", addr.Hex()),
		zap.String("amount", amount.String()),
		zap.String("borrowed", entry.Borrowed.String()),
	)
	return nil
}

// Repay pays down outstanding debt, clamping to the borrowed balance.
// Overpayment is not an error.
func (l *Ledger) Repay(ctx context.Context, caller, addr common.Address, amount *big.Int) error {
	entry, err := l.authorized(caller, addr)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 || entry.Borrowed.Sign() == 0 {
		return nil
	}

	repay := new(big.Int).Set(amount)
	if repay.Cmp(entry.Borrowed) > 0 {
		repay.Set(entry.Borrowed)
	}

	repaid, err := l.pool.Repay(ctx, addr, repay, l.account)
	if err != nil {
		return fmt.Errorf("lending repay: %w", err)
	}
	entry.Borrowed.Sub(entry.Borrowed, repaid)

	l.logger.Debug("ledger repay",
		zap.String("asset", addr.Hex()),
		zap.String("amount", repaid.String()),
		zap.String("borrowed", entry.Borrowed.String()),
	)
	return nil
}

// Withdraw pulls amount of the asset directly out of the lending pool to
// the receiver.
func (l *Ledger) Withdraw(ctx context.Context, caller, addr common.Address, amount *big.Int, to common.Address) (*big.Int, error) {
	entry, err := l.authorized(caller, addr)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	withdrawn, err := l.pool.Withdraw(ctx, addr, amount, to)
	if err != nil {
		return nil, fmt.Errorf("lending withdraw: %w", err)
	}
	if withdrawn.Cmp(entry.Supplied) > 0 {
		entry.Supplied.SetInt64(0)
	} else {
		entry.Supplied.Sub(entry.Supplied, withdrawn)
	}

	l.logger.Debug("ledger withdraw",
		zap.String("asset", addr.Hex()),
		zap.String("amount", withdrawn.String()),
		zap.String("supplied", entry.Supplied.String()),
	)
	return withdrawn, nil
}

// Reserves returns the currently supplied balance for the asset.
func (l *Ledger) Reserves(addr common.Address) (*big.Int, error) {
	entry, ok := l.entries[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", asset.ErrUnsupportedAsset, addr.Hex())
	}
	return new(big.Int).Set(entry.Supplied), nil
}

// Entry returns a copy of the bookkeeping entry for the asset.
func (l *Ledger) Entry(addr common.Address) (Entry, error) {
	entry, ok := l.entries[addr]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", asset.ErrUnsupportedAsset, addr.Hex())
	}
	return Entry{
		Asset:    entry.Asset,
		OnHand:   new(big.Int).Set(entry.OnHand),
		Supplied: new(big.Int).Set(entry.Supplied),
		Borrowed: new(big.Int).Set(entry.Borrowed),
	}, nil
}

// TotalValue sums all supplied reserves in the common unit, minus
// outstanding debt valued the same way.
func (l *Ledger) TotalValue(ctx context.Context) (*big.Int, error) {
	total := big.NewInt(0)
	for _, addr := range l.registry.All() {
		entry := l.entries[addr]
		supplied, err := l.norm.ToCommonUnit(ctx, addr, entry.Supplied)
		if err != nil {
			return nil, err
		}
		total.Add(total, supplied)
		if entry.Borrowed.Sign() > 0 {
			debt, err := l.norm.ToCommonUnit(ctx, addr, entry.Borrowed)
			if err != nil {
				return nil, err
			}
			total.Sub(total, debt)
		}
	}
	return total, nil
}

func (l *Ledger) authorized(caller, addr common.Address) (*Entry, error) {
	if caller != l.authority {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	entry, ok := l.entries[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", asset.ErrUnsupportedAsset, addr.Hex())
	}
	return entry, nil
}
