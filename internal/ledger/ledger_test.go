package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/asset"
	"jitvault/internal/ledger"
	"jitvault/internal/oracle"
	"jitvault/internal/sim"
)

var (
	authority = common.HexToAddress("0xaa")
	stranger  = common.HexToAddress("0xbb")
	receiver  = common.HexToAddress("0xcc")
)

func newTestLedger(t *testing.T) (*ledger.Ledger, *sim.FakeLendingPool, *asset.Registry) {
	t.Helper()
	registry, err := asset.NewRegistry(
		asset.Entry{Address: common.HexToAddress("0x01"), Symbol: "BASE", Decimals: 18, Kind: asset.KindBase},
		[3]asset.Entry{
			{Address: common.HexToAddress("0x02"), Symbol: "LST1", Decimals: 18, Kind: asset.KindWrapped, Underlying: common.HexToAddress("0x12")},
			{Address: common.HexToAddress("0x03"), Symbol: "LST2", Decimals: 18, Kind: asset.KindWrapped, Underlying: common.HexToAddress("0x13")},
			{Address: common.HexToAddress("0x04"), Symbol: "LST3", Decimals: 18, Kind: asset.KindWrapped, Underlying: common.HexToAddress("0x14")},
		},
	)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	feed := oracle.NewStaticFeed()
	norm := oracle.NewNormalizer(registry, feed, feed)
	pool := sim.NewFakeLendingPool(authority)
	return ledger.New(authority, authority, registry, pool, norm, nil), pool, registry
}

func TestLedgerSupplyBorrowRepay(t *testing.T) {
	ctx := context.Background()
	lgr, _, registry := newTestLedger(t)
	base := registry.Base()

	if err := lgr.Credit(authority, base, big.NewInt(8)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := lgr.Supply(ctx, authority, base); err != nil {
		t.Fatalf("supply: %v", err)
	}

	reserves, err := lgr.Reserves(base)
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	if reserves.Cmp(big.NewInt(8)) != 0 {
		t.Fatalf("reserves = %s, want 8", reserves)
	}

	if err := lgr.Borrow(ctx, authority, base, big.NewInt(3)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	entry, err := lgr.Entry(base)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Borrowed.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("borrowed = %s, want 3", entry.Borrowed)
	}

	if err := lgr.Repay(ctx, authority, base, big.NewInt(2)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	entry, _ = lgr.Entry(base)
	if entry.Borrowed.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("borrowed after repay = %s, want 1", entry.Borrowed)
	}
}

func TestLedgerRepayClampsOverpayment(t *testing.T) {
	ctx := context.Background()
	lgr, _, registry := newTestLedger(t)
	base := registry.Base()

	if err := lgr.Borrow(ctx, authority, base, big.NewInt(5)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := lgr.Repay(ctx, authority, base, big.NewInt(100)); err != nil {
		t.Fatalf("overpay repay should clamp, got %v", err)
	}
	entry, _ := lgr.Entry(base)
	if entry.Borrowed.Sign() != 0 {
		t.Fatalf("borrowed after overpay = %s, want 0", entry.Borrowed)
	}
}

func TestLedgerSupplyZeroIsNoOp(t *testing.T) {
	ctx := context.Background()
	lgr, _, registry := newTestLedger(t)

	if err := lgr.Supply(ctx, authority, registry.Base()); err != nil {
		t.Fatalf("zero supply should be a no-op, got %v", err)
	}
	if err := lgr.Borrow(ctx, authority, registry.Base(), big.NewInt(0)); err != nil {
		t.Fatalf("zero borrow should be a no-op, got %v", err)
	}
}

func TestLedgerWithdrawToReceiver(t *testing.T) {
	ctx := context.Background()
	lgr, pool, registry := newTestLedger(t)
	base := registry.Base()

	if err := lgr.Credit(authority, base, big.NewInt(10)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := lgr.Supply(ctx, authority, base); err != nil {
		t.Fatalf("supply: %v", err)
	}

	withdrawn, err := lgr.Withdraw(ctx, authority, base, big.NewInt(4), receiver)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("withdrawn = %s, want 4", withdrawn)
	}

	reserves, _ := lgr.Reserves(base)
	if reserves.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("reserves = %s, want 6", reserves)
	}
	if got := pool.PaidOut(receiver, base); got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("paid out = %s, want 4", got)
	}
}

func TestLedgerUnauthorized(t *testing.T) {
	ctx := context.Background()
	lgr, _, registry := newTestLedger(t)
	base := registry.Base()

	if err := lgr.Borrow(ctx, stranger, base, big.NewInt(1)); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("borrow by stranger: expected ErrUnauthorized, got %v", err)
	}
	if err := lgr.Repay(ctx, stranger, base, big.NewInt(1)); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("repay by stranger: expected ErrUnauthorized, got %v", err)
	}
	if _, err := lgr.Withdraw(ctx, stranger, base, big.NewInt(1), stranger); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("withdraw by stranger: expected ErrUnauthorized, got %v", err)
	}
}

func TestLedgerUnsupportedAsset(t *testing.T) {
	ctx := context.Background()
	lgr, _, _ := newTestLedger(t)
	unknown := common.HexToAddress("0xff")

	if err := lgr.Borrow(ctx, authority, unknown, big.NewInt(1)); !errors.Is(err, asset.ErrUnsupportedAsset) {
		t.Fatalf("borrow: expected ErrUnsupportedAsset, got %v", err)
	}
	if err := lgr.Repay(ctx, authority, unknown, big.NewInt(1)); !errors.Is(err, asset.ErrUnsupportedAsset) {
		t.Fatalf("repay: expected ErrUnsupportedAsset, got %v", err)
	}
	if _, err := lgr.Withdraw(ctx, authority, unknown, big.NewInt(1), receiver); !errors.Is(err, asset.ErrUnsupportedAsset) {
		t.Fatalf("withdraw: expected ErrUnsupportedAsset, got %v", err)
	}
}

func TestLedgerTransferAuthority(t *testing.T) {
	ctx := context.Background()
	lgr, _, registry := newTestLedger(t)

	if err := lgr.TransferAuthority(stranger, receiver); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("transfer by stranger: expected ErrUnauthorized, got %v", err)
	}
	if err := lgr.TransferAuthority(authority, stranger); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := lgr.Borrow(ctx, authority, registry.Base(), big.NewInt(1)); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("old authority should be locked out, got %v", err)
	}
	if err := lgr.Borrow(ctx, stranger, registry.Base(), big.NewInt(1)); err != nil {
		t.Fatalf("new authority should be accepted: %v", err)
	}
}
