package asset

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(
		Entry{Address: common.HexToAddress("0x01"), Symbol: "BASE", Decimals: 18, Kind: KindBase},
		[3]Entry{
			{Address: common.HexToAddress("0x02"), Symbol: "LST1", Decimals: 18, Kind: KindWrapped, Underlying: common.HexToAddress("0x12")},
			{Address: common.HexToAddress("0x03"), Symbol: "LST2", Decimals: 18, Kind: KindWrapped, Underlying: common.HexToAddress("0x13")},
			{Address: common.HexToAddress("0x04"), Symbol: "LST3", Decimals: 18, Kind: KindWrapped, Underlying: common.HexToAddress("0x14")},
		},
	)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return registry
}

func TestRegistryFixedSet(t *testing.T) {
	registry := testRegistry(t)

	if got := len(registry.All()); got != 4 {
		t.Fatalf("expected 4 assets, got %d", got)
	}
	if registry.All()[0] != registry.Base() {
		t.Fatalf("base must come first")
	}
	if !registry.Supported(common.HexToAddress("0x03")) {
		t.Fatalf("LST2 should be supported")
	}
	if registry.Supported(common.HexToAddress("0xff")) {
		t.Fatalf("unknown asset should not be supported")
	}
}

func TestRegistryLookupUnsupported(t *testing.T) {
	registry := testRegistry(t)

	_, err := registry.Lookup(common.HexToAddress("0xff"))
	if !errors.Is(err, ErrUnsupportedAsset) {
		t.Fatalf("expected ErrUnsupportedAsset, got %v", err)
	}
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	base := Entry{Address: common.HexToAddress("0x01"), Kind: KindBase}
	wrapped := [3]Entry{
		{Address: common.HexToAddress("0x02"), Kind: KindWrapped},
		{Address: common.HexToAddress("0x03"), Kind: KindWrapped},
		{Address: common.HexToAddress("0x04"), Kind: KindWrapped},
	}

	dup := wrapped
	dup[1].Address = dup[0].Address
	if _, err := NewRegistry(base, dup); err == nil {
		t.Fatalf("expected error for duplicate address")
	}

	collide := wrapped
	collide[2].Address = base.Address
	if _, err := NewRegistry(base, collide); err == nil {
		t.Fatalf("expected error for base collision")
	}

	notWrapped := wrapped
	notWrapped[0].Kind = KindBase
	if _, err := NewRegistry(base, notWrapped); err == nil {
		t.Fatalf("expected error for wrong kind")
	}
}
