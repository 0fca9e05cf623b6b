package asset

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupportedAsset is returned for any asset outside the fixed set.
var ErrUnsupportedAsset = errors.New("unsupported asset")

// Kind distinguishes the base accounting asset from yield-bearing wrappers.
type Kind uint8

const (
	// KindBase is the common accounting unit itself.
	KindBase Kind = iota
	// KindWrapped is a liquid-staking wrapper valued through an exchange
	// rate into its underlying, then through the underlying's feed.
	KindWrapped
)

// Entry describes one supported asset.
type Entry struct {
	Address    common.Address
	Symbol     string
	Decimals   uint8
	Kind       Kind
	Underlying common.Address
}

// Registry is the closed set of supported assets: the base asset plus
// exactly three liquid-staking variants. The set is fixed at construction
// and never changes.
type Registry struct {
	base    common.Address
	entries map[common.Address]Entry
	order   []common.Address
}

// NewRegistry builds the registry from the base asset and its three
// wrapped variants.
func NewRegistry(base Entry, wrapped [3]Entry) (*Registry, error) {
	if base.Kind != KindBase {
		return nil, fmt.Errorf("base entry must have KindBase")
	}

	entries := make(map[common.Address]Entry, 4)
	order := make([]common.Address, 0, 4)

	entries[base.Address] = base
	order = append(order, base.Address)

	for _, w := range wrapped {
		if w.Kind != KindWrapped {
			return nil, fmt.Errorf("%s: wrapped entry must have KindWrapped", w.Symbol)
		}
		if w.Address == base.Address {
			return nil, fmt.Errorf("%s: wrapped asset collides with base", w.Symbol)
		}
		if _, ok := entries[w.Address]; ok {
			return nil, fmt.Errorf("%s: duplicate asset address", w.Symbol)
		}
		entries[w.Address] = w
		order = append(order, w.Address)
	}

	return &Registry{base: base.Address, entries: entries, order: order}, nil
}

// Base returns the common accounting asset.
func (r *Registry) Base() common.Address {
	return r.base
}

// Supported reports whether the asset is in the fixed set.
func (r *Registry) Supported(addr common.Address) bool {
	_, ok := r.entries[addr]
	return ok
}

// Lookup returns the entry for an asset or ErrUnsupportedAsset.
func (r *Registry) Lookup(addr common.Address) (Entry, error) {
	entry, ok := r.entries[addr]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnsupportedAsset, addr.Hex())
	}
	return entry, nil
}

// All returns the supported assets in registration order (base first).
func (r *Registry) All() []common.Address {
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}
