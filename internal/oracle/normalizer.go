package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/asset"
)

var rateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Normalizer converts balances of supported assets into the common
// accounting unit (the base asset) and back. Wrapped liquid-staking assets
// go through their exchange rate first, then through the underlying's feed.
type Normalizer struct {
	registry *asset.Registry
	feeds    Feed
	rates    RateSource
}

// NewNormalizer builds a normalizer over the fixed asset set.
func NewNormalizer(registry *asset.Registry, feeds Feed, rates RateSource) *Normalizer {
	return &Normalizer{registry: registry, feeds: feeds, rates: rates}
}

// ToCommonUnit values amount of asset in base-asset units, floor division.
// The most recent feed answer is trusted as-is; there is no staleness
// window, only a positivity check.
func (n *Normalizer) ToCommonUnit(ctx context.Context, addr common.Address, amount *big.Int) (*big.Int, error) {
	entry, err := n.registry.Lookup(addr)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	if entry.Kind == asset.KindBase {
		return new(big.Int).Set(amount), nil
	}

	underlying := new(big.Int).Set(amount)
	priced := entry.Address
	if entry.Kind == asset.KindWrapped {
		rate, err := n.rates.ExchangeRate(ctx, entry.Address)
		if err != nil {
			return nil, fmt.Errorf("exchange rate %s: %w", entry.Symbol, err)
		}
		if rate == nil || rate.Sign() <= 0 {
			return nil, fmt.Errorf("exchange rate %s: %w", entry.Symbol, ErrInvalidOracleAnswer)
		}
		underlying.Mul(underlying, rate)
		underlying.Div(underlying, rateScale)
		priced = entry.Underlying
	}

	answer, decimals, err := n.readFeed(ctx, priced)
	if err != nil {
		return nil, fmt.Errorf("feed for %s: %w", entry.Symbol, err)
	}

	value := new(big.Int).Mul(underlying, answer)
	value.Div(value, pow10(decimals))
	return value, nil
}

// FromCommonUnit is the inverse of ToCommonUnit: it converts a base-asset
// value into native units of asset, floor division.
func (n *Normalizer) FromCommonUnit(ctx context.Context, addr common.Address, value *big.Int) (*big.Int, error) {
	entry, err := n.registry.Lookup(addr)
	if err != nil {
		return nil, err
	}
	if value == nil || value.Sign() == 0 {
		return big.NewInt(0), nil
	}

	if entry.Kind == asset.KindBase {
		return new(big.Int).Set(value), nil
	}

	priced := entry.Address
	if entry.Kind == asset.KindWrapped {
		priced = entry.Underlying
	}

	answer, decimals, err := n.readFeed(ctx, priced)
	if err != nil {
		return nil, fmt.Errorf("feed for %s: %w", entry.Symbol, err)
	}

	native := new(big.Int).Mul(value, pow10(decimals))
	native.Div(native, answer)

	if entry.Kind == asset.KindWrapped {
		rate, err := n.rates.ExchangeRate(ctx, entry.Address)
		if err != nil {
			return nil, fmt.Errorf("exchange rate %s: %w", entry.Symbol, err)
		}
		if rate == nil || rate.Sign() <= 0 {
			return nil, fmt.Errorf("exchange rate %s: %w", entry.Symbol, ErrInvalidOracleAnswer)
		}
		native.Mul(native, rateScale)
		native.Div(native, rate)
	}

	return native, nil
}

func (n *Normalizer) readFeed(ctx context.Context, priced common.Address) (*big.Int, uint8, error) {
	if n.feeds == nil {
		return nil, 0, ErrNoFeed
	}
	answer, err := n.feeds.LatestAnswer(ctx, priced)
	if err != nil {
		return nil, 0, err
	}
	if answer.Value == nil || answer.Value.Sign() <= 0 {
		return nil, 0, ErrInvalidOracleAnswer
	}
	decimals, err := n.feeds.Decimals(ctx, priced)
	if err != nil {
		return nil, 0, err
	}
	return answer.Value, decimals, nil
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
