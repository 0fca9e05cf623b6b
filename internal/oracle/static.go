package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// StaticFeed is a deterministic in-memory Feed and RateSource used by the
// simulator and tests.
type StaticFeed struct {
	mu       sync.RWMutex
	answers  map[common.Address]Answer
	decimals map[common.Address]uint8
	rates    map[common.Address]*big.Int
	round    int64
}

// NewStaticFeed builds an empty static feed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		answers:  make(map[common.Address]Answer),
		decimals: make(map[common.Address]uint8),
		rates:    make(map[common.Address]*big.Int),
	}
}

// SetAnswer records the latest answer for an asset.
func (f *StaticFeed) SetAnswer(asset common.Address, answer *big.Int, decimals uint8, updatedAt uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round++
	f.answers[asset] = Answer{
		RoundID:   big.NewInt(f.round),
		Value:     new(big.Int).Set(answer),
		UpdatedAt: updatedAt,
	}
	f.decimals[asset] = decimals
}

// SetRate records the exchange rate for a wrapped asset, 1e18 scale.
func (f *StaticFeed) SetRate(asset common.Address, rate *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[asset] = new(big.Int).Set(rate)
}

// LatestAnswer implements Feed.
func (f *StaticFeed) LatestAnswer(_ context.Context, asset common.Address) (Answer, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	answer, ok := f.answers[asset]
	if !ok {
		return Answer{}, fmt.Errorf("%w: %s", ErrNoFeed, asset.Hex())
	}
	return answer, nil
}

// Decimals implements Feed.
func (f *StaticFeed) Decimals(_ context.Context, asset common.Address) (uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	decimals, ok := f.decimals[asset]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoFeed, asset.Hex())
	}
	return decimals, nil
}

// ExchangeRate implements RateSource.
func (f *StaticFeed) ExchangeRate(_ context.Context, asset common.Address) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rate, ok := f.rates[asset]
	if !ok {
		return nil, fmt.Errorf("no exchange rate for %s", asset.Hex())
	}
	return new(big.Int).Set(rate), nil
}
