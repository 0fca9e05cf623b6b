package oracle

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidOracleAnswer is returned when a feed's latest answer is zero or
// negative.
var ErrInvalidOracleAnswer = errors.New("invalid oracle answer")

// ErrNoFeed is returned when no feed is configured for an asset that
// requires one.
var ErrNoFeed = errors.New("no price feed for asset")

// Answer is one feed reading.
type Answer struct {
	RoundID   *big.Int
	Value     *big.Int
	UpdatedAt uint64
}

// Feed reads the most recent price for an asset, denominated in the common
// accounting unit and scaled by Decimals.
type Feed interface {
	LatestAnswer(ctx context.Context, asset common.Address) (Answer, error)
	Decimals(ctx context.Context, asset common.Address) (uint8, error)
}

// RateSource reads the exchange rate of a wrapped liquid-staking asset
// into its underlying, scaled by 1e18.
type RateSource interface {
	ExchangeRate(ctx context.Context, asset common.Address) (*big.Int, error)
}
