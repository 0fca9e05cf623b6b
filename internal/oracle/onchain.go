package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"jitvault/internal/chain"
)

const aggregatorABIJSON = `[
  {"inputs": [], "name": "latestRoundData", "outputs": [
    {"internalType": "uint80", "name": "roundId", "type": "uint80"},
    {"internalType": "int256", "name": "answer", "type": "int256"},
    {"internalType": "uint256", "name": "startedAt", "type": "uint256"},
    {"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
    {"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "exchangeRate", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	aggregatorABI    abi.ABI
	aggregatorOnce   sync.Once
	aggregatorABIErr error
)

func getAggregatorABI() (abi.ABI, error) {
	aggregatorOnce.Do(func() {
		aggregatorABI, aggregatorABIErr = abi.JSON(strings.NewReader(aggregatorABIJSON))
	})
	return aggregatorABI, aggregatorABIErr
}

// OnChainFeed reads Chainlink-style aggregators and wrapped-asset exchange
// rates over eth_call. Feed contracts are keyed by the asset they price;
// exchange rates are read from the wrapped asset contract itself.
type OnChainFeed struct {
	client *chain.Client
	feeds  map[common.Address]common.Address
}

// NewOnChainFeed builds the adapter. feeds maps asset address to its
// aggregator contract.
func NewOnChainFeed(client *chain.Client, feeds map[common.Address]common.Address) *OnChainFeed {
	copied := make(map[common.Address]common.Address, len(feeds))
	for asset, aggregator := range feeds {
		copied[asset] = aggregator
	}
	return &OnChainFeed{client: client, feeds: copied}
}

// LatestAnswer returns the most recent round for the asset's aggregator.
func (f *OnChainFeed) LatestAnswer(ctx context.Context, asset common.Address) (Answer, error) {
	aggregator, ok := f.feeds[asset]
	if !ok {
		return Answer{}, fmt.Errorf("%w: %s", ErrNoFeed, asset.Hex())
	}

	values, err := f.call(ctx, aggregator, "latestRoundData")
	if err != nil {
		return Answer{}, err
	}
	if len(values) != 5 {
		return Answer{}, fmt.Errorf("latestRoundData return size %d", len(values))
	}

	roundID, err := asBigInt(values[0])
	if err != nil {
		return Answer{}, err
	}
	answer, err := asBigInt(values[1])
	if err != nil {
		return Answer{}, err
	}
	updatedAt, err := asBigInt(values[3])
	if err != nil {
		return Answer{}, err
	}

	return Answer{RoundID: roundID, Value: answer, UpdatedAt: updatedAt.Uint64()}, nil
}

// Decimals returns the aggregator's answer precision.
func (f *OnChainFeed) Decimals(ctx context.Context, asset common.Address) (uint8, error) {
	aggregator, ok := f.feeds[asset]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoFeed, asset.Hex())
	}

	values, err := f.call(ctx, aggregator, "decimals")
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals return size %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return decimals, nil
}

// ExchangeRate reads exchangeRate() from the wrapped asset contract.
func (f *OnChainFeed) ExchangeRate(ctx context.Context, asset common.Address) (*big.Int, error) {
	values, err := f.call(ctx, asset, "exchangeRate")
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("exchangeRate return size %d", len(values))
	}
	return asBigInt(values[0])
}

func (f *OnChainFeed) call(ctx context.Context, target common.Address, method string) ([]interface{}, error) {
	if f.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	contractABI, err := getAggregatorABI()
	if err != nil {
		return nil, err
	}

	data, err := contractABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := f.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	parsed, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", value)
	}
	return parsed, nil
}
