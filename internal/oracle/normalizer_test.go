package oracle

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"jitvault/internal/asset"
)

var (
	testBase   = common.HexToAddress("0x01")
	testLST    = common.HexToAddress("0x02")
	testStaked = common.HexToAddress("0x12")
)

func newTestNormalizer(t *testing.T) (*Normalizer, *StaticFeed) {
	t.Helper()
	registry, err := asset.NewRegistry(
		asset.Entry{Address: testBase, Symbol: "BASE", Decimals: 18, Kind: asset.KindBase},
		[3]asset.Entry{
			{Address: testLST, Symbol: "LST1", Decimals: 18, Kind: asset.KindWrapped, Underlying: testStaked},
			{Address: common.HexToAddress("0x03"), Symbol: "LST2", Decimals: 18, Kind: asset.KindWrapped, Underlying: common.HexToAddress("0x13")},
			{Address: common.HexToAddress("0x04"), Symbol: "LST3", Decimals: 18, Kind: asset.KindWrapped, Underlying: common.HexToAddress("0x14")},
		},
	)
	require.NoError(t, err)

	feed := NewStaticFeed()
	return NewNormalizer(registry, feed, feed), feed
}

func TestToCommonUnitBaseIdentity(t *testing.T) {
	norm, _ := newTestNormalizer(t)

	got, err := norm.ToCommonUnit(context.Background(), testBase, big.NewInt(123456))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(123456), got)
}

func TestToCommonUnitWrapped(t *testing.T) {
	norm, feed := newTestNormalizer(t)

	// 1 LST = 1.05 staked, 1 staked = 2 base.
	feed.SetRate(testLST, big.NewInt(1_050_000_000_000_000_000))
	feed.SetAnswer(testStaked, big.NewInt(200_000_000), 8, 1000)

	got, err := norm.ToCommonUnit(context.Background(), testLST, big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2_100_000), got)
}

func TestFromCommonUnitInvertsWrapped(t *testing.T) {
	norm, feed := newTestNormalizer(t)

	feed.SetRate(testLST, big.NewInt(1_050_000_000_000_000_000))
	feed.SetAnswer(testStaked, big.NewInt(200_000_000), 8, 1000)

	native, err := norm.FromCommonUnit(context.Background(), testLST, big.NewInt(2_100_000))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), native)
}

func TestToCommonUnitInvalidAnswer(t *testing.T) {
	norm, feed := newTestNormalizer(t)

	feed.SetRate(testLST, big.NewInt(1_000_000_000_000_000_000))
	feed.SetAnswer(testStaked, big.NewInt(0), 8, 1000)

	_, err := norm.ToCommonUnit(context.Background(), testLST, big.NewInt(100))
	require.ErrorIs(t, err, ErrInvalidOracleAnswer)

	feed.SetAnswer(testStaked, big.NewInt(-5), 8, 1001)
	_, err = norm.ToCommonUnit(context.Background(), testLST, big.NewInt(100))
	require.ErrorIs(t, err, ErrInvalidOracleAnswer)
}

func TestToCommonUnitUnsupportedAsset(t *testing.T) {
	norm, _ := newTestNormalizer(t)

	_, err := norm.ToCommonUnit(context.Background(), common.HexToAddress("0xff"), big.NewInt(1))
	require.ErrorIs(t, err, asset.ErrUnsupportedAsset)
}

func TestToCommonUnitZeroAmount(t *testing.T) {
	norm, _ := newTestNormalizer(t)

	got, err := norm.ToCommonUnit(context.Background(), testLST, big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, got.Sign())
}
