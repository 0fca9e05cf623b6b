package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jitvault/internal/chain"
	"jitvault/internal/config"
	"jitvault/internal/oracle"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.FeedAddress) {
		return fmt.Errorf("valid feed address is required")
	}

	ctx := cmd.Context()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	// The feed adapter keys aggregators by the asset they price; for a
	// one-shot query the aggregator address stands in for the asset.
	aggregator := common.HexToAddress(cfg.FeedAddress)
	feed := oracle.NewOnChainFeed(client, map[common.Address]common.Address{
		aggregator: aggregator,
	})

	answer, err := feed.LatestAnswer(ctx, aggregator)
	if err != nil {
		return err
	}
	decimals, err := feed.Decimals(ctx, aggregator)
	if err != nil {
		return err
	}

	logger.Info("feed answer",
		zap.String("feed", aggregator.Hex()),
		zap.String("round_id", answer.RoundID.String()),
		zap.String("answer", answer.Value.String()),
		zap.Uint8("decimals", decimals),
		zap.Uint64("updated_at", answer.UpdatedAt),
	)

	if common.IsHexAddress(cfg.RateContract) {
		rate, err := feed.ExchangeRate(ctx, common.HexToAddress(cfg.RateContract))
		if err != nil {
			return err
		}
		logger.Info("exchange rate",
			zap.String("contract", cfg.RateContract),
			zap.String("rate", rate.String()),
		)
	}

	return nil
}
