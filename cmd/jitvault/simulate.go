package main

import (
	"context"
	"fmt"
	"math/big"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jitvault/internal/config"
	"jitvault/internal/model"
	"jitvault/internal/sim"
	"jitvault/internal/storage"
	"jitvault/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
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

	scenario := sim.DefaultScenario()
	scenario.Swaps = cfg.Swaps
	scenario.LeverageBps = cfg.LeverageBps
	scenario.Fee = cfg.Fee
	scenario.TickSpacing = cfg.TickSpacing
	scenario.SwapAmountMax = cfg.SwapAmountMax
	scenario.Seed = cfg.Seed

	if scenario.Deposit, err = parseAmount("deposit", cfg.Deposit); err != nil {
		return err
	}
	if scenario.LSTSeed, err = parseAmount("lst-seed", cfg.LSTSeed); err != nil {
		return err
	}
	if scenario.AmbientLiq, err = parseAmount("ambient-liquidity", cfg.AmbientLiq); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cycles storage.CycleSink = storage.NewJsonlStorage(cfg.Out)
	var snapshots storage.SnapshotSink = storage.NewJsonlStorage(cfg.SnapshotsOut)

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		pg := &pgSink{ctx: ctx, store: store}
		cycles = pg
		snapshots = pg
	}

	runner, err := sim.NewRunner(scenario, cycles, snapshots, logger)
	if err != nil {
		return err
	}

	logger.Info("simulation start",
		zap.Int("swaps", scenario.Swaps),
		zap.Uint64("leverage_bps", scenario.LeverageBps),
		zap.Uint32("fee", scenario.Fee),
		zap.Int32("tick_spacing", scenario.TickSpacing),
		zap.String("deposit", scenario.Deposit.String()),
		zap.Int64("seed", scenario.Seed),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("summary",
		zap.Int("swaps", summary.Swaps),
		zap.Int("injected", summary.Injected),
		zap.String("share_supply", summary.ShareSupply.String()),
		zap.String("total_assets", summary.TotalAssets.String()),
	)
	return nil
}

func parseAmount(name, value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %s", name, value)
	}
	return parsed, nil
}

// pgSink adapts the batch-oriented Postgres store to the per-record sink
// interfaces.
type pgSink struct {
	ctx   context.Context
	store *postgres.Store
}

func (s *pgSink) PutCycle(record model.CycleRecord) error {
	return s.store.InsertCycles(s.ctx, []model.CycleRecord{record})
}

func (s *pgSink) PutSnapshot(snapshot model.VaultSnapshot) error {
	return s.store.UpsertSnapshots(s.ctx, []model.VaultSnapshot{snapshot})
}
