package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "jitvault",
		Short:        "JIT liquidity vault tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run simulated swap cycles against a deterministic pool",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().Int("swaps", 20, "number of swaps to simulate")
	simulateCmd.Flags().Uint64("leverage-bps", 20000, "leverage multiplier in basis points (20000 = 2x)")
	simulateCmd.Flags().Uint32("fee", 3000, "pool fee in pips")
	simulateCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	simulateCmd.Flags().String("deposit", "10000000000", "initial base-asset deposit")
	simulateCmd.Flags().String("lst-seed", "2000000000", "per-LST reserve seed")
	simulateCmd.Flags().Int64("swap-max", 50000000, "maximum swap input amount")
	simulateCmd.Flags().String("ambient-liquidity", "500000000000", "pool ambient liquidity")
	simulateCmd.Flags().Int64("seed", 1, "random seed")
	simulateCmd.Flags().String("out", "./data/cycles.jsonl", "cycle records JSONL path")
	simulateCmd.Flags().String("snapshots-out", "./data/snapshots.jsonl", "vault snapshots JSONL path")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for cycle/snapshot persistence")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Query an on-chain price feed once",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "RPC URL")
	priceCmd.Flags().String("feed", "", "aggregator contract address")
	priceCmd.Flags().String("rate-contract", "", "optional wrapped-asset contract for exchangeRate()")
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
