package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Swaps         int
	LeverageBps   uint64
	Fee           uint32
	TickSpacing   int32
	Deposit       string
	LSTSeed       string
	SwapAmountMax int64
	AmbientLiq    string
	Seed          int64
	Out           string
	SnapshotsOut  string
	PGDSN         string
	RPCURL        string
	FeedAddress   string
	RateContract  string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JITVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("swaps", 20)
	v.SetDefault("leverage-bps", uint64(20000))
	v.SetDefault("fee", uint32(3000))
	v.SetDefault("tick-spacing", int32(60))
	v.SetDefault("deposit", "10000000000")
	v.SetDefault("lst-seed", "2000000000")
	v.SetDefault("swap-max", int64(50000000))
	v.SetDefault("ambient-liquidity", "500000000000")
	v.SetDefault("seed", int64(1))
	v.SetDefault("out", "./data/cycles.jsonl")
	v.SetDefault("snapshots-out", "./data/snapshots.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Swaps:         v.GetInt("swaps"),
		LeverageBps:   v.GetUint64("leverage-bps"),
		Fee:           v.GetUint32("fee"),
		TickSpacing:   v.GetInt32("tick-spacing"),
		Deposit:       v.GetString("deposit"),
		LSTSeed:       v.GetString("lst-seed"),
		SwapAmountMax: v.GetInt64("swap-max"),
		AmbientLiq:    v.GetString("ambient-liquidity"),
		Seed:          v.GetInt64("seed"),
		Out:           v.GetString("out"),
		SnapshotsOut:  v.GetString("snapshots-out"),
		PGDSN:         v.GetString("pg-dsn"),
		RPCURL:        v.GetString("rpc"),
		FeedAddress:   v.GetString("feed"),
		RateContract:  v.GetString("rate-contract"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
