package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ListenAddr     string
	Owner          string
	PoolAccount    string
	AssetA         string
	AssetB         string
	AssetAContract string
	AssetBContract string
	AssetADecimals int
	AssetBDecimals int
	RPCURL         string
	Out            string
	PgDSN          string
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AMMPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("pool-account", "pool")
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
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
		ListenAddr:     v.GetString("listen"),
		Owner:          v.GetString("owner"),
		PoolAccount:    v.GetString("pool-account"),
		AssetA:         v.GetString("asset-a"),
		AssetB:         v.GetString("asset-b"),
		AssetAContract: v.GetString("asset-a-contract"),
		AssetBContract: v.GetString("asset-b-contract"),
		AssetADecimals: v.GetInt("asset-a-decimals"),
		AssetBDecimals: v.GetInt("asset-b-decimals"),
		RPCURL:         v.GetString("rpc"),
		Out:            v.GetString("out"),
		PgDSN:          v.GetString("pg-dsn"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
