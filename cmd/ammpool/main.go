package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ammpool/internal/api"
	"ammpool/internal/chain"
	"ammpool/internal/config"
	"ammpool/internal/model"
	"ammpool/internal/pool"
	"ammpool/internal/registry"
	"ammpool/internal/storage"
	"ammpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "ammpool",
		Short:        "Two-asset constant-product AMM pool service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pool service",
		RunE:  runPool,
	}

	runCmd.Flags().String("listen", ":8080", "HTTP listen address")
	runCmd.Flags().String("owner", "", "pool owner account id")
	runCmd.Flags().String("pool-account", "pool", "pool's own account id")
	runCmd.Flags().String("asset-a", "", "asset A id")
	runCmd.Flags().String("asset-b", "", "asset B id")
	runCmd.Flags().String("asset-a-contract", "", "asset A registry contract address")
	runCmd.Flags().String("asset-b-contract", "", "asset B registry contract address")
	runCmd.Flags().Int("asset-a-decimals", 0, "asset A decimals (static registry mode)")
	runCmd.Flags().Int("asset-b-decimals", 0, "asset B decimals (static registry mode)")
	runCmd.Flags().String("rpc", "", "registry RPC URL (enables on-chain metadata)")
	runCmd.Flags().String("out", "./data/events.jsonl", "event journal JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the event journal")
	runCmd.Flags().Int("max-retries", 5, "maximum metadata fetch retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial metadata fetch retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPool(cmd *cobra.Command, _ []string) error {
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

	if cfg.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if cfg.AssetA == "" || cfg.AssetB == "" {
		return fmt.Errorf("both asset ids are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, cleanup, err := newMetadataFetcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	journal, closeJournal, err := newJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	p, err := pool.New(ctx, pool.Config{
		Owner:       model.AccountID(cfg.Owner),
		PoolAccount: model.AccountID(cfg.PoolAccount),
		AssetA:      model.AssetID(cfg.AssetA),
		AssetB:      model.AssetID(cfg.AssetB),
		Metadata:    fetcher,
		Transfers:   registry.NewStubSender(logger),
		Journal:     journal,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("pool service start",
		zap.String("listen", cfg.ListenAddr),
		zap.String("owner", cfg.Owner),
		zap.String("asset_a", cfg.AssetA),
		zap.String("asset_b", cfg.AssetB),
		zap.Bool("onchain_registry", cfg.RPCURL != ""),
	)

	server := api.NewServer(cfg.ListenAddr, p, logger)
	return server.Run(ctx)
}

func newMetadataFetcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (pool.MetadataFetcher, func(), error) {
	if cfg.RPCURL == "" {
		static := map[model.AssetID]model.AssetMetadata{
			model.AssetID(cfg.AssetA): {Symbol: cfg.AssetA, Decimals: uint8(cfg.AssetADecimals)},
			model.AssetID(cfg.AssetB): {Symbol: cfg.AssetB, Decimals: uint8(cfg.AssetBDecimals)},
		}
		return registry.NewStaticRegistry(static), func() {}, nil
	}

	if !common.IsHexAddress(cfg.AssetAContract) || !common.IsHexAddress(cfg.AssetBContract) {
		return nil, nil, fmt.Errorf("valid contract addresses are required with --rpc")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	tokens := map[model.AssetID]common.Address{
		model.AssetID(cfg.AssetA): common.HexToAddress(cfg.AssetAContract),
		model.AssetID(cfg.AssetB): common.HexToAddress(cfg.AssetBContract),
	}
	fetcher := registry.NewEthRegistry(chainClient, tokens, cfg.MaxRetries, cfg.RetryBackoff, logger)
	return fetcher, chainClient.Close, nil
}

func newJournal(ctx context.Context, cfg config.Config) (storage.Storage, func(), error) {
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewJournal(ctx, store), store.Close, nil
	}
	return storage.NewJsonlStorage(cfg.Out), func() {}, nil
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
