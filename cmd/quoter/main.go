package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapScope/internal/addr"
	"swapScope/internal/config"
	"swapScope/internal/indexer"
	"swapScope/internal/pairs"
	"swapScope/internal/quote"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
)

func main() {
	// Local development keeps RPC URLs and keys in .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Off-chain AMM quoting, pair graph, and swap tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap from live pool reserves",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().String("factory", "", "factory contract address")
	quoteCmd.Flags().String("wrapped-native", "", "wrapped native token address")
	quoteCmd.Flags().String("init-code-hash", "", "pair init code hash")
	quoteCmd.Flags().String("token-in", "", "input token address (zero address for native)")
	quoteCmd.Flags().String("token-out", "", "output token address (zero address for native)")
	quoteCmd.Flags().StringSlice("path", nil, "explicit token path (comma-separated, overrides token-in/token-out)")
	quoteCmd.Flags().String("amount", "", "amount in smallest token units")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the desired output")
	quoteCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance in basis points")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(quoteCmd)

	pairsCmd := &cobra.Command{
		Use:   "pairs",
		Short: "Fetch the pool list and inspect the pair graph",
		RunE:  runPairs,
	}
	pairsCmd.Flags().StringSlice("indexer", nil, "indexer endpoints (comma-separated)")
	pairsCmd.Flags().Uint64("chain-id", 1, "chain id for snapshot bookkeeping")
	pairsCmd.Flags().Float64("min-liquidity-usd", 0, "discard pools below this liquidity")
	pairsCmd.Flags().StringSlice("allowlist", nil, "verified token addresses (comma-separated)")
	pairsCmd.Flags().String("token-in", "", "check swappability: input token")
	pairsCmd.Flags().String("token-out", "", "check swappability: output token")
	pairsCmd.Flags().String("snapshot", "./data/snapshots.jsonl", "snapshot JSONL path")
	pairsCmd.Flags().String("postgres-dsn", "", "Postgres DSN for snapshot persistence")
	pairsCmd.Flags().Duration("fetch-timeout", 10*time.Second, "per-attempt fetch timeout")
	pairsCmd.Flags().Int("max-retries", 5, "maximum retry attempts per endpoint")
	pairsCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	pairsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(pairsCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a pair address without a network call",
		RunE:  runDerive,
	}
	deriveCmd.Flags().String("factory", "", "factory contract address")
	deriveCmd.Flags().String("init-code-hash", "", "pair init code hash")
	deriveCmd.Flags().String("token-a", "", "first token address")
	deriveCmd.Flags().String("token-b", "", "second token address")
	root.AddCommand(deriveCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote and execute a swap with the configured key",
		RunE:  runSwap,
	}
	swapCmd.Flags().String("rpc", "", "RPC URL")
	swapCmd.Flags().Uint64("chain-id", 1, "expected chain id")
	swapCmd.Flags().String("factory", "", "factory contract address")
	swapCmd.Flags().String("router", "", "router contract address")
	swapCmd.Flags().String("wrapped-native", "", "wrapped native token address")
	swapCmd.Flags().String("init-code-hash", "", "pair init code hash")
	swapCmd.Flags().String("token-in", "", "input token address (zero address for native)")
	swapCmd.Flags().String("token-out", "", "output token address")
	swapCmd.Flags().StringSlice("path", nil, "explicit token path (comma-separated)")
	swapCmd.Flags().String("amount", "", "input amount in smallest token units")
	swapCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance in basis points")
	swapCmd.Flags().Duration("deadline", 20*time.Minute, "transaction deadline window")
	swapCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(swapCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quoting and pair-graph endpoints over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().String("rpc", "", "RPC URL")
	serveCmd.Flags().Uint64("chain-id", 1, "chain id")
	serveCmd.Flags().String("factory", "", "factory contract address")
	serveCmd.Flags().String("wrapped-native", "", "wrapped native token address")
	serveCmd.Flags().String("init-code-hash", "", "pair init code hash")
	serveCmd.Flags().StringSlice("indexer", nil, "indexer endpoints (comma-separated)")
	serveCmd.Flags().Float64("min-liquidity-usd", 0, "discard pools below this liquidity")
	serveCmd.Flags().StringSlice("allowlist", nil, "verified token addresses (comma-separated)")
	serveCmd.Flags().Duration("cache-ttl", 5*time.Minute, "pair graph cache TTL")
	serveCmd.Flags().Uint64("slippage-bps", 50, "default slippage tolerance in basis points")
	serveCmd.Flags().String("snapshot", "./data/snapshots.jsonl", "snapshot JSONL path")
	serveCmd.Flags().String("postgres-dsn", "", "Postgres DSN for snapshot persistence")
	serveCmd.Flags().Duration("fetch-timeout", 10*time.Second, "per-attempt fetch timeout")
	serveCmd.Flags().Int("max-retries", 5, "maximum retry attempts per endpoint")
	serveCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
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

func buildDeployment(cfg config.Config) (quote.Deployment, error) {
	factory, err := addr.Parse(cfg.Factory)
	if err != nil {
		return quote.Deployment{}, fmt.Errorf("factory: %w", err)
	}

	hashBytes := common.FromHex(cfg.InitCodeHash)
	if len(hashBytes) != common.HashLength {
		return quote.Deployment{}, fmt.Errorf("init-code-hash must be 32 bytes")
	}

	deploy := quote.Deployment{
		Factory:      factory,
		InitCodeHash: common.BytesToHash(hashBytes),
	}
	if cfg.WrappedNative != "" {
		wrapped, err := addr.Parse(cfg.WrappedNative)
		if err != nil {
			return quote.Deployment{}, fmt.Errorf("wrapped-native: %w", err)
		}
		deploy.WrappedNative = wrapped
	}
	return deploy, nil
}

// buildSnapshotStore picks the Postgres store when a DSN is configured and
// the local JSONL file otherwise.
func buildSnapshotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.SnapshotStore, func(), error) {
	if cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("snapshot store: postgres")
		return store, store.Close, nil
	}
	logger.Info("snapshot store: jsonl", zap.String("path", cfg.SnapshotPath))
	return storage.NewJsonlStore(cfg.SnapshotPath), func() {}, nil
}

func buildPoolCache(cfg config.Config, store storage.SnapshotStore, logger *zap.Logger) (*pairs.Cache, error) {
	client, err := indexer.NewClient(indexer.ClientConfig{
		Endpoints:     cfg.IndexerEndpoints,
		PerTryTimeout: cfg.FetchTimeout,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return nil, err
	}

	return pairs.NewCache(client.FetchPools, pairs.CacheConfig{
		TTL:     cfg.CacheTTL,
		ChainID: cfg.ChainID,
		Build: pairs.BuildConfig{
			MinLiquidityUSD: cfg.MinLiquidityUSD,
			Allowlist:       pairs.NewAllowlist(cfg.Allowlist),
		},
		Store: store,
	}, logger), nil
}

// tokenPath assembles the swap path from either the explicit path flag or
// the token-in/token-out pair.
func tokenPath(cmd *cobra.Command) ([]string, error) {
	path, _ := cmd.Flags().GetStringSlice("path")
	if len(path) > 0 {
		return path, nil
	}

	tokenIn, _ := cmd.Flags().GetString("token-in")
	tokenOut, _ := cmd.Flags().GetString("token-out")
	if tokenIn == "" || tokenOut == "" {
		return nil, fmt.Errorf("token-in and token-out (or an explicit path) are required")
	}
	return []string{tokenIn, tokenOut}, nil
}
