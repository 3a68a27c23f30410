package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/quote"
	"swapScope/internal/server"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if len(cfg.IndexerEndpoints) == 0 {
		return fmt.Errorf("at least one indexer endpoint is required")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deploy, err := buildDeployment(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, closeStore, err := buildSnapshotStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, err := buildPoolCache(cfg, store, logger)
	if err != nil {
		return err
	}

	svc := quote.NewService(chainClient, deploy, cfg.SlippageBps, logger)
	srv := server.New(svc, cache, logger)

	logger.Info("serve start",
		zap.String("listen", cfg.ListenAddr),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("indexer_endpoints", len(cfg.IndexerEndpoints)),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
