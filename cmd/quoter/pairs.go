package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runPairs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.IndexerEndpoints) == 0 {
		return fmt.Errorf("at least one indexer endpoint is required")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildSnapshotStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, err := buildPoolCache(cfg, store, logger)
	if err != nil {
		return err
	}

	graph, err := cache.Graph(ctx)
	if err != nil {
		return err
	}
	pools, err := cache.Pools(ctx)
	if err != nil {
		return err
	}

	logger.Info("pair graph built",
		zap.Int("pools", len(pools)),
		zap.Int("tokens", len(graph)),
	)

	// With both tokens given this is a swappability check; otherwise dump
	// the graph summary.
	tokenIn, _ := cmd.Flags().GetString("token-in")
	tokenOut, _ := cmd.Flags().GetString("token-out")
	if tokenIn != "" && tokenOut != "" {
		fmt.Printf("%s <-> %s: %v\n", tokenIn, tokenOut, graph.CanSwap(tokenIn, tokenOut))
		return nil
	}

	summary := make(map[string][]string, len(graph))
	for _, token := range graph.Tokens() {
		summary[token] = graph.Neighbors(token)
	}
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
