package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/quote"
)

func runQuote(cmd *cobra.Command, _ []string) error {
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

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path, err := tokenPath(cmd)
	if err != nil {
		return err
	}

	amountStr, _ := cmd.Flags().GetString("amount")
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}
	exactOut, _ := cmd.Flags().GetBool("exact-out")

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

	svc := quote.NewService(chainClient, deploy, cfg.SlippageBps, logger)

	result, err := func() (interface{}, error) {
		if exactOut {
			return svc.ExactOut(ctx, path, amount, cfg.SlippageBps)
		}
		return svc.ExactIn(ctx, path, amount, cfg.SlippageBps)
	}()
	if err != nil {
		return err
	}

	logger.Info("quote computed", zap.Int("hops", len(path)-1))

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
