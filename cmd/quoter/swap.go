package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/addr"
	"swapScope/internal/chain"
	"swapScope/internal/model"
	"swapScope/internal/quote"
	"swapScope/internal/swap"
	"swapScope/internal/wallet"
)

func runSwap(cmd *cobra.Command, _ []string) error {
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
	if cfg.Router == "" {
		return fmt.Errorf("router address is required")
	}
	if cfg.PrivateKey == "" {
		return fmt.Errorf("SWAPSCOPE_PRIVATE_KEY is required")
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
	amountIn, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amountIn.Sign() <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}

	deploy, err := buildDeployment(cfg)
	if err != nil {
		return err
	}
	routerAddr, err := addr.Parse(cfg.Router)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector, err := wallet.NewKeyedConnector(cfg.RPCURL, cfg.PrivateKey)
	if err != nil {
		return err
	}
	defer connector.Close()

	adapter := wallet.NewAdapter(connector, []uint64{cfg.ChainID}, logger)
	session, err := adapter.Connect(ctx)
	if err != nil {
		return err
	}
	defer adapter.Disconnect()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	// Quote first: the swap's minimum-output bound comes from the quote's
	// slippage-adjusted result.
	svc := quote.NewService(chainClient, deploy, cfg.SlippageBps, logger)
	q, err := svc.ExactIn(ctx, path, amountIn, cfg.SlippageBps)
	if err != nil {
		return err
	}
	minOut, ok := new(big.Int).SetString(q.MinimumOut, 10)
	if !ok {
		return fmt.Errorf("invalid minimum out %q", q.MinimumOut)
	}

	swapPath := make([]common.Address, len(q.Path))
	for i, token := range q.Path {
		swapPath[i] = common.HexToAddress(token)
	}

	logger.Info("executing swap",
		zap.String("account", session.Account.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("minimum_out", minOut.String()),
		zap.Int("hops", len(swapPath)-1),
	)

	executor := swap.NewExecutor(chainClient, routerAddr, cfg.Deadline, logger)

	var tx interface{ Hash() common.Hash }
	if strings.EqualFold(path[0], model.NativeSentinel) {
		tx, err = executor.SwapExactNative(ctx, session, swapPath, amountIn, minOut)
	} else {
		tx, err = executor.SwapExactTokens(ctx, session, swapPath, amountIn, minOut)
	}
	if err != nil {
		return err
	}

	fmt.Println(tx.Hash().Hex())
	return nil
}
