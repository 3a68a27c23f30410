package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swapScope/internal/addr"
)

func runDerive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tokenA, _ := cmd.Flags().GetString("token-a")
	tokenB, _ := cmd.Flags().GetString("token-b")
	if tokenA == "" || tokenB == "" {
		return fmt.Errorf("token-a and token-b are required")
	}

	pair, err := addr.PairForHex(cfg.Factory, tokenA, tokenB, cfg.InitCodeHash)
	if err != nil {
		return err
	}

	fmt.Println(strings.ToLower(pair.Hex()))
	return nil
}
