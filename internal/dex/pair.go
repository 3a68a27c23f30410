// Package dex provides statically-typed bindings for the factory, router,
// pair, and ERC-20 functions the module calls on chain.
package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain"
)

// Pair is a typed binding to one deployed pair contract.
type Pair struct {
	address common.Address
	chain   *chain.Client
}

func NewPair(address common.Address, chainClient *chain.Client) *Pair {
	return &Pair{address: address, chain: chainClient}
}

func (p *Pair) Address() common.Address {
	return p.address
}

// GetReserves returns the current reserves and the timestamp of the last
// block they changed in. Reserves mutate on every swap/mint/burn and must
// not be cached beyond a short window.
func (p *Pair) GetReserves(ctx context.Context) (reserve0, reserve1 *big.Int, blockTimestampLast uint32, err error) {
	pairABI, err := PairABI()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := call(ctx, p.chain, p.address, pairABI, "getReserves")
	if err != nil {
		return nil, nil, 0, err
	}
	if len(values) < 3 {
		return nil, nil, 0, fmt.Errorf("getReserves: expected 3 values, got %d", len(values))
	}

	reserve0, err = asBigInt(values[0])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err = asBigInt(values[1])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("reserve1: %w", err)
	}
	ts, ok := values[2].(uint32)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unexpected type %T for timestamp", values[2])
	}

	return reserve0, reserve1, ts, nil
}

// Token0 returns the canonically first token of the pair.
func (p *Pair) Token0(ctx context.Context) (common.Address, error) {
	return p.tokenAt(ctx, "token0")
}

// Token1 returns the canonically second token of the pair.
func (p *Pair) Token1(ctx context.Context) (common.Address, error) {
	return p.tokenAt(ctx, "token1")
}

func (p *Pair) tokenAt(ctx context.Context, method string) (common.Address, error) {
	pairABI, err := PairABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}
	values, err := call(ctx, p.chain, p.address, pairABI, method)
	if err != nil {
		return common.Address{}, err
	}
	address, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return address, nil
}

// TotalSupply returns the pair's LP token supply.
func (p *Pair) TotalSupply(ctx context.Context) (*big.Int, error) {
	pairABI, err := PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	values, err := call(ctx, p.chain, p.address, pairABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("totalSupply: %w", err)
	}
	return supply, nil
}
