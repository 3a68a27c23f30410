package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain"
)

// Factory is a typed binding to the pair factory contract.
type Factory struct {
	address common.Address
	chain   *chain.Client
}

func NewFactory(address common.Address, chainClient *chain.Client) *Factory {
	return &Factory{address: address, chain: chainClient}
}

// GetPair returns the deployed pair address for two tokens, or the zero
// address when no pair exists.
func (f *Factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := call(ctx, f.chain, f.address, factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("getPair: %w", err)
	}
	return pair, nil
}
