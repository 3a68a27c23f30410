package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/model"
)

// ERC20 is a typed binding to one token contract.
type ERC20 struct {
	address common.Address
	chain   *chain.Client
}

func NewERC20(address common.Address, chainClient *chain.Client) *ERC20 {
	return &ERC20{address: address, chain: chainClient}
}

func (t *ERC20) Address() common.Address {
	return t.address
}

// Metadata fetches symbol, name, and decimals. Tokens with nonstandard or
// reverting metadata fields degrade to defaults rather than failing the
// lookup.
func (t *ERC20) Metadata(ctx context.Context, logger *zap.Logger) (model.Token, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	erc20, err := ERC20ABI()
	if err != nil {
		return model.Token{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	token := model.Token{
		Address:  t.address.Hex(),
		Decimals: model.DefaultDecimals,
	}

	if values, err := call(ctx, t.chain, t.address, erc20, "symbol"); err == nil {
		if symbol, err := asString(values[0]); err == nil {
			token.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", t.address.Hex()), zap.Error(err))
	}

	if values, err := call(ctx, t.chain, t.address, erc20, "name"); err == nil {
		if name, err := asString(values[0]); err == nil {
			token.Name = name
		}
	} else {
		logger.Debug("name call failed", zap.String("token", t.address.Hex()), zap.Error(err))
	}

	values, err := call(ctx, t.chain, t.address, erc20, "decimals")
	if err != nil {
		logger.Debug("decimals call failed, assuming 18", zap.String("token", t.address.Hex()), zap.Error(err))
		return token, nil
	}
	switch v := values[0].(type) {
	case uint8:
		token.Decimals = v
	case *big.Int:
		token.Decimals = uint8(v.Uint64())
	default:
		logger.Debug("unexpected decimals type", zap.String("token", t.address.Hex()))
	}

	return token, nil
}

// Decimals returns the token's decimals, defaulting to 18 on failure.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, t.chain, t.address, erc20, "decimals")
	if err != nil {
		return 0, err
	}
	if decimals, ok := values[0].(uint8); ok {
		return decimals, nil
	}
	return 0, fmt.Errorf("unexpected decimals type %T", values[0])
}

// TotalSupply returns the token's total supply.
func (t *ERC20) TotalSupply(ctx context.Context) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, t.chain, t.address, erc20, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("totalSupply: %w", err)
	}
	return supply, nil
}

// BalanceOf returns the token balance of an account.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, t.chain, t.address, erc20, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return balance, nil
}

// Allowance returns the spend allowance granted by owner to spender.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, t.chain, t.address, erc20, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	return allowance, nil
}

// PackApprove returns the calldata for approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}
