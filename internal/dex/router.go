package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Router builds calldata for the router's write functions. Transactions
// are assembled, signed, and broadcast by the swap layer; this type only
// owns the typed encoding.
type Router struct {
	address common.Address
}

func NewRouter(address common.Address) *Router {
	return &Router{address: address}
}

func (r *Router) Address() common.Address {
	return r.address
}

func (r *Router) pack(method string, args ...interface{}) ([]byte, error) {
	routerABI, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := routerABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// PackSwapExactTokensForTokens encodes an exact-input token-to-token swap.
func (r *Router) PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}

// PackSwapExactETHForTokens encodes an exact-input native-to-token swap.
// The input amount rides in the transaction value.
func (r *Router) PackSwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("swapExactETHForTokens", amountOutMin, path, to, deadline)
}

// PackSwapTokensForExactETH encodes an exact-output token-to-native swap.
func (r *Router) PackSwapTokensForExactETH(amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("swapTokensForExactETH", amountOut, amountInMax, path, to, deadline)
}

// PackAddLiquidity encodes a token/token liquidity provision.
func (r *Router) PackAddLiquidity(tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("addLiquidity", tokenA, tokenB, amountADesired, amountBDesired, amountAMin, amountBMin, to, deadline)
}

// PackAddLiquidityETH encodes a token/native liquidity provision. The
// native amount rides in the transaction value.
func (r *Router) PackAddLiquidityETH(token common.Address, amountTokenDesired, amountTokenMin, amountETHMin *big.Int, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("addLiquidityETH", token, amountTokenDesired, amountTokenMin, amountETHMin, to, deadline)
}

// PackRemoveLiquidity encodes a liquidity withdrawal.
func (r *Router) PackRemoveLiquidity(tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline *big.Int) ([]byte, error) {
	return r.pack("removeLiquidity", tokenA, tokenB, liquidity, amountAMin, amountBMin, to, deadline)
}
