// Package swap assembles, signs, and broadcasts router transactions on
// behalf of a connected wallet session.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/wallet"
)

// Executor sends swap and liquidity transactions through the router. Every
// amount bound (amountOutMin, amountInMax) is supplied by the caller, who
// computes it from a quote; the executor never re-quotes.
type Executor struct {
	chain    *chain.Client
	router   *dex.Router
	deadline time.Duration
	logger   *zap.Logger

	now func() time.Time
}

// NewExecutor creates an executor for one router deployment. deadline is
// how far in the future each transaction's router deadline is set.
func NewExecutor(chainClient *chain.Client, router common.Address, deadline time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deadline <= 0 {
		deadline = 20 * time.Minute
	}
	return &Executor{
		chain:    chainClient,
		router:   dex.NewRouter(router),
		deadline: deadline,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureAllowance checks the session account's allowance for the router on
// the given token and submits an approve transaction when it falls short.
// It returns the approve transaction, or nil when no approval was needed.
func (e *Executor) EnsureAllowance(ctx context.Context, session wallet.Session, token common.Address, amount *big.Int) (*types.Transaction, error) {
	allowance, err := dex.NewERC20(token, e.chain).Allowance(ctx, session.Account, e.router.Address())
	if err != nil {
		return nil, fmt.Errorf("allowance of %s: %w", token.Hex(), err)
	}
	if allowance.Cmp(amount) >= 0 {
		return nil, nil
	}

	data, err := dex.PackApprove(e.router.Address(), amount)
	if err != nil {
		return nil, err
	}
	tx, err := e.send(ctx, session, token, nil, data)
	if err != nil {
		return nil, fmt.Errorf("approve %s: %w", token.Hex(), err)
	}
	return tx, nil
}

// SwapExactTokens swaps a fixed input of path[0] for at least amountOutMin
// of the final path token, approving the router first when needed.
func (e *Executor) SwapExactTokens(ctx context.Context, session wallet.Session, path []common.Address, amountIn, amountOutMin *big.Int) (*types.Transaction, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("swap path needs at least 2 tokens, got %d", len(path))
	}
	if _, err := e.EnsureAllowance(ctx, session, path[0], amountIn); err != nil {
		return nil, err
	}

	data, err := e.router.PackSwapExactTokensForTokens(amountIn, amountOutMin, path, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), nil, data)
}

// SwapExactNative swaps a fixed amount of the native asset, carried in the
// transaction value, for at least amountOutMin of the final path token.
// path[0] must be the wrapped-native token.
func (e *Executor) SwapExactNative(ctx context.Context, session wallet.Session, path []common.Address, amountIn, amountOutMin *big.Int) (*types.Transaction, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("swap path needs at least 2 tokens, got %d", len(path))
	}
	data, err := e.router.PackSwapExactETHForTokens(amountOutMin, path, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), amountIn, data)
}

// SwapTokensForExactNative swaps at most amountInMax of path[0] for exactly
// amountOut of the native asset. The final path token must be the
// wrapped-native token.
func (e *Executor) SwapTokensForExactNative(ctx context.Context, session wallet.Session, path []common.Address, amountOut, amountInMax *big.Int) (*types.Transaction, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("swap path needs at least 2 tokens, got %d", len(path))
	}
	if _, err := e.EnsureAllowance(ctx, session, path[0], amountInMax); err != nil {
		return nil, err
	}

	data, err := e.router.PackSwapTokensForExactETH(amountOut, amountInMax, path, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), nil, data)
}

// AddLiquidity provisions a token/token pool, approving both tokens first
// when needed.
func (e *Executor) AddLiquidity(ctx context.Context, session wallet.Session, tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int) (*types.Transaction, error) {
	if _, err := e.EnsureAllowance(ctx, session, tokenA, amountADesired); err != nil {
		return nil, err
	}
	if _, err := e.EnsureAllowance(ctx, session, tokenB, amountBDesired); err != nil {
		return nil, err
	}

	data, err := e.router.PackAddLiquidity(tokenA, tokenB, amountADesired, amountBDesired, amountAMin, amountBMin, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), nil, data)
}

// AddLiquidityNative provisions a token/native pool. The native amount
// rides in the transaction value.
func (e *Executor) AddLiquidityNative(ctx context.Context, session wallet.Session, token common.Address, amountTokenDesired, amountTokenMin, amountNative, amountNativeMin *big.Int) (*types.Transaction, error) {
	if _, err := e.EnsureAllowance(ctx, session, token, amountTokenDesired); err != nil {
		return nil, err
	}

	data, err := e.router.PackAddLiquidityETH(token, amountTokenDesired, amountTokenMin, amountNativeMin, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), amountNative, data)
}

// RemoveLiquidity burns LP tokens of the tokenA/tokenB pool. The LP token
// itself needs router approval, so pair is the pool address holding the
// session's LP balance.
func (e *Executor) RemoveLiquidity(ctx context.Context, session wallet.Session, pair, tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int) (*types.Transaction, error) {
	if _, err := e.EnsureAllowance(ctx, session, pair, liquidity); err != nil {
		return nil, err
	}

	data, err := e.router.PackRemoveLiquidity(tokenA, tokenB, liquidity, amountAMin, amountBMin, session.Account, e.txDeadline())
	if err != nil {
		return nil, err
	}
	return e.send(ctx, session, e.router.Address(), nil, data)
}

func (e *Executor) txDeadline() *big.Int {
	return big.NewInt(e.now().Add(e.deadline).Unix())
}

// send assembles a legacy transaction, has the session sign it, and
// broadcasts it. A user-rejected signature surfaces unchanged: it is an
// outcome, not a failure.
func (e *Executor) send(ctx context.Context, session wallet.Session, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	if session.Signer == nil {
		return nil, wallet.ErrNotConnected
	}
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := e.chain.PendingNonceAt(ctx, session.Account)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := e.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gasLimit, err := e.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:  session.Account,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := session.Signer.SignTx(tx, session.ChainID)
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("sign: %w", err)
	}
	if err := e.chain.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}

	e.logger.Info("transaction sent",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
	)
	return signed, nil
}
