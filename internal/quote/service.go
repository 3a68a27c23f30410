// Package quote computes swap quotes off chain from live pool reserves,
// replicating the on-chain router's integer arithmetic exactly.
package quote

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapScope/internal/addr"
	"swapScope/internal/amm"
	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/model"
	"swapScope/internal/pairs"
)

// Deployment identifies one factory deployment. The init-code-hash differs
// between chains and forks and always comes from configuration.
type Deployment struct {
	Factory       common.Address
	WrappedNative common.Address
	InitCodeHash  common.Hash
}

// Service quotes swaps against one deployment. Quotes are ephemeral:
// reserves mutate on every swap, so nothing here is cached.
type Service struct {
	chain       *chain.Client
	deploy      Deployment
	slippageBps uint64
	logger      *zap.Logger
}

// NewService creates a quoting service. defaultSlippageBps applies whenever
// a caller passes zero slippage.
func NewService(chainClient *chain.Client, deploy Deployment, defaultSlippageBps uint64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chain:       chainClient,
		deploy:      deploy,
		slippageBps: defaultSlippageBps,
		logger:      logger,
	}
}

// hop is one pool traversal with reserves oriented in the swap direction.
type hop struct {
	pair       common.Address
	reserveIn  *big.Int
	reserveOut *big.Int
}

// ExactIn quotes swapping a fixed input amount along the token path. The
// path holds token addresses; the native sentinel is accepted at either end
// and translated to the wrapped twin before any pool lookup.
func (s *Service) ExactIn(ctx context.Context, path []string, amountIn *big.Int, slippageBps uint64) (model.Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return model.Quote{}, amm.ErrInsufficientInputAmount
	}
	tokens, err := s.resolvePath(path)
	if err != nil {
		return model.Quote{}, err
	}
	hops, err := s.pathReserves(ctx, tokens)
	if err != nil {
		return model.Quote{}, err
	}

	amount := amountIn
	for _, h := range hops {
		amount, err = amm.GetAmountOut(amount, h.reserveIn, h.reserveOut)
		if err != nil {
			return model.Quote{}, err
		}
	}
	amountOut := amount

	bps := s.effectiveSlippage(slippageBps)
	quote := s.buildQuote(path, tokens, hops, amountIn, amountOut, bps)
	quote.MinimumOut = amm.ApplySlippage(amountOut, bps, true).String()

	s.logger.Debug("exact-in quote",
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
		zap.Int("hops", len(hops)),
	)
	return quote, nil
}

// ExactOut quotes the input required to receive a fixed output amount along
// the token path.
func (s *Service) ExactOut(ctx context.Context, path []string, amountOut *big.Int, slippageBps uint64) (model.Quote, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return model.Quote{}, amm.ErrInsufficientOutputAmount
	}
	tokens, err := s.resolvePath(path)
	if err != nil {
		return model.Quote{}, err
	}
	hops, err := s.pathReserves(ctx, tokens)
	if err != nil {
		return model.Quote{}, err
	}

	amount := amountOut
	for i := len(hops) - 1; i >= 0; i-- {
		amount, err = amm.GetAmountIn(amount, hops[i].reserveIn, hops[i].reserveOut)
		if err != nil {
			return model.Quote{}, err
		}
	}
	amountIn := amount

	bps := s.effectiveSlippage(slippageBps)
	quote := s.buildQuote(path, tokens, hops, amountIn, amountOut, bps)
	quote.MaximumIn = amm.ApplySlippage(amountIn, bps, false).String()

	s.logger.Debug("exact-out quote",
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
		zap.Int("hops", len(hops)),
	)
	return quote, nil
}

// PairAddress derives the deployed pool address for two tokens without a
// network call. The native sentinel maps to the wrapped twin first.
func (s *Service) PairAddress(tokenA, tokenB string) (common.Address, error) {
	a, err := s.resolveToken(tokenA)
	if err != nil {
		return common.Address{}, err
	}
	b, err := s.resolveToken(tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return addr.PairFor(s.deploy.Factory, a, b, s.deploy.InitCodeHash)
}

func (s *Service) effectiveSlippage(slippageBps uint64) uint64 {
	if slippageBps == 0 {
		return s.slippageBps
	}
	return slippageBps
}

func (s *Service) resolveToken(raw string) (common.Address, error) {
	if strings.EqualFold(raw, model.NativeSentinel) {
		if s.deploy.WrappedNative == (common.Address{}) {
			return common.Address{}, fmt.Errorf("native token: %w", addr.ErrInvalidAddress)
		}
		return s.deploy.WrappedNative, nil
	}
	return addr.Parse(raw)
}

// resolvePath validates the token path and translates the native sentinel.
// Adjacent duplicates are rejected: native-to-wrapped is a wrap, not a
// swap, and collapses to a duplicate here.
func (s *Service) resolvePath(path []string) ([]common.Address, error) {
	if len(path) < 2 {
		return nil, amm.ErrInvalidPath
	}
	tokens := make([]common.Address, len(path))
	for i, raw := range path {
		token, err := s.resolveToken(raw)
		if err != nil {
			return nil, fmt.Errorf("path[%d]: %w", i, err)
		}
		if i > 0 && token == tokens[i-1] {
			return nil, amm.ErrInvalidPath
		}
		tokens[i] = token
	}
	return tokens, nil
}

func (s *Service) pathReserves(ctx context.Context, tokens []common.Address) ([]hop, error) {
	hops := make([]hop, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		h, err := s.hopReserves(ctx, tokens[i], tokens[i+1])
		if err != nil {
			return nil, err
		}
		hops[i] = h
	}
	return hops, nil
}

// hopReserves derives the pool address for one hop and reads its reserves,
// oriented so reserveIn belongs to tokenIn. When the read fails the factory
// is consulted: a zero getPair result means the pool does not exist.
func (s *Service) hopReserves(ctx context.Context, tokenIn, tokenOut common.Address) (hop, error) {
	pairAddr, err := addr.PairFor(s.deploy.Factory, tokenIn, tokenOut, s.deploy.InitCodeHash)
	if err != nil {
		return hop{}, err
	}

	reserve0, reserve1, _, err := dex.NewPair(pairAddr, s.chain).GetReserves(ctx)
	if err != nil {
		deployed, factoryErr := dex.NewFactory(s.deploy.Factory, s.chain).GetPair(ctx, tokenIn, tokenOut)
		if factoryErr == nil && deployed == (common.Address{}) {
			return hop{}, fmt.Errorf("%s/%s: %w", tokenIn.Hex(), tokenOut.Hex(), pairs.ErrNoLiquidityPool)
		}
		return hop{}, fmt.Errorf("reserves of %s: %w", pairAddr.Hex(), err)
	}

	token0, _ := addr.SortTokens(tokenIn, tokenOut)
	if tokenIn == token0 {
		return hop{pair: pairAddr, reserveIn: reserve0, reserveOut: reserve1}, nil
	}
	return hop{pair: pairAddr, reserveIn: reserve1, reserveOut: reserve0}, nil
}

func (s *Service) buildQuote(raw []string, tokens []common.Address, hops []hop, amountIn, amountOut *big.Int, slippageBps uint64) model.Quote {
	resolved := make([]string, len(tokens))
	for i, token := range tokens {
		resolved[i] = strings.ToLower(token.Hex())
	}
	return model.Quote{
		TokenIn:        raw[0],
		TokenOut:       raw[len(raw)-1],
		Path:           resolved,
		AmountIn:       amountIn.String(),
		AmountOut:      amountOut.String(),
		PriceImpactPct: pathImpact(amountIn, hops, amountOut).String(),
		SlippageBps:    slippageBps,
	}
}

// pathImpact compares the execution price against the chained spot price:
// the linear quote is amountIn scaled by every hop's reserve ratio, and the
// impact is the relative shortfall of the actual output, as a percentage
// rounded to 2 decimal places.
func pathImpact(amountIn *big.Int, hops []hop, amountOut *big.Int) decimal.Decimal {
	linear := decimal.NewFromBigInt(amountIn, 0)
	for _, h := range hops {
		linear = linear.
			Mul(decimal.NewFromBigInt(h.reserveOut, 0)).
			Div(decimal.NewFromBigInt(h.reserveIn, 0))
	}
	if linear.IsZero() {
		return decimal.Zero
	}
	return linear.Sub(decimal.NewFromBigInt(amountOut, 0)).
		Div(linear).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
