package server

import (
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"swapScope/internal/addr"
	"swapScope/internal/amm"
	"swapScope/internal/indexer"
	"swapScope/internal/metrics"
	"swapScope/internal/pairs"
)

type quoteRequest struct {
	TokenIn  string `form:"token_in"`
	TokenOut string `form:"token_out"`

	// Path is an optional comma-separated token list for multi-hop
	// quotes; when set it overrides token_in/token_out.
	Path string `form:"path"`

	Amount      string `form:"amount" binding:"required"`
	SwapMode    string `form:"swap_mode"`
	SlippageBps uint64 `form:"slippage_bps"`
}

func (r quoteRequest) tokenPath() []string {
	if r.Path != "" {
		parts := strings.Split(r.Path, ",")
		path := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				path = append(path, p)
			}
		}
		return path
	}
	if r.TokenIn == "" || r.TokenOut == "" {
		return nil
	}
	return []string{r.TokenIn, r.TokenOut}
}

func (s *Server) getQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters: " + err.Error()})
		return
	}

	path := req.tokenPath()
	if len(path) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_in and token_out (or a path) are required"})
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer"})
		return
	}

	mode := req.SwapMode
	if mode == "" {
		mode = "ExactIn"
	}

	start := time.Now()
	var err error
	var quote interface{}
	switch mode {
	case "ExactIn":
		quote, err = s.quoter.ExactIn(c.Request.Context(), path, amount, req.SlippageBps)
	case "ExactOut":
		quote, err = s.quoter.ExactOut(c.Request.Context(), path, amount, req.SlippageBps)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "swap_mode must be ExactIn or ExactOut"})
		return
	}
	metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.QuoteRequests.WithLabelValues(mode, "error").Inc()
		s.writeError(c, err)
		return
	}

	metrics.QuoteRequests.WithLabelValues(mode, "ok").Inc()
	c.JSON(http.StatusOK, quote)
}

func (s *Server) getPairs(c *gin.Context) {
	pools, err := s.graph.Pools(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	graph, err := s.graph.Graph(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	metrics.GraphPoolCount.Set(float64(len(pools)))
	metrics.GraphTokenCount.Set(float64(len(graph)))

	c.JSON(http.StatusOK, gin.H{
		"count":  len(pools),
		"tokens": len(graph),
		"pools":  pools,
	})
}

func (s *Server) getCanSwap(c *gin.Context) {
	tokenIn := c.Query("token_in")
	tokenOut := c.Query("token_out")
	if tokenIn == "" || tokenOut == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_in and token_out are required"})
		return
	}

	canSwap, err := s.graph.CanSwap(c.Request.Context(), tokenIn, tokenOut)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_in":  tokenIn,
		"token_out": tokenOut,
		"can_swap":  canSwap,
	})
}

func (s *Server) getPairAddress(c *gin.Context) {
	tokenA := c.Query("token_a")
	tokenB := c.Query("token_b")
	if tokenA == "" || tokenB == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_a and token_b are required"})
		return
	}

	pair, err := s.quoter.PairAddress(tokenA, tokenB)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_a": tokenA,
		"token_b": tokenB,
		"pair":    strings.ToLower(pair.Hex()),
	})
}

// writeError maps domain errors to HTTP statuses: bad input is 400, a
// missing pool is 404, an unreachable indexer is 502, anything else 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pairs.ErrNoLiquidityPool):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, addr.ErrInvalidAddress),
		errors.Is(err, amm.ErrInvalidPath),
		errors.Is(err, amm.ErrInsufficientInputAmount),
		errors.Is(err, amm.ErrInsufficientOutputAmount),
		errors.Is(err, amm.ErrInsufficientLiquidity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, indexer.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
