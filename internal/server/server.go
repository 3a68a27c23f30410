// Package server exposes quoting, pair-graph, and address derivation over
// HTTP.
package server

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"swapScope/internal/model"
	"swapScope/internal/pairs"
)

// Quoter computes swap quotes. Implemented by quote.Service.
type Quoter interface {
	ExactIn(ctx context.Context, path []string, amountIn *big.Int, slippageBps uint64) (model.Quote, error)
	ExactOut(ctx context.Context, path []string, amountOut *big.Int, slippageBps uint64) (model.Quote, error)
	PairAddress(tokenA, tokenB string) (common.Address, error)
}

// GraphSource serves the current pair graph. Implemented by pairs.Cache.
type GraphSource interface {
	Graph(ctx context.Context) (pairs.Graph, error)
	Pools(ctx context.Context) ([]model.Pool, error)
	CanSwap(ctx context.Context, tokenIn, tokenOut string) (bool, error)
}

// Server is the HTTP front of the module.
type Server struct {
	quoter Quoter
	graph  GraphSource
	logger *zap.Logger

	srv *http.Server
}

func New(quoter Quoter, graph GraphSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{quoter: quoter, graph: graph, logger: logger}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/quote", s.getQuote)
	v1.GET("/pairs", s.getPairs)
	v1.GET("/pairs/canswap", s.getCanSwap)
	v1.GET("/address", s.getPairAddress)

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("http server started", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
