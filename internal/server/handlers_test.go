package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"swapScope/internal/addr"
	"swapScope/internal/model"
	"swapScope/internal/pairs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQuoter struct {
	quote model.Quote
	err   error
	pair  common.Address
}

func (f *fakeQuoter) ExactIn(_ context.Context, path []string, amountIn *big.Int, slippageBps uint64) (model.Quote, error) {
	if f.err != nil {
		return model.Quote{}, f.err
	}
	q := f.quote
	q.Path = path
	q.AmountIn = amountIn.String()
	q.SlippageBps = slippageBps
	return q, nil
}

func (f *fakeQuoter) ExactOut(_ context.Context, path []string, amountOut *big.Int, slippageBps uint64) (model.Quote, error) {
	if f.err != nil {
		return model.Quote{}, f.err
	}
	q := f.quote
	q.Path = path
	q.AmountOut = amountOut.String()
	q.SlippageBps = slippageBps
	return q, nil
}

func (f *fakeQuoter) PairAddress(tokenA, tokenB string) (common.Address, error) {
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return common.Address{}, addr.ErrInvalidAddress
	}
	return f.pair, nil
}

type fakeGraph struct {
	pools []model.Pool
	graph pairs.Graph
	err   error
}

func (f *fakeGraph) Graph(_ context.Context) (pairs.Graph, error) {
	return f.graph, f.err
}

func (f *fakeGraph) Pools(_ context.Context) ([]model.Pool, error) {
	return f.pools, f.err
}

func (f *fakeGraph) CanSwap(_ context.Context, tokenIn, tokenOut string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.graph.CanSwap(tokenIn, tokenOut), nil
}

const (
	tokenA = "0x00000000000000000000000000000000000000aa"
	tokenB = "0x00000000000000000000000000000000000000bb"
)

func newTestRouter(quoter *fakeQuoter, graph *fakeGraph) *gin.Engine {
	if quoter == nil {
		quoter = &fakeQuoter{}
	}
	if graph == nil {
		graph = &fakeGraph{graph: pairs.Graph{}}
	}
	return New(quoter, graph, nil).Router()
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)

	body := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := doRequest(t, newTestRouter(nil, nil), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body: %v", body)
	}
}

func TestGetQuoteExactIn(t *testing.T) {
	quoter := &fakeQuoter{quote: model.Quote{AmountOut: "1992", PriceImpactPct: "0.4"}}
	router := newTestRouter(quoter, nil)

	rec, body := doRequest(t, router,
		fmt.Sprintf("/v1/quote?token_in=%s&token_out=%s&amount=1000&slippage_bps=50", tokenA, tokenB))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %v", rec.Code, body)
	}
	if body["amount_out"] != "1992" {
		t.Fatalf("amount_out: got %v", body["amount_out"])
	}
	if body["amount_in"] != "1000" {
		t.Fatalf("amount_in: got %v", body["amount_in"])
	}
	if body["slippage_bps"] != float64(50) {
		t.Fatalf("slippage_bps: got %v", body["slippage_bps"])
	}
}

func TestGetQuoteBadRequests(t *testing.T) {
	router := newTestRouter(nil, nil)

	paths := []string{
		"/v1/quote",
		"/v1/quote?token_in=" + tokenA + "&amount=1000",
		fmt.Sprintf("/v1/quote?token_in=%s&token_out=%s&amount=abc", tokenA, tokenB),
		fmt.Sprintf("/v1/quote?token_in=%s&token_out=%s&amount=-1", tokenA, tokenB),
		fmt.Sprintf("/v1/quote?token_in=%s&token_out=%s&amount=1&swap_mode=Sideways", tokenA, tokenB),
	}
	for _, path := range paths {
		if rec, _ := doRequest(t, router, path); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", path, rec.Code)
		}
	}
}

func TestGetQuoteNoPoolIs404(t *testing.T) {
	quoter := &fakeQuoter{err: pairs.ErrNoLiquidityPool}
	router := newTestRouter(quoter, nil)

	rec, _ := doRequest(t, router,
		fmt.Sprintf("/v1/quote?token_in=%s&token_out=%s&amount=1000", tokenA, tokenB))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestGetQuotePathParam(t *testing.T) {
	quoter := &fakeQuoter{quote: model.Quote{AmountOut: "3968"}}
	router := newTestRouter(quoter, nil)

	rec, body := doRequest(t, router,
		fmt.Sprintf("/v1/quote?path=%s,%s,0x00000000000000000000000000000000000000cc&amount=1000", tokenA, tokenB))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %v", rec.Code, body)
	}
	path, ok := body["path"].([]interface{})
	if !ok || len(path) != 3 {
		t.Fatalf("path: got %v", body["path"])
	}
}

func TestGetPairs(t *testing.T) {
	pools := []model.Pool{{
		Address:      "0x00000000000000000000000000000000000000ab",
		Token0:       model.Token{Address: tokenA},
		Token1:       model.Token{Address: tokenB},
		LiquidityUSD: 5000,
	}}
	graph := &fakeGraph{pools: pools, graph: pairs.Build(pools, pairs.BuildConfig{})}

	rec, body := doRequest(t, newTestRouter(nil, graph), "/v1/pairs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body["count"] != float64(1) {
		t.Fatalf("count: got %v", body["count"])
	}
	if body["tokens"] != float64(2) {
		t.Fatalf("tokens: got %v", body["tokens"])
	}
}

func TestGetCanSwap(t *testing.T) {
	pools := []model.Pool{{
		Address:      "0x00000000000000000000000000000000000000ab",
		Token0:       model.Token{Address: tokenA},
		Token1:       model.Token{Address: tokenB},
		LiquidityUSD: 5000,
	}}
	graph := &fakeGraph{pools: pools, graph: pairs.Build(pools, pairs.BuildConfig{})}
	router := newTestRouter(nil, graph)

	rec, body := doRequest(t, router,
		fmt.Sprintf("/v1/pairs/canswap?token_in=%s&token_out=%s", tokenA, tokenB))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body["can_swap"] != true {
		t.Fatalf("can_swap: got %v", body["can_swap"])
	}

	rec, _ = doRequest(t, router, "/v1/pairs/canswap?token_in="+tokenA)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing param: got %d, want 400", rec.Code)
	}
}

func TestGetPairAddress(t *testing.T) {
	pair := common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	quoter := &fakeQuoter{pair: pair}
	router := newTestRouter(quoter, nil)

	rec, body := doRequest(t, router,
		fmt.Sprintf("/v1/address?token_a=%s&token_b=%s", tokenA, tokenB))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body["pair"] != "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc" {
		t.Fatalf("pair: got %v", body["pair"])
	}

	rec, _ = doRequest(t, router, "/v1/address?token_a=nonsense&token_b="+tokenB)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid address: got %d, want 400", rec.Code)
	}
}
