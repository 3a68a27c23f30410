package indexer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const pairsBody = `{
  "data": {
    "pairs": [
      {
        "id": "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
        "reserve0": "1000000",
        "reserve1": "2000000",
        "reserveUSD": "5000.5",
        "token0": {"id": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "name": "USD Coin", "decimals": "6"},
        "token1": {"id": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "symbol": "WETH", "name": "Wrapped Ether", "decimals": "18"}
      }
    ]
  }
}`

func newClient(t *testing.T, endpoints ...string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		Endpoints:     endpoints,
		PerTryTimeout: 2 * time.Second,
		RetryBackoff:  10 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestFetchPoolsParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(pairsBody))
	}))
	defer srv.Close()

	pools, err := newClient(t, srv.URL).FetchPools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(pools))
	}

	pool := pools[0]
	if pool.Address != "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc" {
		t.Fatalf("address not lowercased: %s", pool.Address)
	}
	if pool.LiquidityUSD != 5000.5 {
		t.Fatalf("liquidity mismatch: %f", pool.LiquidityUSD)
	}
	if pool.Token0.Decimals != 6 || pool.Token1.Decimals != 18 {
		t.Fatalf("decimals mismatch: %d/%d", pool.Token0.Decimals, pool.Token1.Decimals)
	}
	if pool.Reserve0 != "1000000" || pool.Reserve1 != "2000000" {
		t.Fatalf("reserves mismatch: %s/%s", pool.Reserve0, pool.Reserve1)
	}
}

func TestFetchPoolsDefaultsUnknownDecimals(t *testing.T) {
	body := `{"data": {"pairs": [{
		"id": "0x1111111111111111111111111111111111111111",
		"reserve0": "1", "reserve1": "1", "reserveUSD": "1",
		"token0": {"id": "0xaa", "symbol": "A", "name": "A", "decimals": ""},
		"token1": {"id": "0xbb", "symbol": "B", "name": "B", "decimals": "18"}
	}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	pools, err := newClient(t, srv.URL).FetchPools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pools[0].Token0.Decimals != 18 {
		t.Fatalf("expected default decimals 18, got %d", pools[0].Token0.Decimals)
	}
}

func TestFetchPoolsRacesEndpoints(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pairsBody))
	}))
	defer good.Close()

	pools, err := newClient(t, bad.URL, good.URL).FetchPools(context.Background())
	if err != nil {
		t.Fatalf("expected the healthy endpoint to win: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(pools))
	}
}

func TestFetchPoolsFailsWhenAllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, srv.URL).FetchPools(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("got %v, want %v", err, ErrFetchFailed)
	}
}

func TestFetchPoolsSurfacesQueryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "rate limited"}]}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).FetchPools(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("got %v, want %v", err, ErrFetchFailed)
	}
}

func TestFetchPoolsRetriesBeforeFailing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(pairsBody))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		Endpoints:     []string{srv.URL},
		MaxRetries:    2,
		RetryBackoff:  5 * time.Millisecond,
		PerTryTimeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.FetchPools(context.Background()); err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}
