package model

import "time"

// Pool describes a two-asset liquidity pool as reported by the indexer.
// Token order is canonical: Token0.Address sorts below Token1.Address,
// matching the on-chain factory convention.
type Pool struct {
	Address      string  `json:"address"`
	Token0       Token   `json:"token0"`
	Token1       Token   `json:"token1"`
	Reserve0     string  `json:"reserve0"`
	Reserve1     string  `json:"reserve1"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// PoolSnapshot is one fetched pool list with its fetch time, used for
// cache freshness checks and persisted as the stale-fallback copy.
type PoolSnapshot struct {
	ChainID   uint64    `json:"chain_id"`
	FetchedAt time.Time `json:"fetched_at"`
	Pools     []Pool    `json:"pools"`
}
