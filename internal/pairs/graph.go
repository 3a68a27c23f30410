// Package pairs builds and caches the token swappability graph from
// indexer-reported pools.
package pairs

import (
	"sort"
	"strings"

	"swapScope/internal/model"
)

// Graph maps a lowercased token address to the set of token addresses it
// shares a direct pool with. The relation is symmetric.
type Graph map[string]map[string]struct{}

// BuildConfig controls which pools survive into the graph.
type BuildConfig struct {
	// MinLiquidityUSD discards pools whose reported liquidity is strictly
	// below the threshold.
	MinLiquidityUSD float64

	// Allowlist is the curated verified-token set, keyed by lowercased
	// address. Pools touching a token outside the set are discarded. A nil
	// or empty allowlist admits every token.
	Allowlist map[string]struct{}
}

// NewAllowlist normalizes a list of addresses into an allowlist set.
func NewAllowlist(addresses []string) map[string]struct{} {
	if len(addresses) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if address == "" {
			continue
		}
		set[address] = struct{}{}
	}
	return set
}

// Build filters the pool list and produces the adjacency map. Filter order
// matters for observability, not correctness: liquidity first, then the
// allowlist.
func Build(pools []model.Pool, cfg BuildConfig) Graph {
	graph := make(Graph)

	for _, pool := range pools {
		if pool.LiquidityUSD < cfg.MinLiquidityUSD {
			continue
		}

		token0 := pool.Token0.Key()
		token1 := pool.Token1.Key()
		if token0 == "" || token1 == "" || token0 == token1 {
			continue
		}
		if len(cfg.Allowlist) > 0 {
			if _, ok := cfg.Allowlist[token0]; !ok {
				continue
			}
			if _, ok := cfg.Allowlist[token1]; !ok {
				continue
			}
		}

		graph.insert(token0, token1)
		graph.insert(token1, token0)
	}

	return graph
}

func (g Graph) insert(token, neighbor string) {
	set, ok := g[token]
	if !ok {
		set = make(map[string]struct{})
		g[token] = set
	}
	set[neighbor] = struct{}{}
}

// CanSwap reports whether a direct pool exists between the two tokens.
// Same-token queries are always false.
func (g Graph) CanSwap(tokenIn, tokenOut string) bool {
	in := strings.ToLower(tokenIn)
	out := strings.ToLower(tokenOut)
	if in == out {
		return false
	}
	_, ok := g[in][out]
	return ok
}

// Neighbors returns the sorted neighbor list for a token, or nil when the
// token has no pools.
func (g Graph) Neighbors(token string) []string {
	set, ok := g[strings.ToLower(token)]
	if !ok {
		return nil
	}
	neighbors := make([]string, 0, len(set))
	for neighbor := range set {
		neighbors = append(neighbors, neighbor)
	}
	sort.Strings(neighbors)
	return neighbors
}

// Tokens returns the sorted list of tokens with at least one pool.
func (g Graph) Tokens() []string {
	tokens := make([]string, 0, len(g))
	for token := range g {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
