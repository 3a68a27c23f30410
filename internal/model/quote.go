package model

// Quote is an ephemeral computed swap result. Amounts are decimal strings
// in the token's native integer unit (scaled by 10^decimals).
type Quote struct {
	TokenIn        string   `json:"token_in"`
	TokenOut       string   `json:"token_out"`
	Path           []string `json:"path"`
	AmountIn       string   `json:"amount_in"`
	AmountOut      string   `json:"amount_out"`
	PriceImpactPct string   `json:"price_impact_pct"`

	// MinimumOut is set for exact-input quotes, MaximumIn for exact-output
	// quotes; both are slippage-adjusted bounds in basis points.
	MinimumOut string `json:"minimum_out,omitempty"`
	MaximumIn  string `json:"maximum_in,omitempty"`

	SlippageBps uint64 `json:"slippage_bps"`
}
