package indexer

import (
	"strconv"
	"strings"

	"swapScope/internal/model"
)

// Wire types for the indexer's query API. All numeric fields arrive as
// decimal strings.
type tokenEntry struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals string `json:"decimals"`
}

type pairEntry struct {
	ID         string     `json:"id"`
	Reserve0   string     `json:"reserve0"`
	Reserve1   string     `json:"reserve1"`
	ReserveUSD string     `json:"reserveUSD"`
	Token0     tokenEntry `json:"token0"`
	Token1     tokenEntry `json:"token1"`
}

type pairsResponse struct {
	Data struct {
		Pairs []pairEntry `json:"pairs"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e tokenEntry) toModel() model.Token {
	decimals := model.DefaultDecimals
	if parsed, err := strconv.ParseUint(e.Decimals, 10, 8); err == nil {
		decimals = uint8(parsed)
	}
	return model.Token{
		Address:  strings.ToLower(e.ID),
		Symbol:   e.Symbol,
		Name:     e.Name,
		Decimals: decimals,
	}
}

func (e pairEntry) toModel() model.Pool {
	liquidity, err := strconv.ParseFloat(e.ReserveUSD, 64)
	if err != nil {
		liquidity = 0
	}
	return model.Pool{
		Address:      strings.ToLower(e.ID),
		Token0:       e.Token0.toModel(),
		Token1:       e.Token1.toModel(),
		Reserve0:     e.Reserve0,
		Reserve1:     e.Reserve1,
		LiquidityUSD: liquidity,
	}
}
