package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
var BpsDenominator = big.NewInt(10000)

// PriceImpact compares the no-slippage linear quote
// (amountIn*reserveOut/reserveIn) against the actual GetAmountOut result
// and returns the relative loss as a percentage rounded to 2 decimal
// places.
func PriceImpact(amountIn, reserveIn, reserveOut *big.Int) (decimal.Decimal, error) {
	actual, err := GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return decimal.Zero, err
	}

	linear := decimal.NewFromBigInt(amountIn, 0).
		Mul(decimal.NewFromBigInt(reserveOut, 0)).
		Div(decimal.NewFromBigInt(reserveIn, 0))
	if linear.IsZero() {
		return decimal.Zero, nil
	}

	impact := linear.Sub(decimal.NewFromBigInt(actual, 0)).
		Div(linear).
		Mul(decimal.NewFromInt(100))
	return impact.Round(2), nil
}

// ApplySlippage adjusts an amount by a tolerance in integer basis points.
// With minimum=true it returns the minimum-output bound
// amount*(10000-bps)/10000, otherwise the maximum-input bound
// amount*(10000+bps)/10000. Division truncates.
func ApplySlippage(amount *big.Int, slippageBps uint64, minimum bool) *big.Int {
	if slippageBps > 10000 {
		slippageBps = 10000
	}

	scale := new(big.Int)
	if minimum {
		scale.Sub(BpsDenominator, new(big.Int).SetUint64(slippageBps))
	} else {
		scale.Add(BpsDenominator, new(big.Int).SetUint64(slippageBps))
	}

	adjusted := new(big.Int).Mul(amount, scale)
	return adjusted.Quo(adjusted, BpsDenominator)
}
