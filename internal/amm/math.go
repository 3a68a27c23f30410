// Package amm replicates the Uniswap V2 router's fixed-point integer
// arithmetic off-chain. The order of operations (multiply before divide,
// truncating division, the +1 correction in GetAmountIn) must match the
// on-chain computation bit for bit, or quotes drift from what the router
// would accept under identical reserves.
package amm

import "math/big"

// Swap fee is 0.3%: the input is scaled by 997/1000. Not configurable in
// this protocol version.
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
	one    = big.NewInt(1)
)

// GetAmountOut returns the output amount for swapping amountIn against a
// pool with the given reserves:
//
//	amountOut = floor(amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997))
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 || reserveOut == nil || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDen)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// GetAmountIn returns the input amount required to receive amountOut from a
// pool with the given reserves:
//
//	amountIn = floor(reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997)) + 1
//
// The +1 guarantees that feeding the result back into GetAmountOut yields
// at least amountOut.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 || reserveOut == nil || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, feeDen)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeMul)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, one), nil
}

// ReservePair holds the reserves of one hop along a swap path, input side
// first.
type ReservePair struct {
	ReserveIn  *big.Int
	ReserveOut *big.Int
}

// GetAmountsOut chains GetAmountOut across consecutive hops. The returned
// slice has len(hops)+1 entries; the first is amountIn, the last the final
// output.
func GetAmountsOut(amountIn *big.Int, hops []ReservePair) ([]*big.Int, error) {
	if len(hops) == 0 {
		return nil, ErrInvalidPath
	}

	amounts := make([]*big.Int, len(hops)+1)
	amounts[0] = amountIn
	for i, hop := range hops {
		out, err := GetAmountOut(amounts[i], hop.ReserveIn, hop.ReserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// GetAmountsIn chains GetAmountIn backwards across consecutive hops. The
// returned slice has len(hops)+1 entries; the first is the required input,
// the last is amountOut.
func GetAmountsIn(amountOut *big.Int, hops []ReservePair) ([]*big.Int, error) {
	if len(hops) == 0 {
		return nil, ErrInvalidPath
	}

	amounts := make([]*big.Int, len(hops)+1)
	amounts[len(hops)] = amountOut
	for i := len(hops) - 1; i >= 0; i-- {
		in, err := GetAmountIn(amounts[i+1], hops[i].ReserveIn, hops[i].ReserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i] = in
	}
	return amounts, nil
}
