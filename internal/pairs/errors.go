package pairs

import "errors"

var ErrNoLiquidityPool = errors.New("no liquidity pool for token pair")
