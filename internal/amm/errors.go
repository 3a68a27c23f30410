package amm

import "errors"

var (
	ErrInsufficientInputAmount  = errors.New("insufficient input amount")
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	ErrInsufficientLiquidity    = errors.New("insufficient liquidity")
	ErrInvalidPath              = errors.New("path must contain at least one hop")
)
