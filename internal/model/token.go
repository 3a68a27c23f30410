package model

import "strings"

// NativeSentinel is the canonical all-zero address used to represent the
// chain's native asset. It is never an on-chain contract; callers must
// translate it to the wrapped twin before any pool lookup.
const NativeSentinel = "0x0000000000000000000000000000000000000000"

// DefaultDecimals is assumed when a token's decimals are unknown.
const DefaultDecimals uint8 = 18

// Token identifies a fungible asset.
type Token struct {
	Address        string `json:"address"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Decimals       uint8  `json:"decimals"`
	IsNative       bool   `json:"is_native,omitempty"`
	WrappedAddress string `json:"wrapped_address,omitempty"`
}

// Key returns the lowercased address used for map lookups.
func (t Token) Key() string {
	return strings.ToLower(t.Address)
}

// IsSentinel reports whether the token is the native-asset placeholder.
func (t Token) IsSentinel() bool {
	return t.Key() == NativeSentinel
}
