// Package addr computes pool deployment addresses deterministically,
// replicating the factory's CREATE2 scheme so a pair address can be known
// without any network call.
package addr

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidAddress = errors.New("invalid address")

// Parse validates a 20-byte hex address and returns it in checksummed form.
// The all-zero native sentinel is rejected: it never designates a contract.
func Parse(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	parsed := common.HexToAddress(s)
	if parsed == (common.Address{}) {
		return common.Address{}, ErrInvalidAddress
	}
	return parsed, nil
}

// SortTokens returns the two token addresses in the factory's canonical
// order: byte-wise lexicographically smaller address first. Reserve0
// belongs to the first returned token.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// PairFor derives the pool address for a token pair under the given factory
// and init-code-hash. The hash differs between deployments and forks, so it
// is always supplied by configuration. Argument order of the tokens does
// not matter; ordering is canonicalized before hashing.
func PairFor(factory, tokenA, tokenB common.Address, initCodeHash common.Hash) (common.Address, error) {
	if factory == (common.Address{}) || tokenA == (common.Address{}) || tokenB == (common.Address{}) {
		return common.Address{}, ErrInvalidAddress
	}
	if tokenA == tokenB {
		return common.Address{}, ErrInvalidAddress
	}

	token0, token1 := SortTokens(tokenA, tokenB)
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes()), nil
}

// PairForHex is PairFor over raw hex strings, validating each input before
// derivation.
func PairForHex(factory, tokenA, tokenB, initCodeHash string) (common.Address, error) {
	factoryAddr, err := Parse(factory)
	if err != nil {
		return common.Address{}, err
	}
	a, err := Parse(tokenA)
	if err != nil {
		return common.Address{}, err
	}
	b, err := Parse(tokenB)
	if err != nil {
		return common.Address{}, err
	}

	hashBytes := common.FromHex(initCodeHash)
	if len(hashBytes) != common.HashLength {
		return common.Address{}, ErrInvalidAddress
	}

	return PairFor(factoryAddr, a, b, common.BytesToHash(hashBytes))
}
