// Package wallet normalizes a wallet-connector session into the uniform
// account/chain/provider/signer view the rest of the module consumes.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrUnsupportedChain = errors.New("connected chain is not supported")
	ErrNotConnected     = errors.New("wallet is not connected")
	ErrNoAccounts       = errors.New("connector exposed no accounts")

	// ErrUserRejected marks a signing request the user declined. It is an
	// informational outcome, not a system failure, and must not be
	// presented as one.
	ErrUserRejected = errors.New("user rejected the request")
)

// Signer signs transactions for one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Connector is the raw session exposed by an underlying wallet-connection
// library. This package only consumes the interface; it never implements a
// wallet itself.
type Connector interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Provider(ctx context.Context) (*ethclient.Client, error)
	Signer(ctx context.Context) (Signer, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
}

// EventType identifies a session lifecycle change.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventAccountsChanged
	EventChainChanged
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventAccountsChanged:
		return "accounts_changed"
	case EventChainChanged:
		return "chain_changed"
	default:
		return "unknown"
	}
}

// Event describes one session lifecycle change.
type Event struct {
	Type    EventType
	Account common.Address
	ChainID *big.Int
}
