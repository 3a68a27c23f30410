package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// KeyedConnector is a Connector backed by a raw private key and an RPC
// endpoint, for CLI and headless use. Browser-extension and WalletConnect
// sessions plug in through the same Connector interface.
type KeyedConnector struct {
	rpcURL     string
	privateKey *ecdsa.PrivateKey
	account    common.Address

	client *ethclient.Client
}

func NewKeyedConnector(rpcURL, privateKeyHex string) (*KeyedConnector, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyedConnector{
		rpcURL:     rpcURL,
		privateKey: privateKey,
		account:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

func (c *KeyedConnector) Accounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{c.account}, nil
}

func (c *KeyedConnector) ChainID(ctx context.Context) (*big.Int, error) {
	provider, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ChainID(ctx)
}

func (c *KeyedConnector) Provider(ctx context.Context) (*ethclient.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	rpcClient, err := rpc.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	c.client = ethclient.NewClient(rpcClient)
	return c.client, nil
}

func (c *KeyedConnector) Signer(_ context.Context) (Signer, error) {
	return &keyedSigner{privateKey: c.privateKey, account: c.account}, nil
}

// SwitchChain is unsupported for a fixed-endpoint connector: the endpoint
// pins the chain.
func (c *KeyedConnector) SwitchChain(_ context.Context, chainID *big.Int) error {
	return fmt.Errorf("keyed connector cannot switch to chain %s: endpoint is fixed", chainID)
}

func (c *KeyedConnector) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

type keyedSigner struct {
	privateKey *ecdsa.PrivateKey
	account    common.Address
}

func (s *keyedSigner) Address() common.Address {
	return s.account
}

func (s *keyedSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
}

var _ Connector = (*KeyedConnector)(nil)
