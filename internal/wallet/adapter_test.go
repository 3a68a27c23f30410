package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type fakeSigner struct {
	account common.Address
}

func (f *fakeSigner) Address() common.Address { return f.account }

func (f *fakeSigner) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeConnector struct {
	accounts    []common.Address
	chainID     *big.Int
	accountsErr error
	switchErr   error
}

func (f *fakeConnector) Accounts(_ context.Context) ([]common.Address, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeConnector) ChainID(_ context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeConnector) Provider(_ context.Context) (*ethclient.Client, error) {
	// The adapter only carries the provider; a nil client is fine for
	// state-machine tests.
	return nil, nil
}

func (f *fakeConnector) Signer(_ context.Context) (Signer, error) {
	if len(f.accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return &fakeSigner{account: f.accounts[0]}, nil
}

func (f *fakeConnector) SwitchChain(_ context.Context, chainID *big.Int) error {
	if f.switchErr != nil {
		return f.switchErr
	}
	f.chainID = chainID
	return nil
}

var testAccount = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestConnectHappyPath(t *testing.T) {
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(1)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	session, err := adapter.Connect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Account != testAccount {
		t.Fatalf("account mismatch: %s", session.Account.Hex())
	}
	if adapter.State() != StateConnected || !adapter.IsConnected() {
		t.Fatalf("expected connected state, got %s", adapter.State())
	}
}

func TestConnectFailsWithoutAccounts(t *testing.T) {
	connector := &fakeConnector{chainID: big.NewInt(1)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	if _, err := adapter.Connect(context.Background()); !errors.Is(err, ErrNoAccounts) {
		t.Fatalf("got %v, want %v", err, ErrNoAccounts)
	}
	if adapter.State() != StateDisconnected {
		t.Fatalf("expected disconnected after failure, got %s", adapter.State())
	}
}

func TestUnsupportedChainIsConnectedButErrored(t *testing.T) {
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(999)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	_, err := adapter.Connect(context.Background())
	if !errors.Is(err, ErrUnsupportedChain) {
		t.Fatalf("got %v, want %v", err, ErrUnsupportedChain)
	}

	// Errored substate, not a disconnect: the connection is retained so a
	// chain switch can recover it.
	if adapter.State() != StateConnected {
		t.Fatalf("expected connected substate, got %s", adapter.State())
	}
	if adapter.IsConnected() {
		t.Fatalf("IsConnected must be false on an unsupported chain")
	}
	if _, err := adapter.Session(); !errors.Is(err, ErrUnsupportedChain) {
		t.Fatalf("Session: got %v, want %v", err, ErrUnsupportedChain)
	}
}

func TestSwitchChainRecoversUnsupportedChain(t *testing.T) {
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(999)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	if _, err := adapter.Connect(context.Background()); !errors.Is(err, ErrUnsupportedChain) {
		t.Fatalf("got %v, want %v", err, ErrUnsupportedChain)
	}
	if err := adapter.SwitchChain(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !adapter.IsConnected() {
		t.Fatalf("expected usable session after switch")
	}

	session, err := adapter.Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ChainID.Uint64() != 1 {
		t.Fatalf("chain id mismatch: %s", session.ChainID)
	}
}

func TestSwitchChainWhileDisconnected(t *testing.T) {
	adapter := NewAdapter(&fakeConnector{}, []uint64{1}, nil)

	if err := adapter.SwitchChain(context.Background(), 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v, want %v", err, ErrNotConnected)
	}
}

func TestDisconnect(t *testing.T) {
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(1)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	if _, err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	adapter.Disconnect()

	if adapter.State() != StateDisconnected {
		t.Fatalf("expected disconnected, got %s", adapter.State())
	}
	if _, err := adapter.Session(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v, want %v", err, ErrNotConnected)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(1)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	var events []EventType
	unsubscribe := adapter.Subscribe(func(event Event) {
		events = append(events, event.Type)
	})

	if _, err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	adapter.Disconnect()

	if len(events) != 2 || events[0] != EventConnected || events[1] != EventDisconnected {
		t.Fatalf("unexpected event sequence: %v", events)
	}

	unsubscribe()
	if _, err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("listener fired after unsubscribe: %v", events)
	}
}

func TestAccountsChangedRefreshesSession(t *testing.T) {
	next := common.HexToAddress("0x2222222222222222222222222222222222222222")
	connector := &fakeConnector{accounts: []common.Address{testAccount}, chainID: big.NewInt(1)}
	adapter := NewAdapter(connector, []uint64{1}, nil)

	if _, err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	connector.accounts = []common.Address{next}
	if err := adapter.OnAccountsChanged(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := adapter.Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Account != next {
		t.Fatalf("session not refreshed: %s", session.Account.Hex())
	}
}
