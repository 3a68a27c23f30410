package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// State is the adapter's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Session is the uniform view over a connected wallet.
type Session struct {
	Account  common.Address
	ChainID  *big.Int
	Provider *ethclient.Client
	Signer   Signer
}

// Adapter drives the Disconnected -> Connecting -> Connected state machine
// over a Connector and publishes lifecycle events to subscribers. An
// unsupported chain leaves the adapter Connected but errored: the session
// is retained so a chain switch can recover it, but Session() refuses to
// hand it out. There is no automatic reconnect; failures surface to the
// caller immediately.
type Adapter struct {
	connector Connector
	supported map[uint64]struct{}
	logger    *zap.Logger

	mu       sync.RWMutex
	state    State
	session  Session
	chainErr error

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func NewAdapter(connector Connector, supportedChainIDs []uint64, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	supported := make(map[uint64]struct{}, len(supportedChainIDs))
	for _, id := range supportedChainIDs {
		supported[id] = struct{}{}
	}
	return &Adapter{
		connector: connector,
		supported: supported,
		logger:    logger,
		subs:      make(map[int]func(Event)),
	}
}

// Connect establishes the session. On an unsupported chain it returns
// ErrUnsupportedChain while keeping the connection alive.
func (a *Adapter) Connect(ctx context.Context) (Session, error) {
	a.setState(StateConnecting)

	session, err := a.buildSession(ctx)
	if err != nil {
		a.setState(StateDisconnected)
		return Session{}, err
	}

	a.mu.Lock()
	a.state = StateConnected
	a.session = session
	a.chainErr = a.checkChain(session.ChainID)
	chainErr := a.chainErr
	a.mu.Unlock()

	a.logger.Info("wallet connected",
		zap.String("account", session.Account.Hex()),
		zap.String("chain_id", session.ChainID.String()),
	)
	a.emit(Event{Type: EventConnected, Account: session.Account, ChainID: session.ChainID})

	if chainErr != nil {
		return Session{}, chainErr
	}
	return session, nil
}

// Disconnect tears the session down.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	account := a.session.Account
	a.state = StateDisconnected
	a.session = Session{}
	a.chainErr = nil
	a.mu.Unlock()

	a.logger.Info("wallet disconnected", zap.String("account", account.Hex()))
	a.emit(Event{Type: EventDisconnected, Account: account})
}

// SwitchChain asks the connector to move to another chain and rebuilds the
// provider/signer pair. The adapter passes through Connecting while the
// session is rebuilt.
func (a *Adapter) SwitchChain(ctx context.Context, chainID uint64) error {
	a.mu.RLock()
	state := a.state
	a.mu.RUnlock()
	if state == StateDisconnected {
		return ErrNotConnected
	}

	a.setState(StateConnecting)
	target := new(big.Int).SetUint64(chainID)
	if err := a.connector.SwitchChain(ctx, target); err != nil {
		// The old session is gone either way; callers must reconnect.
		a.setState(StateDisconnected)
		return err
	}

	session, err := a.buildSession(ctx)
	if err != nil {
		a.setState(StateDisconnected)
		return err
	}

	a.mu.Lock()
	a.state = StateConnected
	a.session = session
	a.chainErr = a.checkChain(session.ChainID)
	chainErr := a.chainErr
	a.mu.Unlock()

	a.emit(Event{Type: EventChainChanged, Account: session.Account, ChainID: session.ChainID})
	return chainErr
}

// OnAccountsChanged refreshes the session after the connector reports an
// account change. Intended to be wired to the connector library's own
// notification mechanism.
func (a *Adapter) OnAccountsChanged(ctx context.Context) error {
	a.mu.RLock()
	state := a.state
	a.mu.RUnlock()
	if state == StateDisconnected {
		return ErrNotConnected
	}

	session, err := a.buildSession(ctx)
	if err != nil {
		a.setState(StateDisconnected)
		return err
	}

	a.mu.Lock()
	a.state = StateConnected
	a.session = session
	a.mu.Unlock()

	a.emit(Event{Type: EventAccountsChanged, Account: session.Account, ChainID: session.ChainID})
	return nil
}

// Session returns the current session. It fails with ErrUnsupportedChain
// while connected to a chain outside the configured set.
func (a *Adapter) Session() (Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != StateConnected {
		return Session{}, ErrNotConnected
	}
	if a.chainErr != nil {
		return Session{}, a.chainErr
	}
	return a.session, nil
}

// State returns the adapter's connection state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// IsConnected reports a usable session: connected and on a supported
// chain.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state == StateConnected && a.chainErr == nil
}

// Subscribe registers a lifecycle listener and returns its unsubscribe
// function. Callers must unsubscribe on teardown to avoid leaked
// listeners.
func (a *Adapter) Subscribe(fn func(Event)) func() {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.subMu.Unlock()

	return func() {
		a.subMu.Lock()
		delete(a.subs, id)
		a.subMu.Unlock()
	}
}

func (a *Adapter) buildSession(ctx context.Context) (Session, error) {
	accounts, err := a.connector.Accounts(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(accounts) == 0 {
		return Session{}, ErrNoAccounts
	}

	chainID, err := a.connector.ChainID(ctx)
	if err != nil {
		return Session{}, err
	}
	provider, err := a.connector.Provider(ctx)
	if err != nil {
		return Session{}, err
	}
	signer, err := a.connector.Signer(ctx)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Account:  accounts[0],
		ChainID:  chainID,
		Provider: provider,
		Signer:   signer,
	}, nil
}

func (a *Adapter) checkChain(chainID *big.Int) error {
	if len(a.supported) == 0 {
		return nil
	}
	if chainID == nil || !chainID.IsUint64() {
		return ErrUnsupportedChain
	}
	if _, ok := a.supported[chainID.Uint64()]; !ok {
		return ErrUnsupportedChain
	}
	return nil
}

func (a *Adapter) setState(state State) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
}

func (a *Adapter) emit(event Event) {
	a.subMu.Lock()
	listeners := make([]func(Event), 0, len(a.subs))
	for _, fn := range a.subs {
		listeners = append(listeners, fn)
	}
	a.subMu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}
