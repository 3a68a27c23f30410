package swap

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"swapScope/internal/chain"
	"swapScope/internal/wallet"
)

const (
	selSwapExactTokens = "38ed1739"
	selApprove         = "095ea7b3"
	selAllowance       = "dd62ed3e"
)

type callArgs struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

// fakeNode implements the eth_ methods the executor drives: allowance
// reads, fee and nonce queries, and raw transaction submission. Sent
// transactions are decoded and retained for assertions.
type fakeNode struct {
	allowance *big.Int
	nonce     uint64

	sent []*types.Transaction
}

func (f *fakeNode) Call(_ context.Context, args callArgs, _ gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	data := args.Input
	if len(data) == 0 {
		data = args.Data
	}
	if len(data) >= 4 && hex.EncodeToString(data[:4]) == selAllowance {
		out := make([]byte, 32)
		f.allowance.FillBytes(out)
		return out, nil
	}
	return hexutil.Bytes{}, nil
}

func (f *fakeNode) GetTransactionCount(_ context.Context, _ common.Address, _ gethrpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.nonce), nil
}

func (f *fakeNode) GasPrice(_ context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(big.NewInt(2_000_000_000)), nil
}

func (f *fakeNode) EstimateGas(_ context.Context, _ callArgs) (hexutil.Uint64, error) {
	return 180_000, nil
}

func (f *fakeNode) SendRawTransaction(_ context.Context, raw hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return tx.Hash(), nil
}

type testSigner struct {
	key     *ecdsa.PrivateKey
	account common.Address
	err     error
}

func (s *testSigner) Address() common.Address { return s.account }

func (s *testSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

var (
	routerAddr = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	tokenIn    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenOut   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func newTestExecutor(t *testing.T, node *fakeNode) (*Executor, wallet.Session) {
	t.Helper()

	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", node); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	chainClient := chain.NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(chainClient.Close)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	account := crypto.PubkeyToAddress(key.PublicKey)
	session := wallet.Session{
		Account: account,
		ChainID: big.NewInt(1337),
		Signer:  &testSigner{key: key, account: account},
	}

	executor := NewExecutor(chainClient, routerAddr, 20*time.Minute, nil)
	executor.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return executor, session
}

func selectorOf(t *testing.T, tx *types.Transaction) string {
	t.Helper()
	if len(tx.Data()) < 4 {
		t.Fatalf("calldata too short: %d bytes", len(tx.Data()))
	}
	return hex.EncodeToString(tx.Data()[:4])
}

func TestSwapExactTokensWithSufficientAllowance(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(1_000_000), nonce: 7}
	executor, session := newTestExecutor(t, node)

	tx, err := executor.SwapExactTokens(context.Background(), session,
		[]common.Address{tokenIn, tokenOut}, big.NewInt(1000), big.NewInt(995))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(node.sent) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(node.sent))
	}
	if got := *tx.To(); got != routerAddr {
		t.Fatalf("recipient: got %s, want router", got.Hex())
	}
	if got := selectorOf(t, tx); got != selSwapExactTokens {
		t.Fatalf("selector: got %s, want %s", got, selSwapExactTokens)
	}
	if tx.Nonce() != 7 {
		t.Fatalf("nonce: got %d, want 7", tx.Nonce())
	}
}

func TestSwapExactTokensApprovesFirst(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(0), nonce: 3}
	executor, session := newTestExecutor(t, node)

	if _, err := executor.SwapExactTokens(context.Background(), session,
		[]common.Address{tokenIn, tokenOut}, big.NewInt(1000), big.NewInt(995)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(node.sent) != 2 {
		t.Fatalf("expected approve then swap, got %d transactions", len(node.sent))
	}

	approve, swap := node.sent[0], node.sent[1]
	if got := *approve.To(); got != tokenIn {
		t.Fatalf("approve recipient: got %s, want token", got.Hex())
	}
	if got := selectorOf(t, approve); got != selApprove {
		t.Fatalf("approve selector: got %s, want %s", got, selApprove)
	}
	if approve.Nonce() != 3 || swap.Nonce() != 4 {
		t.Fatalf("nonces: got %d/%d, want 3/4", approve.Nonce(), swap.Nonce())
	}
}

func TestSwapExactNativeCarriesValue(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(0), nonce: 0}
	executor, session := newTestExecutor(t, node)

	amountIn := big.NewInt(5_000)
	tx, err := executor.SwapExactNative(context.Background(), session,
		[]common.Address{tokenIn, tokenOut}, amountIn, big.NewInt(9_900))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Native input rides in the value; no approval is involved.
	if len(node.sent) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(node.sent))
	}
	if tx.Value().Cmp(amountIn) != 0 {
		t.Fatalf("value: got %s, want %s", tx.Value(), amountIn)
	}
}

func TestUserRejectionSurfacesUnchanged(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(1_000_000), nonce: 0}
	executor, session := newTestExecutor(t, node)
	session.Signer = &testSigner{err: wallet.ErrUserRejected}

	_, err := executor.SwapExactTokens(context.Background(), session,
		[]common.Address{tokenIn, tokenOut}, big.NewInt(1000), big.NewInt(995))
	if !errors.Is(err, wallet.ErrUserRejected) {
		t.Fatalf("got %v, want %v", err, wallet.ErrUserRejected)
	}
	if len(node.sent) != 0 {
		t.Fatalf("rejected signature must not broadcast, got %d transactions", len(node.sent))
	}
}

func TestEnsureAllowanceSkipsWhenSufficient(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(500), nonce: 0}
	executor, session := newTestExecutor(t, node)

	tx, err := executor.EnsureAllowance(context.Background(), session, tokenIn, big.NewInt(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx != nil {
		t.Fatalf("expected no approve transaction")
	}
	if len(node.sent) != 0 {
		t.Fatalf("expected no broadcasts, got %d", len(node.sent))
	}
}

func TestRejectsShortPath(t *testing.T) {
	node := &fakeNode{allowance: big.NewInt(0), nonce: 0}
	executor, session := newTestExecutor(t, node)

	if _, err := executor.SwapExactTokens(context.Background(), session,
		[]common.Address{tokenIn}, big.NewInt(1), big.NewInt(1)); err == nil {
		t.Fatalf("expected error for single-token path")
	}
}
