package txmgr

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"lecca.io/olas-staker/internal/wallet"
)

// fakeBackend broadcasts into memory and serves receipts after a
// configurable number of polls per transaction.
type fakeBackend struct {
	nonce         uint64
	sent          []*types.Transaction
	pollsUntil    int // polls before a receipt appears
	polls         map[common.Hash]int
	receiptStatus uint64
	sendErr       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		polls:         make(map[common.Hash]int),
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(100), nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.polls[hash]++
	if f.polls[hash] <= f.pollsUntil {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		Status:      f.receiptStatus,
		TxHash:      hash,
		BlockNumber: big.NewInt(42),
	}, nil
}

func testOwner(t *testing.T) *wallet.Owner {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return &wallet.Owner{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}

func newTestSubmitter(backend *fakeBackend, t *testing.T) *Submitter {
	return NewSubmitter(backend, testOwner(t), 500*time.Millisecond, time.Millisecond)
}

func TestSubmitBatch_SendsInOrderWithSequentialNonces(t *testing.T) {
	backend := newFakeBackend()
	sub := newTestSubmitter(backend, t)

	to1 := common.HexToAddress("0x01")
	to2 := common.HexToAddress("0x02")
	batch := Batch{
		{To: to1, Data: []byte{0x01}},
		{To: to2, Data: []byte{0x02}},
	}

	if err := sub.SubmitBatch(context.Background(), batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.sent) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(backend.sent))
	}
	if *backend.sent[0].To() != to1 || *backend.sent[1].To() != to2 {
		t.Fatal("transactions sent out of order")
	}
	if backend.sent[0].Nonce() != 0 || backend.sent[1].Nonce() != 1 {
		t.Fatalf("expected nonces 0,1 got %d,%d", backend.sent[0].Nonce(), backend.sent[1].Nonce())
	}
	if sub.Submitted != 2 || sub.Confirmed != 2 {
		t.Fatalf("expected counters 2/2, got %d/%d", sub.Submitted, sub.Confirmed)
	}
}

func TestSubmitBatch_WaitsThroughPendingPolls(t *testing.T) {
	backend := newFakeBackend()
	backend.pollsUntil = 3
	sub := newTestSubmitter(backend, t)

	err := sub.SubmitBatch(context.Background(), Batch{{To: common.HexToAddress("0x01")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Confirmed != 1 {
		t.Fatalf("expected 1 confirmation, got %d", sub.Confirmed)
	}
}

func TestSubmitBatch_ReceiptTimeoutIsFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.pollsUntil = 1 << 30 // never mined
	sub := newTestSubmitter(backend, t)

	err := sub.SubmitBatch(context.Background(), Batch{{To: common.HexToAddress("0x01")}})
	if !errors.Is(err, ErrReceiptTimeout) {
		t.Fatalf("expected ErrReceiptTimeout, got %v", err)
	}
}

func TestSubmitBatch_RevertedReceiptAbortsBatch(t *testing.T) {
	backend := newFakeBackend()
	backend.receiptStatus = types.ReceiptStatusFailed
	sub := newTestSubmitter(backend, t)

	batch := Batch{
		{To: common.HexToAddress("0x01")},
		{To: common.HexToAddress("0x02")},
	}
	err := sub.SubmitBatch(context.Background(), batch)
	if err == nil {
		t.Fatal("expected error for reverted transaction")
	}
	// the second transaction was never sent
	if len(backend.sent) != 1 {
		t.Fatalf("expected 1 sent transaction, got %d", len(backend.sent))
	}
}

func TestSubmitBatch_BroadcastFailureAbortsBatch(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("nonce too low")
	sub := newTestSubmitter(backend, t)

	err := sub.SubmitBatch(context.Background(), Batch{{To: common.HexToAddress("0x01")}})
	if err == nil {
		t.Fatal("expected broadcast error")
	}
	if sub.Submitted != 0 {
		t.Fatalf("expected 0 submitted, got %d", sub.Submitted)
	}
}
