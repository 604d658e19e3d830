package txmgr

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"lecca.io/olas-staker/internal/logger"
	"lecca.io/olas-staker/internal/wallet"
)

// Backend is the chain write surface the submitter needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Call is one unsigned contract invocation of a batch.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Batch is an ordered transaction sequence. Each call is signed, sent and
// confirmed before the next is sent; a failed confirmation aborts the batch
// and leaves already-confirmed transactions standing.
type Batch []Call

// ErrReceiptTimeout is returned when a transaction is not mined within the
// configured receipt timeout. It is fatal; the tool never retries.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

type Submitter struct {
	backend        Backend
	owner          *wallet.Owner
	receiptTimeout time.Duration
	pollInterval   time.Duration

	// run counters, reported to the metrics push at exit
	Submitted int
	Confirmed int
}

func NewSubmitter(backend Backend, owner *wallet.Owner, receiptTimeout, pollInterval time.Duration) *Submitter {
	return &Submitter{
		backend:        backend,
		owner:          owner,
		receiptTimeout: receiptTimeout,
		pollInterval:   pollInterval,
	}
}

// SubmitBatch sends the batch strictly in order, blocking on each receipt.
// No transaction is in flight while an earlier one is unconfirmed.
func (s *Submitter) SubmitBatch(ctx context.Context, batch Batch) error {
	for i, call := range batch {
		if err := s.submitAndConfirm(ctx, call); err != nil {
			return fmt.Errorf("transaction %d/%d: %w", i+1, len(batch), err)
		}
	}
	return nil
}

func (s *Submitter) submitAndConfirm(ctx context.Context, call Call) error {
	tx, err := s.sign(ctx, call)
	if err != nil {
		return err
	}

	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	s.Submitted++
	logger.Info("TX", "Sent %s (nonce %d), waiting for receipt...", tx.Hash().Hex(), tx.Nonce())

	receipt, err := s.WaitForReceipt(ctx, tx.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted in block %d", tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	}
	s.Confirmed++
	logger.Info("TX", "Confirmed %s in block %d", tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	return nil
}

func (s *Submitter) sign(ctx context.Context, call Call) (*types.Transaction, error) {
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.owner.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.owner.Address,
		To:    &call.To,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     call.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.owner.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// WaitForReceipt polls for the receipt until it appears or the timeout
// elapses. Timeout is fatal, never a silent continue.
func (s *Submitter) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(waitCtx, hash)
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, hash.Hex(), s.receiptTimeout)
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", hash.Hex(), err)
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, hash.Hex(), s.receiptTimeout)
		case <-ticker.C:
		}
	}
}
