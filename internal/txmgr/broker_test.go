package txmgr

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBroker_StakeBatchShape(t *testing.T) {
	registryAddr := common.HexToAddress("0x0a")
	stakingAddr := common.HexToAddress("0x0b")
	broker := NewBroker(nil, registryAddr, stakingAddr)

	batch, err := broker.StakeBatch(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 calls (approve + stake), got %d", len(batch))
	}
	if batch[0].To != registryAddr {
		t.Fatalf("approve must target the registry, got %s", batch[0].To.Hex())
	}
	if batch[1].To != stakingAddr {
		t.Fatalf("stake must target the staking contract, got %s", batch[1].To.Hex())
	}
}

func TestBroker_UnstakeBatchShape(t *testing.T) {
	stakingAddr := common.HexToAddress("0x0b")
	broker := NewBroker(nil, common.HexToAddress("0x0a"), stakingAddr)

	batch, err := broker.UnstakeBatch(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected 1 call, got %d", len(batch))
	}
	if batch[0].To != stakingAddr {
		t.Fatalf("unstake must target the staking contract, got %s", batch[0].To.Hex())
	}
}

func TestBroker_SubmitsThroughSubmitter(t *testing.T) {
	backend := newFakeBackend()
	sub := newTestSubmitter(backend, t)
	broker := NewBroker(sub, common.HexToAddress("0x0a"), common.HexToAddress("0x0b"))

	if err := broker.StakeService(context.Background(), 7); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if err := broker.UnstakeService(context.Background(), 7); err != nil {
		t.Fatalf("unstake failed: %v", err)
	}
	if len(backend.sent) != 3 {
		t.Fatalf("expected 3 transactions (approve, stake, unstake), got %d", len(backend.sent))
	}
}
