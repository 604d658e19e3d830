package txmgr

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"lecca.io/olas-staker/internal/registry"
	"lecca.io/olas-staker/internal/staking"
)

// Broker turns stake/unstake intents into transaction batches against one
// staking contract and submits them through the Submitter.
type Broker struct {
	Sub      *Submitter
	Registry common.Address
	Staking  common.Address
}

func NewBroker(sub *Submitter, registryAddr, stakingAddr common.Address) *Broker {
	return &Broker{Sub: sub, Registry: registryAddr, Staking: stakingAddr}
}

// StakeBatch is the stake sequence: approve the service NFT to the staking
// contract on the registry, then stake on the staking contract.
func (b *Broker) StakeBatch(serviceID int64) (Batch, error) {
	approve, err := registry.PackApprove(b.Staking, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to build approve call: %w", err)
	}
	stake, err := staking.PackStake(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to build stake call: %w", err)
	}
	return Batch{
		{To: b.Registry, Data: approve},
		{To: b.Staking, Data: stake},
	}, nil
}

// UnstakeBatch is a single unstake call on the staking contract.
func (b *Broker) UnstakeBatch(serviceID int64) (Batch, error) {
	unstake, err := staking.PackUnstake(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to build unstake call: %w", err)
	}
	return Batch{{To: b.Staking, Data: unstake}}, nil
}

// StakeService builds and submits the stake batch.
func (b *Broker) StakeService(ctx context.Context, serviceID int64) error {
	batch, err := b.StakeBatch(serviceID)
	if err != nil {
		return err
	}
	return b.Sub.SubmitBatch(ctx, batch)
}

// UnstakeService builds and submits the unstake batch.
func (b *Broker) UnstakeService(ctx context.Context, serviceID int64) error {
	batch, err := b.UnstakeBatch(serviceID)
	if err != nil {
		return err
	}
	return b.Sub.SubmitBatch(ctx, batch)
}
