package staking

import (
	"math/big"
	"time"
)

// ContractState is a point-in-time snapshot of everything the decision
// engine needs from a staking contract. It is read in one pass per run and
// never refreshed mid-decision, so every rule sees the same chain state.
type ContractState struct {
	IsStaked           bool
	IsEvicted          bool
	StakeStart         time.Time
	MinStakingDuration time.Duration
	AvailableRewards   *big.Int
	AvailableSlots     int64
	NextCheckpointTS   int64
	LivenessPeriod     time.Duration
}

// ServiceInfo is the subset of the contract's per-service record the tool
// uses. The stake-start timestamp sits at a fixed offset of the returned
// tuple.
type ServiceInfo struct {
	Multisig   string
	Owner      string
	StakeStart time.Time
	Reward     *big.Int
}
