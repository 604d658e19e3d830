package staking

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the read-only chain surface the contract reader needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Contract reads a single staking contract. All methods are pure queries.
type Contract struct {
	caller  Caller
	abi     *abi.ABI
	address common.Address
}

// Contract ABI JSON for the staking functions used by this tool
const stakingABI = `[
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"isServiceStaked","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"isServiceEvicted","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"getServiceInfo","outputs":[{"internalType":"address","name":"multisig","type":"address"},{"internalType":"address","name":"owner","type":"address"},{"internalType":"uint256[]","name":"nonces","type":"uint256[]"},{"internalType":"uint256","name":"tsStart","type":"uint256"},{"internalType":"uint256","name":"reward","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"minStakingDuration","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"availableRewards","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"maxNumServices","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getServiceIds","outputs":[{"internalType":"uint256[]","name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getNextCheckpointTimestamp","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"livenessPeriod","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"unstake","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var parsedStakingABI *abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(stakingABI))
	if err != nil {
		panic(fmt.Sprintf("invalid staking ABI: %v", err))
	}
	parsedStakingABI = &parsed
}

// NewContract creates a reader bound to one staking contract address.
func NewContract(caller Caller, address common.Address) *Contract {
	return &Contract{
		caller:  caller,
		abi:     parsedStakingABI,
		address: address,
	}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}

	result, err := c.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	m := c.abi.Methods[method]
	values, err := m.Outputs.UnpackValues(result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return values, nil
}

func (c *Contract) IsServiceStaked(ctx context.Context, serviceID int64) (bool, error) {
	values, err := c.call(ctx, "isServiceStaked", big.NewInt(serviceID))
	if err != nil {
		return false, err
	}
	staked, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("isServiceStaked: unexpected return type %T", values[0])
	}
	return staked, nil
}

func (c *Contract) IsServiceEvicted(ctx context.Context, serviceID int64) (bool, error) {
	values, err := c.call(ctx, "isServiceEvicted", big.NewInt(serviceID))
	if err != nil {
		return false, err
	}
	evicted, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("isServiceEvicted: unexpected return type %T", values[0])
	}
	return evicted, nil
}

// ServiceInfo reads the per-service record. The stake-start timestamp sits
// at offset 3 of the returned tuple.
func (c *Contract) ServiceInfo(ctx context.Context, serviceID int64) (ServiceInfo, error) {
	values, err := c.call(ctx, "getServiceInfo", big.NewInt(serviceID))
	if err != nil {
		return ServiceInfo{}, err
	}
	if len(values) < 5 {
		return ServiceInfo{}, fmt.Errorf("getServiceInfo: unexpected number of return values: %d", len(values))
	}

	info := ServiceInfo{Reward: new(big.Int)}
	if v, ok := values[0].(common.Address); ok {
		info.Multisig = v.Hex()
	}
	if v, ok := values[1].(common.Address); ok {
		info.Owner = v.Hex()
	}
	if v, ok := values[3].(*big.Int); ok {
		info.StakeStart = time.Unix(v.Int64(), 0).UTC()
	}
	if v, ok := values[4].(*big.Int); ok {
		info.Reward = v
	}
	return info, nil
}

func (c *Contract) MinStakingDuration(ctx context.Context) (time.Duration, error) {
	secs, err := c.uintQuery(ctx, "minStakingDuration")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs.Int64()) * time.Second, nil
}

func (c *Contract) AvailableRewards(ctx context.Context) (*big.Int, error) {
	return c.uintQuery(ctx, "availableRewards")
}

// AvailableSlots is the number of free staking slots: maxNumServices minus
// the services currently staked.
func (c *Contract) AvailableSlots(ctx context.Context) (int64, error) {
	max, err := c.uintQuery(ctx, "maxNumServices")
	if err != nil {
		return 0, err
	}
	ids, err := c.StakedServiceIDs(ctx)
	if err != nil {
		return 0, err
	}
	return max.Int64() - int64(len(ids)), nil
}

func (c *Contract) NextCheckpointTS(ctx context.Context) (int64, error) {
	ts, err := c.uintQuery(ctx, "getNextCheckpointTimestamp")
	if err != nil {
		return 0, err
	}
	return ts.Int64(), nil
}

func (c *Contract) LivenessPeriod(ctx context.Context) (time.Duration, error) {
	secs, err := c.uintQuery(ctx, "livenessPeriod")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs.Int64()) * time.Second, nil
}

// StakedServiceIDs lists the services currently staked on the contract.
// This is the only staked check the first staking generation exposes.
func (c *Contract) StakedServiceIDs(ctx context.Context) ([]int64, error) {
	values, err := c.call(ctx, "getServiceIds")
	if err != nil {
		return nil, err
	}
	raw, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getServiceIds: unexpected return type %T", values[0])
	}

	ids := make([]int64, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, id.Int64())
	}
	return ids, nil
}

func (c *Contract) uintQuery(ctx context.Context, method string) (*big.Int, error) {
	values, err := c.call(ctx, method)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected return type %T", method, values[0])
	}
	return v, nil
}

// Snapshot assembles the full contract state in one pass. The engine makes
// every decision from a single snapshot; nothing is re-read mid-decision.
func (c *Contract) Snapshot(ctx context.Context, serviceID int64) (ContractState, error) {
	var state ContractState
	var err error

	if state.IsStaked, err = c.IsServiceStaked(ctx, serviceID); err != nil {
		return ContractState{}, err
	}
	if state.IsEvicted, err = c.IsServiceEvicted(ctx, serviceID); err != nil {
		return ContractState{}, err
	}
	info, err := c.ServiceInfo(ctx, serviceID)
	if err != nil {
		return ContractState{}, err
	}
	state.StakeStart = info.StakeStart
	if state.MinStakingDuration, err = c.MinStakingDuration(ctx); err != nil {
		return ContractState{}, err
	}
	if state.AvailableRewards, err = c.AvailableRewards(ctx); err != nil {
		return ContractState{}, err
	}
	if state.AvailableSlots, err = c.AvailableSlots(ctx); err != nil {
		return ContractState{}, err
	}
	if state.NextCheckpointTS, err = c.NextCheckpointTS(ctx); err != nil {
		return ContractState{}, err
	}
	if state.LivenessPeriod, err = c.LivenessPeriod(ctx); err != nil {
		return ContractState{}, err
	}
	return state, nil
}

// PackStake encodes the stake(serviceId) call.
func PackStake(serviceID int64) ([]byte, error) {
	return parsedStakingABI.Pack("stake", big.NewInt(serviceID))
}

// PackUnstake encodes the unstake(serviceId) call.
func PackUnstake(serviceID int64) ([]byte, error) {
	return parsedStakingABI.Pack("unstake", big.NewInt(serviceID))
}
