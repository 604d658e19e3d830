package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"lecca.io/olas-staker/internal/staking"
)

// ZeroAddress marks services whose bond is held in the registry itself
// rather than the token utility.
var ZeroAddress = common.Address{}

// Contract ABI JSON for the service registry functions used by this tool.
// approve is the ERC-721 approval that lets a staking contract pull the
// service NFT when stake(serviceId) is called.
const registryABI = `[
	{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"id","type":"uint256"}],"name":"approve","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"getService","outputs":[{"internalType":"uint96","name":"securityDeposit","type":"uint96"},{"internalType":"address","name":"multisig","type":"address"},{"internalType":"bytes32","name":"configHash","type":"bytes32"},{"internalType":"uint32","name":"threshold","type":"uint32"},{"internalType":"uint32","name":"maxNumAgentInstances","type":"uint32"},{"internalType":"uint32","name":"numAgentInstances","type":"uint32"},{"internalType":"uint8","name":"state","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// Token utility ABI: bond bookkeeping for token-secured services.
const tokenUtilityABI = `[
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"}],"name":"mapServiceIdTokenDeposit","outputs":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint96","name":"deposit","type":"uint96"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"serviceId","type":"uint256"},{"internalType":"uint256","name":"agentId","type":"uint256"}],"name":"getAgentBond","outputs":[{"internalType":"uint256","name":"bond","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedRegistryABI     *abi.ABI
	parsedTokenUtilityABI *abi.ABI
)

func init() {
	reg, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		panic(fmt.Sprintf("invalid registry ABI: %v", err))
	}
	parsedRegistryABI = &reg

	util, err := abi.JSON(strings.NewReader(tokenUtilityABI))
	if err != nil {
		panic(fmt.Sprintf("invalid token utility ABI: %v", err))
	}
	parsedTokenUtilityABI = &util
}

// Contract reads the service registry and its token utility companion.
type Contract struct {
	caller       staking.Caller
	registry     common.Address
	tokenUtil    common.Address
	hasTokenUtil bool
}

func NewContract(caller staking.Caller, registry common.Address) *Contract {
	return &Contract{caller: caller, registry: registry}
}

// WithTokenUtility attaches the token utility address used by bond queries.
func (c *Contract) WithTokenUtility(addr common.Address) *Contract {
	c.tokenUtil = addr
	c.hasTokenUtil = true
	return c
}

func call(ctx context.Context, caller staking.Caller, contractABI *abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}

	result, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	m := contractABI.Methods[method]
	values, err := m.Outputs.UnpackValues(result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return values, nil
}

// TokenDeposit returns the bonding token of a service, or the zero address
// when the service is secured with native currency.
func (c *Contract) TokenDeposit(ctx context.Context, serviceID int64) (common.Address, error) {
	values, err := call(ctx, c.caller, parsedTokenUtilityABI, c.tokenUtil, "mapServiceIdTokenDeposit", big.NewInt(serviceID))
	if err != nil {
		return common.Address{}, err
	}
	token, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("mapServiceIdTokenDeposit: unexpected return type %T", values[0])
	}
	return token, nil
}

// AgentBond reads the per-agent bond from the token utility.
func (c *Contract) AgentBond(ctx context.Context, serviceID, agentID int64) (*big.Int, error) {
	values, err := call(ctx, c.caller, parsedTokenUtilityABI, c.tokenUtil, "getAgentBond", big.NewInt(serviceID), big.NewInt(agentID))
	if err != nil {
		return nil, err
	}
	bond, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAgentBond: unexpected return type %T", values[0])
	}
	return bond, nil
}

// SecurityDeposit reads the native-currency bond from the registry record.
func (c *Contract) SecurityDeposit(ctx context.Context, serviceID int64) (*big.Int, error) {
	values, err := call(ctx, c.caller, parsedRegistryABI, c.registry, "getService", big.NewInt(serviceID))
	if err != nil {
		return nil, err
	}
	deposit, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getService: unexpected return type %T", values[0])
	}
	return deposit, nil
}

// Bond resolves the agent bond the way the registry does: token-secured
// services answer from the token utility, native-secured ones from the
// registry record itself.
func (c *Contract) Bond(ctx context.Context, serviceID, agentID int64) (*big.Int, error) {
	if !c.hasTokenUtil {
		return c.SecurityDeposit(ctx, serviceID)
	}
	token, err := c.TokenDeposit(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if token != ZeroAddress {
		return c.AgentBond(ctx, serviceID, agentID)
	}
	return c.SecurityDeposit(ctx, serviceID)
}

// PackApprove encodes approve(spender, serviceId) on the registry, the
// first transaction of every stake batch.
func PackApprove(spender common.Address, serviceID int64) ([]byte, error) {
	return parsedRegistryABI.Pack("approve", spender, big.NewInt(serviceID))
}
