package staking

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// fakeCaller answers contract calls from a canned per-method table,
// encoding return values through the real ABI so unpacking is exercised.
type fakeCaller struct {
	t       *testing.T
	returns map[string][]interface{}
	calls   []string
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := parsedStakingABI.MethodById(msg.Data[:4])
	if err != nil {
		f.t.Fatalf("unknown method selector: %x", msg.Data[:4])
	}
	f.calls = append(f.calls, method.Name)

	values, ok := f.returns[method.Name]
	if !ok {
		f.t.Fatalf("unexpected call to %s", method.Name)
	}
	out, err := method.Outputs.Pack(values...)
	if err != nil {
		f.t.Fatalf("failed to pack outputs for %s: %v", method.Name, err)
	}
	return out, nil
}

func newFakeCaller(t *testing.T) *fakeCaller {
	return &fakeCaller{
		t: t,
		returns: map[string][]interface{}{
			"isServiceStaked":            {true},
			"isServiceEvicted":           {false},
			"getServiceInfo":             {common.HexToAddress("0xaa"), common.HexToAddress("0xbb"), []*big.Int{}, big.NewInt(1_700_000_000), big.NewInt(42)},
			"minStakingDuration":         {big.NewInt(259200)},
			"availableRewards":           {big.NewInt(500)},
			"maxNumServices":             {big.NewInt(5)},
			"getServiceIds":              {[]*big.Int{big.NewInt(3), big.NewInt(7), big.NewInt(11)}},
			"getNextCheckpointTimestamp": {big.NewInt(1_700_100_000)},
			"livenessPeriod":             {big.NewInt(86400)},
		},
	}
}

func TestSnapshot_ReadsAllFieldsOnce(t *testing.T) {
	caller := newFakeCaller(t)
	contract := NewContract(caller, common.HexToAddress("0x01"))

	state, err := contract.Snapshot(context.Background(), 7)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	if !state.IsStaked || state.IsEvicted {
		t.Fatalf("unexpected staked/evicted: %+v", state)
	}
	if got := state.StakeStart.Unix(); got != 1_700_000_000 {
		t.Fatalf("unexpected stake start: %d", got)
	}
	if state.MinStakingDuration != 72*time.Hour {
		t.Fatalf("unexpected min duration: %s", state.MinStakingDuration)
	}
	if state.AvailableRewards.Int64() != 500 {
		t.Fatalf("unexpected rewards: %s", state.AvailableRewards)
	}
	if state.AvailableSlots != 2 { // maxNumServices(5) - staked(3)
		t.Fatalf("unexpected slots: %d", state.AvailableSlots)
	}
	if state.NextCheckpointTS != 1_700_100_000 {
		t.Fatalf("unexpected checkpoint ts: %d", state.NextCheckpointTS)
	}
	if state.LivenessPeriod != 24*time.Hour {
		t.Fatalf("unexpected liveness period: %s", state.LivenessPeriod)
	}

	// one pass: no method polled twice except the slot computation's id list
	seen := map[string]int{}
	for _, name := range caller.calls {
		seen[name]++
	}
	for name, n := range seen {
		if n > 1 {
			t.Fatalf("method %s called %d times in one snapshot", name, n)
		}
	}
}

func TestStakedServiceIDs(t *testing.T) {
	caller := newFakeCaller(t)
	contract := NewContract(caller, common.HexToAddress("0x01"))

	ids, err := contract.StakedServiceIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{3, 7, 11}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestPackStakeAndUnstake_RoundTrip(t *testing.T) {
	stake, err := PackStake(7)
	if err != nil {
		t.Fatalf("PackStake failed: %v", err)
	}
	method, err := parsedStakingABI.MethodById(stake[:4])
	if err != nil || method.Name != "stake" {
		t.Fatalf("expected stake selector, got %v (%v)", method, err)
	}

	unstake, err := PackUnstake(7)
	if err != nil {
		t.Fatalf("PackUnstake failed: %v", err)
	}
	method, err = parsedStakingABI.MethodById(unstake[:4])
	if err != nil || method.Name != "unstake" {
		t.Fatalf("expected unstake selector, got %v (%v)", method, err)
	}
}
