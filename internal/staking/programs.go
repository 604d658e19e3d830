package staking

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ProgramKind selects how a deprecated staking program reports whether a
// service is staked on it. The first staking generation only exposes the
// full staked-service list; later generations added a per-service flag.
type ProgramKind int

const (
	// KindMembership checks the service id against getServiceIds().
	KindMembership ProgramKind = iota
	// KindFlag checks isServiceStaked(serviceId) directly.
	KindFlag
)

func (k ProgramKind) String() string {
	switch k {
	case KindMembership:
		return "membership"
	case KindFlag:
		return "flag"
	default:
		return fmt.Sprintf("ProgramKind(%d)", int(k))
	}
}

// Program is one deprecated staking program the migration sweep must clear
// the service out of before the main decision runs.
type Program struct {
	Name    string
	Address common.Address
	Kind    ProgramKind
}

// DeprecatedPrograms is the built-in migration table, in sweep order.
// Everest predates the per-service staking flag.
func DeprecatedPrograms() []Program {
	return []Program{
		{Name: "Everest", Address: common.HexToAddress("0x5add592ce0a1B5DceCebB5Dcac086Cd9F9e3eA5C"), Kind: KindMembership},
		{Name: "Alpine", Address: common.HexToAddress("0x2Ef503950Be67a98746F484DA0bBAdA339DF3326"), Kind: KindFlag},
		{Name: "CoastalTest", Address: common.HexToAddress("0x97371B1C0cDA1D04dFc43DFb50a04645b7Bc9BEe"), Kind: KindFlag},
	}
}

// ParseProgramKind maps a config string to a ProgramKind.
func ParseProgramKind(s string) (ProgramKind, error) {
	switch s {
	case "membership":
		return KindMembership, nil
	case "flag":
		return KindFlag, nil
	default:
		return 0, fmt.Errorf("unknown program kind: %q", s)
	}
}
