package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"lecca.io/olas-staker/internal/chain"
	"lecca.io/olas-staker/internal/config"
	"lecca.io/olas-staker/internal/registry"
)

var bondCommand = cli.Command{
	Action:    runBond,
	Name:      "bond",
	Usage:     "print the agent bond for a service",
	ArgsUsage: "<service_registry> <service_registry_token_utility> <service_id> <agent_id> <rpc>",
}

func runBond(c *cli.Context) error {
	if c.Args().Len() != 5 {
		return cli.Exit(fmt.Sprintf("expected 5 arguments: %s", c.Command.ArgsUsage), 2)
	}

	if !common.IsHexAddress(c.Args().Get(0)) {
		return cli.Exit(fmt.Sprintf("invalid service registry address: %q", c.Args().Get(0)), 2)
	}
	registryAddr := common.HexToAddress(c.Args().Get(0))
	if !common.IsHexAddress(c.Args().Get(1)) {
		return cli.Exit(fmt.Sprintf("invalid token utility address: %q", c.Args().Get(1)), 2)
	}
	tokenUtilAddr := common.HexToAddress(c.Args().Get(1))

	serviceID, err := strconv.ParseInt(c.Args().Get(2), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid service id: %q", c.Args().Get(2)), 2)
	}
	agentID, err := strconv.ParseInt(c.Args().Get(3), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid agent id: %q", c.Args().Get(3)), 2)
	}

	cfg := config.Default()
	client, err := chain.Dial(c.Context, c.Args().Get(4), cfg.RPCTimeoutDuration())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer client.Close()

	reg := registry.NewContract(client.Eth, registryAddr).WithTokenUtility(tokenUtilAddr)
	bond, err := reg.Bond(c.Context, serviceID, agentID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Println(bond.String())
	return nil
}
