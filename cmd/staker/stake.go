package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"lecca.io/olas-staker/internal/chain"
	"lecca.io/olas-staker/internal/config"
	"lecca.io/olas-staker/internal/engine"
	"lecca.io/olas-staker/internal/envfile"
	"lecca.io/olas-staker/internal/logger"
	"lecca.io/olas-staker/internal/metrics"
	"lecca.io/olas-staker/internal/staking"
	"lecca.io/olas-staker/internal/sweep"
	"lecca.io/olas-staker/internal/txmgr"
	"lecca.io/olas-staker/internal/wallet"
)

// targetProgram is the staking program this build stakes into.
const targetProgram = "Coastal"

var stakeCommand = cli.Command{
	Action:    runStake,
	Name:      "stake",
	Usage:     "migrate the service off deprecated programs, then stake or unstake it",
	ArgsUsage: "<service_id> <service_registry_address> <staking_contract_address> <owner_private_key_path> <rpc> <unstake>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "password", Usage: "passphrase for an encrypted keystore file"},
		&cli.StringFlag{Name: "config", Usage: "path to an optional YAML config file"},
		&cli.BoolFlag{Name: "yes", Usage: "answer yes to all confirmation prompts"},
	},
}

type stakeArgs struct {
	ServiceID int64
	Registry  common.Address
	Staking   common.Address
	KeyPath   string
	RPC       string
	Unstake   bool
}

func parseStakeArgs(c *cli.Context) (stakeArgs, error) {
	if c.Args().Len() != 6 {
		return stakeArgs{}, fmt.Errorf("expected 6 arguments: %s", c.Command.ArgsUsage)
	}

	var args stakeArgs
	var err error

	args.ServiceID, err = strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return stakeArgs{}, fmt.Errorf("invalid service id: %q", c.Args().Get(0))
	}
	if !common.IsHexAddress(c.Args().Get(1)) {
		return stakeArgs{}, fmt.Errorf("invalid service registry address: %q", c.Args().Get(1))
	}
	args.Registry = common.HexToAddress(c.Args().Get(1))
	if !common.IsHexAddress(c.Args().Get(2)) {
		return stakeArgs{}, fmt.Errorf("invalid staking contract address: %q", c.Args().Get(2))
	}
	args.Staking = common.HexToAddress(c.Args().Get(2))
	args.KeyPath = c.Args().Get(3)
	args.RPC = c.Args().Get(4)
	args.Unstake, err = strconv.ParseBool(c.Args().Get(5))
	if err != nil {
		return stakeArgs{}, fmt.Errorf("invalid unstake flag (want true/false): %q", c.Args().Get(5))
	}
	return args, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// programTable resolves the deprecated-program table, honoring a config
// override.
func programTable(cfg *config.Config) ([]staking.Program, error) {
	if len(cfg.Programs) == 0 {
		return staking.DeprecatedPrograms(), nil
	}

	programs := make([]staking.Program, 0, len(cfg.Programs))
	for _, p := range cfg.Programs {
		kind, err := staking.ParseProgramKind(p.Kind)
		if err != nil {
			return nil, err
		}
		if !common.IsHexAddress(p.Address) {
			return nil, fmt.Errorf("program %s: invalid address %q", p.Name, p.Address)
		}
		programs = append(programs, staking.Program{
			Name:    p.Name,
			Address: common.HexToAddress(p.Address),
			Kind:    kind,
		})
	}
	return programs, nil
}

func runStake(c *cli.Context) error {
	args, err := parseStakeArgs(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}

	programs, err := programTable(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger.Info("INIT", "Starting staker (%s), service %d", targetProgram, args.ServiceID)

	ctx := c.Context
	start := time.Now()

	// Run summary pushed at exit regardless of where the run ends up.
	outcome := "failed"
	failed := true
	var submitter *txmgr.Submitter
	defer func() {
		summary := metrics.RunSummary{
			ServiceID: args.ServiceID,
			Outcome:   outcome,
			Duration:  time.Since(start),
			Failed:    failed,
		}
		if submitter != nil {
			summary.TxsSubmitted = submitter.Submitted
			summary.TxsConfirmed = submitter.Confirmed
		}
		metrics.Push(cfg.Metrics.Pushgateway, summary)
	}()

	client, err := chain.Dial(ctx, args.RPC, cfg.RPCTimeoutDuration())
	if err != nil {
		return fatalUnexpected(cfg, err)
	}
	defer client.Close()

	owner, err := wallet.Load(args.KeyPath, c.String("password"))
	if err != nil {
		return fatalUnexpected(cfg, err)
	}

	submitter = txmgr.NewSubmitter(client.Eth, owner, cfg.ReceiptTimeoutDuration(), cfg.PollIntervalDuration())

	var confirmer engine.Confirmer = engine.NewStdinConfirmer(os.Stdin)
	if c.Bool("yes") {
		confirmer = engine.AutoConfirmer{}
	}

	// Legacy migration first: the engine's slot and reward calculations
	// are only valid once legacy stakes are cleared.
	sweeper := sweep.New(programs, func(p staking.Program) (sweep.Reader, sweep.Broker, error) {
		return staking.NewContract(client.Eth, p.Address), txmgr.NewBroker(submitter, args.Registry, p.Address), nil
	}, confirmer)

	stop, err := sweeper.Run(ctx, args.ServiceID)
	if err != nil {
		return classify(cfg, err)
	}
	if stop {
		outcome = "legacy-locked"
		failed = false
		return nil
	}

	contract := staking.NewContract(client.Eth, args.Staking)
	state, err := contract.Snapshot(ctx, args.ServiceID)
	if err != nil {
		return fatalUnexpected(cfg, err)
	}

	eng := engine.New(targetProgram, txmgr.NewBroker(submitter, args.Registry, args.Staking), confirmer)
	result, err := eng.Run(ctx, engine.Params{
		ServiceID:        args.ServiceID,
		State:            state,
		UnstakeRequested: args.Unstake,
	})
	if err != nil {
		return classify(cfg, err)
	}

	outcome = result.Outcome.String()
	failed = false
	return nil
}

// classify maps business-rule aborts to their documented exit codes;
// everything else is an unexpected failure.
func classify(cfg *config.Config, err error) error {
	switch {
	case errors.Is(err, engine.ErrLocked):
		return cli.Exit("Terminating: service cannot be unstaked yet.", 1)
	case errors.Is(err, engine.ErrNoSlots):
		return cli.Exit("Terminating: all staking slots are taken.", 1)
	case errors.Is(err, engine.ErrDeclined):
		return cli.Exit("Terminating script.", 1)
	default:
		return fatalUnexpected(cfg, err)
	}
}

// fatalUnexpected is the single generic failure handler: log the error
// chain, clear the staking-participation flag so downstream tooling stops
// assuming the service is staked, and exit non-zero with guidance.
func fatalUnexpected(cfg *config.Config, err error) error {
	logger.Error("SYS", "An error occurred while executing the staker: %v", err)

	if clearErr := envfile.ClearStakingFlag(cfg.EnvFile); clearErr != nil {
		logger.Warn("SYS", "Failed to clear %s in %s: %v", envfile.UseStakingKey, cfg.EnvFile, clearErr)
	}

	return cli.Exit("Please confirm whether your service is participating in a staking program, and then retry running the tool.", 1)
}
