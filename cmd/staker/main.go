package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"lecca.io/olas-staker/internal/logger"
)

func main() {
	logger.Init()

	app := &cli.App{
		Name:  "staker",
		Usage: "stake or unstake an on-chain service based on its staking state",
		Commands: []*cli.Command{
			&stakeCommand,
			&bondCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("SYS", "%v", err)
		os.Exit(1)
	}
}
