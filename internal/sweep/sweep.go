// Package sweep migrates a service off deprecated staking programs. The
// sweep must fully complete (or abort the run) before the decision engine
// starts: slot and reward calculations are only valid once legacy stakes
// are cleared.
package sweep

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"lecca.io/olas-staker/internal/engine"
	"lecca.io/olas-staker/internal/logger"
	"lecca.io/olas-staker/internal/staking"
	"lecca.io/olas-staker/internal/utils"
)

// Reader is the read-only surface the sweep needs from one legacy program.
type Reader interface {
	IsServiceStaked(ctx context.Context, serviceID int64) (bool, error)
	StakedServiceIDs(ctx context.Context) ([]int64, error)
	ServiceInfo(ctx context.Context, serviceID int64) (staking.ServiceInfo, error)
	MinStakingDuration(ctx context.Context) (time.Duration, error)
	AvailableRewards(ctx context.Context) (*big.Int, error)
}

// Broker submits the unstake batch for one legacy program.
type Broker interface {
	UnstakeService(ctx context.Context, serviceID int64) error
}

// Sweeper walks the deprecated-program table in order and unstakes the
// service from every program it is still staked on.
type Sweeper struct {
	Programs  []staking.Program
	Open      func(p staking.Program) (Reader, Broker, error)
	Confirmer engine.Confirmer
	Now       func() time.Time
}

func New(programs []staking.Program, open func(p staking.Program) (Reader, Broker, error), confirmer engine.Confirmer) *Sweeper {
	return &Sweeper{
		Programs:  programs,
		Open:      open,
		Confirmer: confirmer,
		Now:       time.Now,
	}
}

// Run clears all legacy stakes. stop=true means the run must end here with
// a zero exit and no further decisions (the service stays staked on a
// legacy program whose lock has not elapsed). A returned error aborts the
// run non-zero.
func (s *Sweeper) Run(ctx context.Context, serviceID int64) (stop bool, err error) {
	logger.Info("SWEEP", "Unstaking from old programs...")
	for _, program := range s.Programs {
		stop, err := s.sweepProgram(ctx, serviceID, program)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

func (s *Sweeper) sweepProgram(ctx context.Context, serviceID int64, program staking.Program) (stop bool, err error) {
	logger.Info("SWEEP", "Checking if service is staked on %s...", program.Name)

	reader, broker, err := s.Open(program)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", program.Name, err)
	}

	switch program.Kind {
	case staking.KindMembership:
		staked, err := s.isMember(ctx, reader, serviceID)
		if err != nil {
			return false, fmt.Errorf("%s: %w", program.Name, err)
		}
		if !staked {
			logger.Info("SWEEP", "Service %d is not staked on %s.", serviceID, program.Name)
			return false, nil
		}

	case staking.KindFlag:
		staked, err := reader.IsServiceStaked(ctx, serviceID)
		if err != nil {
			return false, fmt.Errorf("%s: %w", program.Name, err)
		}
		if !staked {
			logger.Info("SWEEP", "Service %d is not staked on %s.", serviceID, program.Name)
			return false, nil
		}

		locked, err := s.isLocked(ctx, reader, serviceID, program)
		if err != nil {
			return false, fmt.Errorf("%s: %w", program.Name, err)
		}
		if locked {
			logger.Warn("SWEEP", "Service cannot be unstaked yet")
			logger.Warn("SWEEP", "Service %d cannot be unstaked from %s at this time.", serviceID, program.Name)
			logger.Warn("SWEEP", "You can still run your service, but it will stay staked in %s.", program.Name)
			logger.Warn("SWEEP", "Please re-run this tool at a later time to stake on a new program.")
			if err := s.Confirmer.Acknowledge("Press Enter to continue..."); err != nil {
				return false, err
			}
			return true, nil
		}

	default:
		return false, fmt.Errorf("%s: unknown program kind %v", program.Name, program.Kind)
	}

	logger.Info("SWEEP", "Service %d is staked on %s. To continue in a new staking program it must be unstaked from %s first.", serviceID, program.Name, program.Name)
	ok, err := s.Confirmer.Confirm(fmt.Sprintf("Do you want to continue unstaking service %d from %s? (yes/no)", serviceID, program.Name))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: unstake from %s", engine.ErrDeclined, program.Name)
	}

	logger.Info("SWEEP", "Unstaking service %d from %s...", serviceID, program.Name)
	if err := broker.UnstakeService(ctx, serviceID); err != nil {
		return false, fmt.Errorf("failed to unstake from %s: %w", program.Name, err)
	}
	logger.Info("SWEEP", "Successfully unstaked service %d from %s.", serviceID, program.Name)
	return false, nil
}

func (s *Sweeper) isMember(ctx context.Context, reader Reader, serviceID int64) (bool, error) {
	ids, err := reader.StakedServiceIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == serviceID {
			return true, nil
		}
	}
	return false, nil
}

// isLocked mirrors the engine's duration guard for a legacy program: the
// stake is locked while the minimum duration has not elapsed and the
// program still holds rewards that would be forfeited.
func (s *Sweeper) isLocked(ctx context.Context, reader Reader, serviceID int64, program staking.Program) (bool, error) {
	info, err := reader.ServiceInfo(ctx, serviceID)
	if err != nil {
		return false, err
	}
	minDuration, err := reader.MinStakingDuration(ctx)
	if err != nil {
		return false, err
	}
	rewards, err := reader.AvailableRewards(ctx)
	if err != nil {
		return false, err
	}

	stakedFor := s.Now().Sub(info.StakeStart)
	if stakedFor < minDuration && rewards.Sign() > 0 {
		logger.Warn("SWEEP", "Your service has been staked on %s for %s.", program.Name, utils.FormatDuration(stakedFor))
		logger.Warn("SWEEP", "You cannot unstake your service from %s until it has been staked for at least %s.", program.Name, utils.FormatDuration(minDuration))
		return true, nil
	}
	return false, nil
}
