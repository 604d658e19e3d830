// Package engine implements the staking state-transition decision
// procedure: given a fresh snapshot of a staking contract, it decides
// whether the service should stake, unstake, remain staked, or be
// re-staked after eviction, and drives the corresponding transaction
// batches through the broker.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lecca.io/olas-staker/internal/logger"
	"lecca.io/olas-staker/internal/staking"
	"lecca.io/olas-staker/internal/utils"
)

// Broker submits stake/unstake transaction batches, blocking until every
// transaction in a batch is confirmed.
type Broker interface {
	StakeService(ctx context.Context, serviceID int64) error
	UnstakeService(ctx context.Context, serviceID int64) error
}

// Confirmer is the operator-interaction capability. Implementations block
// on terminal input; tests script the answers.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
	Acknowledge(prompt string) error
}

// Outcome is the terminal state of a successful run.
type Outcome int

const (
	OutcomeAlreadyUnstaked Outcome = iota
	OutcomeUnstaked
	OutcomeRemainsStaked
	OutcomeStaked
	OutcomeNoRewards
	OutcomeRestaked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyUnstaked:
		return "already-unstaked"
	case OutcomeUnstaked:
		return "unstaked"
	case OutcomeRemainsStaked:
		return "remains-staked"
	case OutcomeStaked:
		return "staked"
	case OutcomeNoRewards:
		return "no-rewards"
	case OutcomeRestaked:
		return "restaked"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome Outcome
}

// Business-rule aborts are values, not panics. Only genuinely unexpected
// faults (broker/chain failures) reach the caller as other error kinds.
var (
	// ErrLocked blocks an unstake while the minimum staking duration has
	// not elapsed and rewards remain to be forfeited.
	ErrLocked = errors.New("minimum staking duration not reached")
	// ErrNoSlots blocks a stake when the contract has no free slots.
	ErrNoSlots = errors.New("all staking slots are taken")
	// ErrDeclined is returned when the operator refuses a confirmation.
	ErrDeclined = errors.New("operator declined")
)

type Engine struct {
	Program   string // staking program name, for operator messages
	Broker    Broker
	Confirmer Confirmer
	Now       func() time.Time
}

func New(program string, broker Broker, confirmer Confirmer) *Engine {
	return &Engine{
		Program:   program,
		Broker:    broker,
		Confirmer: confirmer,
		Now:       time.Now,
	}
}

type Params struct {
	ServiceID        int64
	State            staking.ContractState
	UnstakeRequested bool
}

// Run evaluates the transition rules in precedence order against a single
// snapshot; the first matching rule fires and all others are skipped.
func (e *Engine) Run(ctx context.Context, p Params) (Result, error) {
	if p.UnstakeRequested {
		return e.runUnstake(ctx, p)
	}
	if p.State.IsStaked {
		return e.runStaked(ctx, p)
	}
	return e.tryStake(ctx, p)
}

func (e *Engine) runUnstake(ctx context.Context, p Params) (Result, error) {
	st := p.State

	if !st.IsStaked {
		logger.Info("ENGINE", "Service %d is not staked on %s", p.ServiceID, e.Program)
		return Result{Outcome: OutcomeAlreadyUnstaked}, nil
	}

	if st.IsEvicted {
		logger.Warn("ENGINE", "Service %d has been evicted from the %s staking program due to inactivity", p.ServiceID, e.Program)
		if err := e.Confirmer.Acknowledge("Press Enter to continue..."); err != nil {
			return Result{}, err
		}
	}

	if err := e.checkUnstakeLock(p); err != nil {
		return Result{}, err
	}

	if err := e.confirmCheckpointGap(p); err != nil {
		return Result{}, err
	}

	if err := e.unstake(ctx, p.ServiceID); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeUnstaked}, nil
}

func (e *Engine) runStaked(ctx context.Context, p Params) (Result, error) {
	st := p.State

	// Eviction is checked before the zero-rewards shortcut: an evicted
	// service must be unstaked regardless of reward availability.
	if st.IsEvicted {
		logger.Warn("ENGINE", "Service %d has been evicted from the %s staking program due to inactivity. Unstaking...", p.ServiceID, e.Program)

		if err := e.checkUnstakeLock(p); err != nil {
			return Result{}, err
		}
		if err := e.unstake(ctx, p.ServiceID); err != nil {
			return Result{}, err
		}

		res, err := e.tryStake(ctx, p)
		if err != nil {
			return Result{}, err
		}
		if res.Outcome == OutcomeStaked {
			return Result{Outcome: OutcomeRestaked}, nil
		}
		return res, nil
	}

	logger.Info("ENGINE", "Service %d is already staked on %s. Checking if the staking contract has any rewards...", p.ServiceID, e.Program)

	if st.AvailableRewards.Sign() == 0 {
		logger.Info("ENGINE", "No rewards available. Unstaking service %d from %s...", p.ServiceID, e.Program)
		if err := e.unstake(ctx, p.ServiceID); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeUnstaked}, nil
	}

	logger.Info("ENGINE", "There are rewards available. Service %d should remain staked.", p.ServiceID)
	return Result{Outcome: OutcomeRemainsStaked}, nil
}

func (e *Engine) tryStake(ctx context.Context, p Params) (Result, error) {
	st := p.State

	if st.AvailableSlots <= 0 {
		logger.Error("ENGINE", "All staking slots are taken. Service %d cannot be staked.", p.ServiceID)
		return Result{}, ErrNoSlots
	}

	logger.Info("ENGINE", "Service %d is not staked on %s. Checking for available rewards...", p.ServiceID, e.Program)
	if st.AvailableRewards.Sign() == 0 {
		logger.Info("ENGINE", "No rewards available. Service %d will not be staked.", p.ServiceID)
		return Result{Outcome: OutcomeNoRewards}, nil
	}

	logger.Info("ENGINE", "Rewards available: %s. Staking service %d...", utils.FormatToken(st.AvailableRewards, "OLAS"), p.ServiceID)
	if err := e.Broker.StakeService(ctx, p.ServiceID); err != nil {
		return Result{}, fmt.Errorf("stake batch failed: %w", err)
	}
	logger.Info("ENGINE", "Service %d staked successfully on %s.", p.ServiceID, e.Program)
	return Result{Outcome: OutcomeStaked}, nil
}

// checkUnstakeLock enforces the minimum-duration guard on every unstake
// trigger, explicit or eviction-driven. It only blocks while rewards remain
// to be forfeited.
func (e *Engine) checkUnstakeLock(p Params) error {
	st := p.State
	stakedFor := e.Now().Sub(st.StakeStart)

	if stakedFor < st.MinStakingDuration && st.AvailableRewards.Sign() > 0 {
		logger.Warn("ENGINE", "Your service has been staked on %s for %s.", e.Program, utils.FormatDuration(stakedFor))
		logger.Warn("ENGINE", "You cannot unstake your service from %s until it has been staked for at least %s.", e.Program, utils.FormatDuration(st.MinStakingDuration))
		return ErrLocked
	}
	return nil
}

// confirmCheckpointGap warns that unstaking before the next checkpoint
// forfeits work done since the last one, and requires explicit consent.
func (e *Engine) confirmCheckpointGap(p Params) error {
	st := p.State
	now := e.Now().Unix()
	if now >= st.NextCheckpointTS {
		return nil
	}

	lastTS := st.NextCheckpointTS - int64(st.LivenessPeriod.Seconds())
	logger.Warn("ENGINE", "Staking checkpoint call not available yet")
	logger.Warn("ENGINE", "The liveness period (%.1f hours) has not passed since the last checkpoint call.", st.LivenessPeriod.Hours())
	logger.Warn("ENGINE", "  - %s - Last checkpoint call.", utils.FormatTimestampUTC(lastTS))
	logger.Warn("ENGINE", "  - %s - Next checkpoint call availability.", utils.FormatTimestampUTC(st.NextCheckpointTS))
	logger.Warn("ENGINE", "If you proceed with unstaking, your agent's work done since the last checkpoint call will not be accounted for rewards.")

	ok, err := e.Confirmer.Confirm(fmt.Sprintf("Do you want to continue unstaking service %d from %s? (yes/no)", p.ServiceID, e.Program))
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

func (e *Engine) unstake(ctx context.Context, serviceID int64) error {
	logger.Info("ENGINE", "Unstaking service %d from %s...", serviceID, e.Program)
	if err := e.Broker.UnstakeService(ctx, serviceID); err != nil {
		return fmt.Errorf("unstake batch failed: %w", err)
	}
	logger.Info("ENGINE", "Successfully unstaked service %d from %s.", serviceID, e.Program)
	return nil
}
