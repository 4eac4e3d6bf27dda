package engine

import (
	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/event"
	"github.com/coverlabs/mulberry/internal/stake"
)

// WithdrawResult reports how far a withdrawal got. Counted is the number of
// ballots whose rewards became payable to the custody collaborator in this
// call; Stopped is set when the walk ended before upToIndex, either on a
// ballot still in cooldown or on the iteration bound.
type WithdrawResult struct {
	Counted     uint64
	CursorAfter common.SequenceIndex
	Stopped     bool
}

// Stake increases the caller's staked amount. Custody of the tokens belongs
// to the token collaborator; this only records the accounting.
func (e *Engine) Stake(caller Caller, amount common.TokenAmount) error {
	if caller.Role != RoleAssessor {
		return ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	total, err := e.ledger.Deposit(caller.AssessorID, amount)
	if err != nil {
		return err
	}
	if err := e.persistAccount(caller.AssessorID); err != nil {
		return err
	}

	e.logger.Debug().
		Uint64("assessor", uint64(caller.AssessorID)).
		Uint64("amount", uint64(amount)).
		Uint64("total", uint64(total)).
		Msg("stake deposited")
	e.bus.Publish(event.TypeStakeDeposited, event.StakeDeposited{
		AssessorID: caller.AssessorID,
		Amount:     amount,
		Total:      total,
	})
	return nil
}

// WithdrawRewards resolves the assessor's ballots from the rewards cursor
// forward, stopping at upToIndex, at the first ballot whose assessment has
// not finished its cooldown, or after maxIterations ballots (zero means
// unbounded). The cursor then advances to the first unresolved ballot and
// never moves back: calling again with a stale or repeated upToIndex is a
// harmless no-op. Any caller may trigger a withdrawal; rewards always accrue
// to the ballot's assessor.
func (e *Engine) WithdrawRewards(assessor common.AssessorID, upToIndex common.SequenceIndex, maxIterations uint64) (WithdrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	cursor := e.ledger.Cursor(assessor)

	// Rewards exist only for votes actually cast.
	limit := upToIndex
	if next := e.ballots.NextIndex(assessor); limit > next {
		limit = next
	}

	var counted uint64
	stopped := false
	index := cursor
	for index < limit {
		if maxIterations != 0 && counted >= maxIterations {
			stopped = true
			break
		}
		b, ok := e.ballots.BySequence(assessor, index)
		if !ok {
			break
		}
		a, err := e.assessments.Get(b.ClaimID)
		if err != nil {
			return WithdrawResult{}, err
		}
		if assessment.PhaseOf(a, now) != assessment.PhasePayable {
			stopped = true
			break
		}
		counted++
		index++
	}

	if counted == 0 {
		if stopped {
			// The next ballot in line is still inside its cooldown window.
			return WithdrawResult{}, assessment.ErrCooldownActive
		}
		// Stale or empty range: nothing to resolve, nothing changes.
		return WithdrawResult{CursorAfter: cursor}, nil
	}

	after := e.ledger.AdvanceCursor(assessor, index)
	if err := e.persistAccount(assessor); err != nil {
		return WithdrawResult{}, err
	}

	e.logger.Info().
		Uint64("assessor", uint64(assessor)).
		Uint64("from", uint64(cursor)).
		Uint64("to", uint64(index)).
		Uint64("rewards", counted).
		Msg("rewards withdrawn")
	e.bus.Publish(event.TypeRewardsWithdrawn, event.RewardsWithdrawn{
		AssessorID:  assessor,
		FromIndex:   cursor,
		ToIndex:     index,
		RewardUnits: counted,
		CursorAfter: after,
	})
	return WithdrawResult{Counted: counted, CursorAfter: after, Stopped: stopped}, nil
}

// UnstakeAll withdraws the caller's entire stake. It is refused while any of
// the caller's votes sits in an assessment that has not reached the payable
// phase: those votes are still exposed to fraud resolution, and the stake
// backs them.
func (e *Engine) UnstakeAll(caller Caller) (common.TokenAmount, error) {
	if caller.Role != RoleAssessor {
		return 0, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	for _, b := range e.ballots.Sequence(caller.AssessorID) {
		a, err := e.assessments.Get(b.ClaimID)
		if err != nil {
			return 0, err
		}
		if assessment.PhaseOf(a, now) != assessment.PhasePayable {
			return 0, ErrStakeLocked
		}
	}

	amount := e.ledger.WithdrawAll(caller.AssessorID)
	if err := e.persistAccount(caller.AssessorID); err != nil {
		return 0, err
	}

	e.logger.Info().
		Uint64("assessor", uint64(caller.AssessorID)).
		Uint64("amount", uint64(amount)).
		Msg("stake withdrawn")
	e.bus.Publish(event.TypeStakeWithdrawn, event.StakeWithdrawn{
		AssessorID: caller.AssessorID,
		Amount:     amount,
	})
	return amount, nil
}

// AccountOf returns a copy of the assessor's stake account.
func (e *Engine) AccountOf(assessor common.AssessorID) stake.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Get(assessor)
}

// RewardsCursor returns the assessor's rewards-withdrawable-from index.
func (e *Engine) RewardsCursor(assessor common.AssessorID) common.SequenceIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Cursor(assessor)
}

func (e *Engine) persistAccount(assessor common.AssessorID) error {
	if e.persist == nil {
		return nil
	}
	return e.persist.PutAccount(e.ledger.Get(assessor))
}
