package engine

import (
	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/event"
	"github.com/coverlabs/mulberry/internal/fraud"
)

// FraudResult reports the effect of one ProcessFraud call.
type FraudResult struct {
	// Applied is false when the accusation's fraud count no longer matches
	// the account, meaning this fraud was already fully processed.
	Applied bool
	// Completed is false when the iteration bound cut the walk short and
	// the caller must re-invoke to finish the range.
	Completed   bool
	Processed   uint64
	Burned      common.TokenAmount
	CursorAfter common.SequenceIndex
}

// SubmitFraudRoot publishes a Merkle root covering a batch of fraud
// accusations and returns its index. Roots are append-only; an index stays
// valid forever.
func (e *Engine) SubmitFraudRoot(caller Caller, root crypto.Hash) (int, error) {
	if caller.Role != RoleGovernor {
		return 0, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	index := e.fraudRoots.Submit(root)
	if e.persist != nil {
		if err := e.persist.PutFraudRoot(index, root); err != nil {
			return 0, err
		}
	}

	e.logger.Info().Int("rootIndex", index).Str("root", root.String()).Msg("fraud root submitted")
	e.bus.Publish(event.TypeFraudRootSubmitted, event.FraudRootSubmitted{RootIndex: index, Root: root})
	return index, nil
}

// FraudRootCount returns how many fraud roots have been published.
func (e *Engine) FraudRootCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fraudRoots.Len()
}

// ProcessFraud applies one proven accusation: assessor's votes up to and
// including lastFraudulentVoteIndex are fraudulent, amount of its stake is
// forfeit. The proof is verified against the published root before anything
// is touched. On success the rewards cursor jumps to max(cursor, last+1):
// replaying a proof the assessor has already withdrawn past is a no-op on
// the cursor, and an accusation reaching beyond the votes cast so far
// pre-emptively excludes those rewards when the votes arrive.
//
// Fraudulent ballots inside polls that have not settled are stripped from
// the tallies on the way; maxIterations bounds that walk (zero meaning
// unbounded), and a cut-short call reports Completed=false so the caller
// re-invokes for the rest. The burn and the fraud-count bump happen only on
// the completing call.
func (e *Engine) ProcessFraud(
	caller Caller,
	rootIndex int,
	proof []crypto.Hash,
	assessor common.AssessorID,
	lastFraudulentVoteIndex common.SequenceIndex,
	amount common.TokenAmount,
	fraudCount uint32,
	maxIterations uint64,
) (FraudResult, error) {
	if caller.Role != RoleGovernor {
		return FraudResult{}, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report := fraud.Report{
		AssessorID:              assessor,
		Amount:                  amount,
		LastFraudulentVoteIndex: lastFraudulentVoteIndex,
		FraudCount:              fraudCount,
	}
	if err := e.fraudRoots.Verify(rootIndex, report, proof); err != nil {
		return FraudResult{}, err
	}

	acct := e.ledger.Get(assessor)
	if acct.FraudCount != fraudCount {
		// The leaf was built against an older account state; this fraud has
		// already been processed to completion. Deliberately not an error,
		// so replays are harmless.
		e.logger.Debug().
			Uint64("assessor", uint64(assessor)).
			Uint32("leafFraudCount", fraudCount).
			Uint32("accountFraudCount", acct.FraudCount).
			Msg("stale fraud accusation ignored")
		return FraudResult{CursorAfter: acct.RewardsWithdrawableFromIndex}, nil
	}

	now := e.clock.Now()
	next := e.ballots.NextIndex(assessor)

	var processed uint64
	index := acct.RewardsWithdrawableFromIndex
	for index <= lastFraudulentVoteIndex && index < next {
		if maxIterations != 0 && processed >= maxIterations {
			// Bounded call: advance past what was processed and hand the
			// rest back to the caller. Fraud count is untouched, so the
			// follow-up call still matches the leaf.
			after := e.ledger.AdvanceCursor(assessor, index)
			if err := e.persistAccount(assessor); err != nil {
				return FraudResult{}, err
			}
			return FraudResult{Applied: true, Processed: processed, CursorAfter: after}, nil
		}

		b, ok := e.ballots.BySequence(assessor, index)
		if !ok {
			break
		}
		a, err := e.assessments.Get(b.ClaimID)
		if err != nil {
			return FraudResult{}, err
		}
		if assessment.PhaseOf(a, now) != assessment.PhasePayable {
			if err := e.assessments.UncountVote(b.ClaimID, b.Accepted); err != nil {
				return FraudResult{}, err
			}
			if e.persist != nil {
				updated, err := e.assessments.Get(b.ClaimID)
				if err != nil {
					return FraudResult{}, err
				}
				if err := e.persist.PutAssessment(updated); err != nil {
					return FraudResult{}, err
				}
			}
		}
		processed++
		index++
	}

	burned := e.ledger.Burn(assessor, amount)
	newCount := e.ledger.IncrementFraudCount(assessor)
	after := e.ledger.AdvanceCursor(assessor, lastFraudulentVoteIndex+1)
	if err := e.persistAccount(assessor); err != nil {
		return FraudResult{}, err
	}

	e.logger.Info().
		Uint64("assessor", uint64(assessor)).
		Uint64("lastFraudulentVoteIndex", uint64(lastFraudulentVoteIndex)).
		Uint64("burned", uint64(burned)).
		Uint64("cursor", uint64(after)).
		Msg("fraud processed")
	e.bus.Publish(event.TypeFraudProcessed, event.FraudProcessed{
		AssessorID:  assessor,
		Burned:      burned,
		CursorAfter: after,
		FraudCount:  newCount,
	})
	return FraudResult{
		Applied:     true,
		Completed:   true,
		Processed:   processed,
		Burned:      burned,
		CursorAfter: after,
	}, nil
}
