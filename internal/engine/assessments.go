package engine

import (
	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/ballot"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/event"
)

// StartAssessment opens the assessment for a claim. Only the claims
// collaborator may call it, exactly once per claim; the assessing group and
// cooldown are resolved from the product-type configuration and frozen on
// the assessment.
func (e *Engine) StartAssessment(caller Caller, claimID common.ClaimID, productType common.ProductTypeID) (assessment.Assessment, error) {
	if caller.Role != RoleClaims {
		return assessment.Assessment{}, ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.votingPeriod == 0 {
		return assessment.Assessment{}, ErrZeroVotingPeriod
	}

	data, err := e.products.Get(productType)
	if err != nil {
		return assessment.Assessment{}, err
	}

	now := e.clock.Now()
	a, err := e.assessments.Start(claimID, data.AssessingGroupID, now, e.votingPeriod, data.CooldownPeriod)
	if err != nil {
		return assessment.Assessment{}, err
	}

	if e.persist != nil {
		if err := e.persist.PutAssessment(a); err != nil {
			return assessment.Assessment{}, err
		}
	}

	e.logger.Info().
		Uint64("claim", uint64(claimID)).
		Uint64("group", uint64(a.AssessingGroupID)).
		Uint64("votingEnd", uint64(a.VotingEnd)).
		Msg("assessment started")
	e.bus.Publish(event.TypeAssessmentStarted, event.AssessmentStarted{
		ClaimID:          claimID,
		AssessingGroupID: a.AssessingGroupID,
		Start:            a.Start,
		VotingEnd:        a.VotingEnd,
	})
	return a, nil
}

// CastVote records the caller's vote on one claim.
func (e *Engine) CastVote(caller Caller, claimID common.ClaimID, accepted bool, metadataHash crypto.Hash) error {
	return e.CastVotes(caller, []common.ClaimID{claimID}, []bool{accepted}, []crypto.Hash{metadataHash})
}

// CastVotes records the caller's votes on several claims at once. The batch
// is atomic: every claim is validated against its own assessment (claims in
// one batch may belong to different groups) before any ballot is appended,
// so a rejected batch leaves no votes behind.
func (e *Engine) CastVotes(caller Caller, claimIDs []common.ClaimID, accepted []bool, metadataHashes []crypto.Hash) error {
	if caller.Role != RoleAssessor {
		return ErrUnauthorized
	}
	if len(claimIDs) != len(accepted) || len(claimIDs) != len(metadataHashes) {
		return ErrBatchLengthMismatch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	seen := make(map[common.ClaimID]struct{}, len(claimIDs))
	for _, claimID := range claimIDs {
		a, err := e.assessments.Get(claimID)
		if err != nil {
			return err
		}
		if assessment.PhaseOf(a, now) != assessment.PhaseVoting {
			return assessment.ErrVotingClosed
		}
		if !e.groups.IsMember(a.AssessingGroupID, caller.AssessorID) {
			return ErrUnauthorized
		}
		if _, exists := e.ballots.Get(claimID, caller.AssessorID); exists {
			return ballot.ErrDuplicateBallot
		}
		if _, dup := seen[claimID]; dup {
			return ballot.ErrDuplicateBallot
		}
		seen[claimID] = struct{}{}
	}

	for i, claimID := range claimIDs {
		b, err := e.ballots.Append(claimID, caller.AssessorID, accepted[i], metadataHashes[i])
		if err != nil {
			return err
		}
		if err := e.assessments.CountVote(claimID, accepted[i]); err != nil {
			return err
		}

		if e.persist != nil {
			if err := e.persist.PutBallot(b); err != nil {
				return err
			}
			a, err := e.assessments.Get(claimID)
			if err != nil {
				return err
			}
			if err := e.persist.PutAssessment(a); err != nil {
				return err
			}
		}

		e.logger.Debug().
			Uint64("claim", uint64(claimID)).
			Uint64("assessor", uint64(caller.AssessorID)).
			Bool("accepted", accepted[i]).
			Uint64("sequence", uint64(b.SequenceIndex)).
			Msg("vote cast")
		e.bus.Publish(event.TypeVoteCast, event.VoteCast{
			ClaimID:       claimID,
			AssessorID:    caller.AssessorID,
			Accepted:      accepted[i],
			SequenceIndex: b.SequenceIndex,
		})
	}
	return nil
}

// GetBallotsMetadata returns the metadata hash recorded with a vote, or the
// zero hash for any pair with no ballot. It never fails; absence is a
// sentinel, not an error, and callers rely on that.
func (e *Engine) GetBallotsMetadata(claimID common.ClaimID, assessor common.AssessorID) crypto.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ballots.Metadata(claimID, assessor)
}

// GetAssessment returns the assessment for a claim.
func (e *Engine) GetAssessment(claimID common.ClaimID) (assessment.Assessment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assessments.Get(claimID)
}

// PhaseOfClaim derives a claim's current phase.
func (e *Engine) PhaseOfClaim(claimID common.ClaimID) (assessment.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.assessments.Get(claimID)
	if err != nil {
		return 0, err
	}
	return assessment.PhaseOf(a, e.clock.Now()), nil
}
