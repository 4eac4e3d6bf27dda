package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/ballot"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/event"
)

func TestStartAssessment(t *testing.T) {
	t.Run("fixes the voting window and signals", func(t *testing.T) {
		te := newTestEngine(t, 1)

		var started []event.AssessmentStarted
		te.Bus().SubscribeFunc(event.TypeAssessmentStarted, func(e event.Event) {
			started = append(started, e.Data.(event.AssessmentStarted))
		})

		a, err := te.StartAssessment(ClaimsCollaborator(), 100, 1)
		require.NoError(t, err)
		require.Equal(t, testStart, a.Start)
		require.Equal(t, testStart.Add(testVotingPeriod), a.VotingEnd)
		require.Equal(t, testCooldown, a.CooldownPeriod)
		require.Equal(t, te.group, a.AssessingGroupID)

		require.Len(t, started, 1)
		require.Equal(t, common.ClaimID(100), started[0].ClaimID)
		require.Equal(t, a.VotingEnd, started[0].VotingEnd)
	})

	t.Run("one assessment per claim regardless of caller arguments", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		_, err := te.StartAssessment(ClaimsCollaborator(), 100, 1)
		require.ErrorIs(t, err, assessment.ErrAssessmentAlreadyExists)
	})

	t.Run("unconfigured product type", func(t *testing.T) {
		te := newTestEngine(t, 1)

		_, err := te.StartAssessment(ClaimsCollaborator(), 100, 99)
		require.Error(t, err)
	})

	t.Run("snapshot survives later config changes", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		// Reconfigure with a much longer cooldown after the fact.
		require.NoError(t, te.SetAssessmentDataForProductTypes(Governor(), []common.ProductTypeID{1}, testCooldown*100, te.group))

		a, err := te.GetAssessment(100)
		require.NoError(t, err)
		require.Equal(t, testCooldown, a.CooldownPeriod, "assessment keeps the cooldown recorded at creation")
	})
}

func TestCastVote(t *testing.T) {
	t.Run("tallies and sequence indexes", func(t *testing.T) {
		te := newTestEngine(t, 1, 2, 3)
		te.startClaim(t, 100)

		require.NoError(t, te.CastVote(Assessor(1), 100, true, crypto.HashData([]byte("m1"))))
		require.NoError(t, te.CastVote(Assessor(2), 100, true, crypto.Hash{}))
		require.NoError(t, te.CastVote(Assessor(3), 100, false, crypto.Hash{}))

		a, err := te.GetAssessment(100)
		require.NoError(t, err)
		require.Equal(t, uint32(2), a.AcceptVotes)
		require.Equal(t, uint32(1), a.DenyVotes)
		require.True(t, a.Accepted())
	})

	t.Run("vote at exactly votingEnd is rejected", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		te.clock.Set(testStart.Add(testVotingPeriod))
		err := te.CastVote(Assessor(1), 100, true, crypto.Hash{})
		require.ErrorIs(t, err, assessment.ErrVotingClosed)
	})

	t.Run("non-member of the assessing group is rejected", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		// Assessor 5 is a member of some other group, just not this one.
		_, err := te.AddAssessorsToGroup(Governor(), []common.AssessorID{5}, common.NewGroupSentinel)
		require.NoError(t, err)

		require.ErrorIs(t, te.CastVote(Assessor(5), 100, true, crypto.Hash{}), ErrUnauthorized)
	})

	t.Run("double vote on the same claim is rejected", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		require.NoError(t, te.CastVote(Assessor(1), 100, true, crypto.Hash{}))
		require.ErrorIs(t, te.CastVote(Assessor(1), 100, false, crypto.Hash{}), ballot.ErrDuplicateBallot)
	})
}

func TestCastVotes(t *testing.T) {
	t.Run("batch spans claims from different groups", func(t *testing.T) {
		te := newTestEngine(t, 1)

		// Second group also containing assessor 1, assessing product 2.
		g2, err := te.AddAssessorsToGroup(Governor(), []common.AssessorID{1}, common.NewGroupSentinel)
		require.NoError(t, err)
		require.NoError(t, te.SetAssessmentDataForProductTypes(Governor(), []common.ProductTypeID{2}, testCooldown, g2))

		te.startClaim(t, 100)
		_, err = te.StartAssessment(ClaimsCollaborator(), 200, 2)
		require.NoError(t, err)

		err = te.CastVotes(Assessor(1),
			[]common.ClaimID{100, 200},
			[]bool{true, false},
			[]crypto.Hash{crypto.HashData([]byte("a")), crypto.HashData([]byte("b"))})
		require.NoError(t, err)

		require.Equal(t, common.SequenceIndex(2), te.ballots.NextIndex(1), "both ballots share one per-assessor sequence")
	})

	t.Run("membership is checked per claim", func(t *testing.T) {
		te := newTestEngine(t, 1)

		// Group assessor 1 does NOT belong to, assessing product 2.
		g2, err := te.AddAssessorsToGroup(Governor(), []common.AssessorID{9}, common.NewGroupSentinel)
		require.NoError(t, err)
		require.NoError(t, te.SetAssessmentDataForProductTypes(Governor(), []common.ProductTypeID{2}, testCooldown, g2))

		te.startClaim(t, 100)
		_, err = te.StartAssessment(ClaimsCollaborator(), 200, 2)
		require.NoError(t, err)

		err = te.CastVotes(Assessor(1),
			[]common.ClaimID{100, 200},
			[]bool{true, true},
			[]crypto.Hash{{}, {}})
		require.ErrorIs(t, err, ErrUnauthorized)

		// Atomic: the valid first vote must not have landed either.
		a, err := te.GetAssessment(100)
		require.NoError(t, err)
		require.Zero(t, a.AcceptVotes)
		require.Equal(t, crypto.Hash{}, te.GetBallotsMetadata(100, 1))
	})

	t.Run("length mismatch", func(t *testing.T) {
		te := newTestEngine(t, 1)
		err := te.CastVotes(Assessor(1), []common.ClaimID{100}, []bool{true, false}, []crypto.Hash{{}})
		require.ErrorIs(t, err, ErrBatchLengthMismatch)
	})

	t.Run("repeated claim inside one batch", func(t *testing.T) {
		te := newTestEngine(t, 1)
		te.startClaim(t, 100)

		err := te.CastVotes(Assessor(1), []common.ClaimID{100, 100}, []bool{true, true}, []crypto.Hash{{}, {}})
		require.ErrorIs(t, err, ballot.ErrDuplicateBallot)
	})
}

func TestGetBallotsMetadata(t *testing.T) {
	te := newTestEngine(t, 1)
	te.startClaim(t, 100)

	hash := crypto.HashData([]byte("ipfs pointer"))
	require.NoError(t, te.CastVote(Assessor(1), 100, true, hash))

	t.Run("round trips the cast hash", func(t *testing.T) {
		require.Equal(t, hash, te.GetBallotsMetadata(100, 1))
	})

	t.Run("zero hash for any absent pair", func(t *testing.T) {
		require.Equal(t, crypto.Hash{}, te.GetBallotsMetadata(100, 2))
		require.Equal(t, crypto.Hash{}, te.GetBallotsMetadata(404, 1))
		require.Equal(t, crypto.Hash{}, te.GetBallotsMetadata(404, 404))
	})
}

func TestPhaseOfClaim(t *testing.T) {
	te := newTestEngine(t, 1)
	te.startClaim(t, 100)

	phase, err := te.PhaseOfClaim(100)
	require.NoError(t, err)
	require.Equal(t, assessment.PhaseVoting, phase)

	te.clock.Set(testStart.Add(testVotingPeriod))
	phase, err = te.PhaseOfClaim(100)
	require.NoError(t, err)
	require.Equal(t, assessment.PhaseCooldown, phase)

	te.clock.Set(testStart.Add(testVotingPeriod + testCooldown))
	phase, err = te.PhaseOfClaim(100)
	require.NoError(t, err)
	require.Equal(t, assessment.PhasePayable, phase)

	_, err = te.PhaseOfClaim(999)
	require.ErrorIs(t, err, assessment.ErrUnknownAssessment)
}
