package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/store"
	"github.com/coverlabs/mulberry/pkg/db/pebble"
)

func TestLoadRebuildsEngineState(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer kv.Close() //nolint:errcheck

	st := store.New(kv)
	clock := covertime.NewManualClock(testStart)

	// First engine instance: populate every table through real operations.
	e1 := New(clock, Params{VotingPeriod: testVotingPeriod}, WithStore(st))

	group, err := e1.AddAssessorsToGroup(Governor(), []common.AssessorID{1, 2}, common.NewGroupSentinel)
	require.NoError(t, err)
	empty, err := e1.AddAssessorsToGroup(Governor(), []common.AssessorID{3}, common.NewGroupSentinel)
	require.NoError(t, err)
	require.NoError(t, e1.RemoveAssessorFromAllGroups(Governor(), 3))

	require.NoError(t, e1.SetAssessmentDataForProductTypes(Governor(), []common.ProductTypeID{1}, testCooldown, group))
	require.NoError(t, e1.SetVotingPeriod(Governor(), 600))

	_, err = e1.StartAssessment(ClaimsCollaborator(), 100, 1)
	require.NoError(t, err)
	meta := crypto.HashData([]byte("evidence"))
	require.NoError(t, e1.CastVote(Assessor(1), 100, true, meta))
	require.NoError(t, e1.CastVote(Assessor(2), 100, false, crypto.Hash{}))

	require.NoError(t, e1.Stake(Assessor(1), 500))
	rootIndex, err := e1.SubmitFraudRoot(Governor(), crypto.KeccakData([]byte("root")))
	require.NoError(t, err)
	require.Equal(t, 0, rootIndex)

	// Second instance from the same database.
	e2, err := Load(clock, Params{VotingPeriod: testVotingPeriod}, st)
	require.NoError(t, err)

	require.Equal(t, covertime.Duration(600), e2.VotingPeriod(), "persisted voting period wins over params")
	require.Equal(t, common.GroupID(2), e2.GroupCount())

	members, err := e2.GroupMembers(group)
	require.NoError(t, err)
	require.Equal(t, []common.AssessorID{1, 2}, members)

	size, err := e2.GroupSize(empty)
	require.NoError(t, err)
	require.Zero(t, size, "emptied group survives as a minted id")

	cooldown, err := e2.PayoutCooldown(1)
	require.NoError(t, err)
	require.Equal(t, testCooldown, cooldown)

	a, err := e2.GetAssessment(100)
	require.NoError(t, err)
	require.Equal(t, uint32(1), a.AcceptVotes)
	require.Equal(t, uint32(1), a.DenyVotes)
	require.Equal(t, testStart.Add(testVotingPeriod), a.VotingEnd, "assessment started before the period change keeps its window")

	require.Equal(t, meta, e2.GetBallotsMetadata(100, 1))
	require.Equal(t, common.TokenAmount(500), e2.AccountOf(1).Amount)
	require.Equal(t, 1, e2.FraudRootCount())

	// The rebuilt engine keeps enforcing sequence and duplicate rules.
	require.Error(t, e2.CastVote(Assessor(1), 100, true, crypto.Hash{}))
}

func TestLoadPreservesCursorSemantics(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer kv.Close() //nolint:errcheck

	st := store.New(kv)
	clock := covertime.NewManualClock(testStart)

	e1 := New(clock, Params{VotingPeriod: testVotingPeriod}, WithStore(st))
	group, err := e1.AddAssessorsToGroup(Governor(), []common.AssessorID{1}, common.NewGroupSentinel)
	require.NoError(t, err)
	require.NoError(t, e1.SetAssessmentDataForProductTypes(Governor(), []common.ProductTypeID{1}, testCooldown, group))

	_, err = e1.StartAssessment(ClaimsCollaborator(), 100, 1)
	require.NoError(t, err)
	require.NoError(t, e1.CastVote(Assessor(1), 100, true, crypto.Hash{}))
	clock.Advance(testVotingPeriod + testCooldown)

	res, err := e1.WithdrawRewards(1, 1, 0)
	require.NoError(t, err)
	require.Equal(t, common.SequenceIndex(1), res.CursorAfter)

	e2, err := Load(clock, Params{VotingPeriod: testVotingPeriod}, st)
	require.NoError(t, err)

	require.Equal(t, common.SequenceIndex(1), e2.RewardsCursor(1))

	// A stale withdrawal against the rebuilt engine is still a no-op.
	res, err = e2.WithdrawRewards(1, 1, 0)
	require.NoError(t, err)
	require.Zero(t, res.Counted)
	require.Equal(t, common.SequenceIndex(1), res.CursorAfter)
}
