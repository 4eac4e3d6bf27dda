package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coverlabs/mulberry/internal/assessment"
	"github.com/coverlabs/mulberry/internal/ballot"
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/product"
	"github.com/coverlabs/mulberry/internal/stake"
	"github.com/coverlabs/mulberry/internal/testutils"
	"github.com/coverlabs/mulberry/pkg/db/pebble"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, kv.Close(), "failed to close db")
	})
	return New(kv)
}

func TestGroups(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.PutGroup(1, []common.AssessorID{10, 11}))
	require.NoError(t, s.PutGroup(2, nil))

	groups, err := s.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, []common.AssessorID{10, 11}, groups[1])
	require.Empty(t, groups[2], "empty group record must survive the round trip")

	// Overwrite replaces the membership.
	require.NoError(t, s.PutGroup(1, []common.AssessorID{11}))
	groups, err = s.Groups()
	require.NoError(t, err)
	require.Equal(t, []common.AssessorID{11}, groups[1])
}

func TestProducts(t *testing.T) {
	s := newStore(t)

	data := product.AssessmentData{CooldownPeriod: 3600, AssessingGroupID: 2}
	require.NoError(t, s.PutProduct(7, data))

	products, err := s.Products()
	require.NoError(t, err)
	require.Equal(t, data, products[7])
}

func TestBallots(t *testing.T) {
	s := newStore(t)

	b1 := ballot.Ballot{ClaimID: 100, AssessorID: 1, Accepted: true, MetadataHash: crypto.HashData([]byte("x")), SequenceIndex: 0}
	b2 := ballot.Ballot{ClaimID: 200, AssessorID: 1, Accepted: false, SequenceIndex: 1}
	b3 := ballot.Ballot{ClaimID: 100, AssessorID: 2, Accepted: true, SequenceIndex: 0}

	// Insertion order deliberately scrambled; the scan must come back
	// ordered by assessor then sequence.
	require.NoError(t, s.PutBallot(b2))
	require.NoError(t, s.PutBallot(b3))
	require.NoError(t, s.PutBallot(b1))

	ballots, err := s.Ballots()
	require.NoError(t, err)
	require.Equal(t, []ballot.Ballot{b1, b2, b3}, ballots)
}

func TestAssessments(t *testing.T) {
	s := newStore(t)

	a := assessment.Assessment{
		ClaimID:          100,
		AssessingGroupID: 1,
		Start:            5000,
		VotingEnd:        5300,
		CooldownPeriod:   900,
		AcceptVotes:      3,
		DenyVotes:        1,
	}
	require.NoError(t, s.PutAssessment(a))

	assessments, err := s.Assessments()
	require.NoError(t, err)
	require.Equal(t, []assessment.Assessment{a}, assessments)
}

func TestAccounts(t *testing.T) {
	s := newStore(t)

	acct := stake.Account{AssessorID: 1, Amount: 500, RewardsWithdrawableFromIndex: 3, FraudCount: 1}
	require.NoError(t, s.PutAccount(acct))

	accounts, err := s.Accounts()
	require.NoError(t, err)
	require.Equal(t, []stake.Account{acct}, accounts)
}

func TestFraudRoots(t *testing.T) {
	s := newStore(t)

	r0 := testutils.RandomHash(t)
	r1 := testutils.RandomHash(t)
	require.NoError(t, s.PutFraudRoot(0, r0))
	require.NoError(t, s.PutFraudRoot(1, r1))

	roots, err := s.FraudRoots()
	require.NoError(t, err)
	require.Equal(t, []crypto.Hash{r0, r1}, roots)
}

func TestVotingPeriod(t *testing.T) {
	s := newStore(t)

	_, ok, err := s.VotingPeriod()
	require.NoError(t, err)
	require.False(t, ok, "fresh store has no voting period")

	require.NoError(t, s.PutVotingPeriod(259200))

	d, ok, err := s.VotingPeriod()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, covertime.Duration(259200), d)
}
