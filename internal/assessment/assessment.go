// Package assessment implements the per-claim voting state machine. There is
// no stored status field: a claim's phase is derived from the clock and the
// timestamps fixed at creation, and every code path derives it through the
// single PhaseOf function so the boundaries cannot drift between callers.
package assessment

import (
	"errors"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
)

var (
	ErrAssessmentAlreadyExists = errors.New("claim already has an assessment")
	ErrUnknownAssessment       = errors.New("claim has no assessment")
	ErrVotingClosed            = errors.New("assessment is not accepting votes")
	ErrCooldownActive          = errors.New("assessment cooldown has not elapsed")
)

// Phase is the derived lifecycle position of an assessment.
type Phase int

const (
	// PhaseVoting runs from start until votingEnd; ballots are accepted.
	PhaseVoting Phase = iota
	// PhaseCooldown runs from votingEnd until the payout cooldown elapses.
	PhaseCooldown
	// PhasePayable begins once the cooldown has elapsed; rewards for ballots
	// on this assessment become withdrawable.
	PhasePayable
)

func (p Phase) String() string {
	switch p {
	case PhaseVoting:
		return "voting"
	case PhaseCooldown:
		return "cooldown"
	case PhasePayable:
		return "payable"
	default:
		return "unknown"
	}
}

// Assessment is the voting record for one claim. The cooldown is snapshotted
// from the product-type configuration at creation; later configuration
// changes do not move an existing assessment's payable boundary.
type Assessment struct {
	ClaimID          common.ClaimID
	AssessingGroupID common.GroupID
	Start            covertime.Timestamp
	VotingEnd        covertime.Timestamp
	CooldownPeriod   covertime.Duration
	AcceptVotes      uint32
	DenyVotes        uint32
}

// PhaseOf derives the assessment's phase at the given instant. A vote at
// exactly votingEnd is already outside the voting window.
func PhaseOf(a Assessment, now covertime.Timestamp) Phase {
	if now.Before(a.VotingEnd) {
		return PhaseVoting
	}
	if now.Before(a.VotingEnd.Add(a.CooldownPeriod)) {
		return PhaseCooldown
	}
	return PhasePayable
}

// Accepted reports the poll outcome: a claim is paid only when accepts
// strictly exceed denies. Meaningful once voting has closed.
func (a Assessment) Accepted() bool {
	return a.AcceptVotes > a.DenyVotes
}

// Table owns one assessment per claim, created exactly once.
type Table struct {
	assessments map[common.ClaimID]*Assessment
}

func NewTable() *Table {
	return &Table{assessments: make(map[common.ClaimID]*Assessment)}
}

// Start creates the assessment for a claim. A claim gets exactly one
// assessment ever; a second call fails regardless of its arguments.
func (t *Table) Start(claimID common.ClaimID, groupID common.GroupID, now covertime.Timestamp, votingPeriod, cooldown covertime.Duration) (Assessment, error) {
	if _, exists := t.assessments[claimID]; exists {
		return Assessment{}, ErrAssessmentAlreadyExists
	}

	a := &Assessment{
		ClaimID:          claimID,
		AssessingGroupID: groupID,
		Start:            now,
		VotingEnd:        now.Add(votingPeriod),
		CooldownPeriod:   cooldown,
	}
	t.assessments[claimID] = a
	return *a, nil
}

// Get returns the assessment for a claim.
func (t *Table) Get(claimID common.ClaimID) (Assessment, error) {
	a, ok := t.assessments[claimID]
	if !ok {
		return Assessment{}, ErrUnknownAssessment
	}
	return *a, nil
}

// CountVote adds one accept or deny to the claim's tally. The caller is
// responsible for having checked the phase and the voter's group membership.
func (t *Table) CountVote(claimID common.ClaimID, accepted bool) error {
	a, ok := t.assessments[claimID]
	if !ok {
		return ErrUnknownAssessment
	}
	if accepted {
		a.AcceptVotes++
	} else {
		a.DenyVotes++
	}
	return nil
}

// UncountVote reverses a previously counted vote. Fraud resolution uses it
// to strip a fraudulent ballot from a poll that has not settled yet; tallies
// never go below zero.
func (t *Table) UncountVote(claimID common.ClaimID, accepted bool) error {
	a, ok := t.assessments[claimID]
	if !ok {
		return ErrUnknownAssessment
	}
	if accepted {
		if a.AcceptVotes > 0 {
			a.AcceptVotes--
		}
	} else {
		if a.DenyVotes > 0 {
			a.DenyVotes--
		}
	}
	return nil
}

// Claims returns every claim id with an assessment, unordered.
func (t *Table) Claims() []common.ClaimID {
	out := make([]common.ClaimID, 0, len(t.assessments))
	for id := range t.assessments {
		out = append(out, id)
	}
	return out
}

// Restore re-inserts a persisted assessment verbatim, tallies included.
func (t *Table) Restore(a Assessment) error {
	if _, exists := t.assessments[a.ClaimID]; exists {
		return ErrAssessmentAlreadyExists
	}
	stored := a
	t.assessments[a.ClaimID] = &stored
	return nil
}
