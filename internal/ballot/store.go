// Package ballot implements the append-only vote store. Every ballot an
// assessor casts, across all claims, lands on that assessor's own strictly
// increasing sequence: the sequence is what makes "rewards resolved up to
// index I" a well-defined boundary for the ledger and fraud resolution.
package ballot

import (
	"errors"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
)

var ErrDuplicateBallot = errors.New("assessor has already voted on this claim")

// Ballot is one assessor's recorded vote on one claim.
type Ballot struct {
	ClaimID       common.ClaimID
	AssessorID    common.AssessorID
	Accepted      bool
	MetadataHash  crypto.Hash
	SequenceIndex common.SequenceIndex
}

type claimAssessorKey struct {
	claim    common.ClaimID
	assessor common.AssessorID
}

// Store keeps ballots under both access paths the engine needs: by
// (claim, assessor) for metadata lookups and duplicate detection, and by
// (assessor, sequence) for the reward cursor walk. Per-assessor sequences are
// contiguous from 0, so the second path is a plain slice.
type Store struct {
	byClaim    map[claimAssessorKey]int
	byAssessor map[common.AssessorID][]Ballot
}

func NewStore() *Store {
	return &Store{
		byClaim:    make(map[claimAssessorKey]int),
		byAssessor: make(map[common.AssessorID][]Ballot),
	}
}

// Append records a vote and assigns the assessor's next sequence index.
// At most one ballot may exist per (claim, assessor).
func (s *Store) Append(claimID common.ClaimID, assessorID common.AssessorID, accepted bool, metadataHash crypto.Hash) (Ballot, error) {
	key := claimAssessorKey{claim: claimID, assessor: assessorID}
	if _, exists := s.byClaim[key]; exists {
		return Ballot{}, ErrDuplicateBallot
	}

	seq := s.byAssessor[assessorID]
	b := Ballot{
		ClaimID:       claimID,
		AssessorID:    assessorID,
		Accepted:      accepted,
		MetadataHash:  metadataHash,
		SequenceIndex: common.SequenceIndex(len(seq)),
	}

	s.byAssessor[assessorID] = append(seq, b)
	s.byClaim[key] = len(seq)
	return b, nil
}

// Get returns the ballot for a (claim, assessor) pair, if one exists.
func (s *Store) Get(claimID common.ClaimID, assessorID common.AssessorID) (Ballot, bool) {
	idx, ok := s.byClaim[claimAssessorKey{claim: claimID, assessor: assessorID}]
	if !ok {
		return Ballot{}, false
	}
	return s.byAssessor[assessorID][idx], true
}

// Metadata returns the metadata hash recorded with a vote. Pairs with no
// ballot, including unknown claims or assessors, yield the zero hash rather
// than an error; absence is not a failure here.
func (s *Store) Metadata(claimID common.ClaimID, assessorID common.AssessorID) crypto.Hash {
	b, ok := s.Get(claimID, assessorID)
	if !ok {
		return crypto.Hash{}
	}
	return b.MetadataHash
}

// BySequence returns an assessor's ballot at the given sequence index.
func (s *Store) BySequence(assessorID common.AssessorID, index common.SequenceIndex) (Ballot, bool) {
	seq := s.byAssessor[assessorID]
	if index >= common.SequenceIndex(len(seq)) {
		return Ballot{}, false
	}
	return seq[index], true
}

// NextIndex returns the sequence index the assessor's next ballot will get,
// which equals the number of ballots cast so far.
func (s *Store) NextIndex(assessorID common.AssessorID) common.SequenceIndex {
	return common.SequenceIndex(len(s.byAssessor[assessorID]))
}

// Sequence returns all of an assessor's ballots in sequence order.
func (s *Store) Sequence(assessorID common.AssessorID) []Ballot {
	seq := s.byAssessor[assessorID]
	out := make([]Ballot, len(seq))
	copy(out, seq)
	return out
}

// Assessors returns every assessor that has cast at least one ballot,
// unordered.
func (s *Store) Assessors() []common.AssessorID {
	out := make([]common.AssessorID, 0, len(s.byAssessor))
	for id := range s.byAssessor {
		out = append(out, id)
	}
	return out
}
