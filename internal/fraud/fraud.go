// Package fraud implements fraud-proof handling: an append-only registry of
// governance-published Merkle roots, the canonical leaf encoding for an
// accusation, and verification of a proof against a published root. Only the
// effect of a verified proof, the reward cursor jump and the stake burn,
// persists; proofs themselves are never stored.
package fraud

import (
	"encoding/binary"
	"errors"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
	"github.com/coverlabs/mulberry/internal/merkle"
)

var (
	ErrUnknownRoot        = errors.New("no fraud root published at that index")
	ErrInvalidMerkleProof = errors.New("fraud proof does not verify against the published root")
)

// Report is the leaf content of one accusation: assessor X's votes up to and
// including LastFraudulentVoteIndex are fraudulent, Amount of its stake is
// forfeit, and FraudCount is how many times X had been found fraudulent when
// the tree was built. FraudCount in the leaf pins the accusation to a point
// in the account's history so the same underlying fraud cannot be replayed
// under a stale leaf after state has moved on.
type Report struct {
	AssessorID              common.AssessorID
	Amount                  common.TokenAmount
	LastFraudulentVoteIndex common.SequenceIndex
	FraudCount              uint32
}

// Leaf returns the canonical leaf hash: Keccak-256 over the fields in
// declaration order, fixed-width big-endian. The off-platform tree builder
// uses the identical packing.
func (r Report) Leaf() crypto.Hash {
	buf := make([]byte, 0, 28)
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.AssessorID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.Amount))
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.LastFraudulentVoteIndex))
	buf = binary.BigEndian.AppendUint32(buf, r.FraudCount)
	return crypto.KeccakData(buf)
}

// Roots is the append-only list of published fraud roots. Roots are only
// ever added; a root index stays valid forever.
type Roots struct {
	roots []crypto.Hash
}

func NewRoots() *Roots {
	return &Roots{}
}

// Submit appends a root and returns its index.
func (r *Roots) Submit(root crypto.Hash) int {
	r.roots = append(r.roots, root)
	return len(r.roots) - 1
}

// Get returns the root at the given index.
func (r *Roots) Get(index int) (crypto.Hash, error) {
	if index < 0 || index >= len(r.roots) {
		return crypto.Hash{}, ErrUnknownRoot
	}
	return r.roots[index], nil
}

// Len returns how many roots have been published.
func (r *Roots) Len() int {
	return len(r.roots)
}

// All returns the published roots in submission order.
func (r *Roots) All() []crypto.Hash {
	out := make([]crypto.Hash, len(r.roots))
	copy(out, r.roots)
	return out
}

// Verify checks the report against the root at rootIndex. It mutates
// nothing; the engine applies effects only after this returns nil.
func (r *Roots) Verify(rootIndex int, report Report, proof []crypto.Hash) error {
	root, err := r.Get(rootIndex)
	if err != nil {
		return err
	}
	if !merkle.VerifyProof(root, report.Leaf(), proof) {
		return ErrInvalidMerkleProof
	}
	return nil
}
