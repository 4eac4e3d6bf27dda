package merkle

import (
	"errors"

	"github.com/coverlabs/mulberry/internal/crypto"
)

var ErrLeafNotInTree = errors.New("leaf index out of range")

// Tree is an in-memory commutative Keccak tree over a fixed leaf set. The
// engine never builds trees itself; this exists for governance tooling that
// prepares fraud roots and for tests that need real proofs to verify.
type Tree struct {
	leaves []crypto.Hash
	levels [][]crypto.Hash
}

// NewTree builds a tree over the given leaves. Odd nodes at any level are
// promoted unhashed, matching the off-platform builder.
func NewTree(leaves []crypto.Hash) *Tree {
	t := &Tree{leaves: append([]crypto.Hash(nil), leaves...)}

	level := t.leaves
	t.levels = append(t.levels, level)
	for len(level) > 1 {
		next := make([]crypto.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

// Root returns the tree root; the zero hash for an empty tree.
func (t *Tree) Root() crypto.Hash {
	if len(t.leaves) == 0 {
		return crypto.Hash{}
	}
	return t.levels[len(t.levels)-1][0]
}

// ProofFor returns the sibling path for the leaf at the given index.
func (t *Tree) ProofFor(index int) ([]crypto.Hash, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, ErrLeafNotInTree
	}

	var proof []crypto.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}
