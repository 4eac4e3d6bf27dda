// Package merkle verifies membership proofs against fraud roots published by
// governance. Roots are built off-platform over Keccak-256 with commutative
// pair hashing (the smaller hash always goes first), so a proof carries no
// left/right bits, only the sibling path.
package merkle

import (
	"bytes"

	"github.com/coverlabs/mulberry/internal/crypto"
)

// VerifyProof folds the leaf up the sibling path and reports whether the
// result matches root. Pure: it touches no state, so callers can verify
// before mutating anything and a failed proof leaves nothing to roll back.
func VerifyProof(root, leaf crypto.Hash, proof []crypto.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// hashPair hashes two nodes in sorted order, mirroring how the published
// trees are constructed.
func hashPair(a, b crypto.Hash) crypto.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	buf := make([]byte, 0, 2*crypto.HashSize)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return crypto.KeccakData(buf)
}
