package crypto

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const HashSize = 32

var ErrBadHashLength = errors.New("hex string does not decode to 32 bytes")

// Hash is a 32-byte digest. Ballot metadata hashes and fraud roots are both
// carried as this type; the zero value doubles as the "no ballot" sentinel.
type Hash [HashSize]byte

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// HashData hashes the input data using Blake2b-256.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// KeccakData hashes the input data using Keccak-256. Fraud trees are built
// off-platform with Keccak, so proof verification must use the same function.
func KeccakData(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	hashed := hash.Sum(nil)

	var result Hash
	copy(result[:], hashed)
	return result
}

// HashFromHex parses a hex string, with or without 0x prefix, into a Hash.
func HashFromHex(s string) (Hash, error) {
	s = strings.TrimPrefix(s, "0x")

	bytes, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	if len(bytes) != HashSize {
		return Hash{}, ErrBadHashLength
	}

	var h Hash
	copy(h[:], bytes)
	return h, nil
}
