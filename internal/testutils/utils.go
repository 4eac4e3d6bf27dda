package testutils

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/crypto"
)

func RandomHash(t *testing.T) crypto.Hash {
	hash := make([]byte, crypto.HashSize)
	_, err := rand.Read(hash)
	require.NoError(t, err)
	return crypto.Hash(hash)
}

func RandomAssessorID(t *testing.T) common.AssessorID {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	// Zero is reserved as an invalid id.
	return common.AssessorID(binary.BigEndian.Uint64(buf[:])%1_000_000 + 1)
}

func RandomTokenAmount(t *testing.T) common.TokenAmount {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	return common.TokenAmount(binary.BigEndian.Uint64(buf[:]) % 1_000_000_000)
}
