package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFromHex(t *testing.T) {
	h := HashData([]byte("claim evidence"))

	parsed, err := HashFromHex(h.String())
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	// Without the 0x prefix.
	parsed, err = HashFromHex(h.String()[2:])
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = HashFromHex("0xabcd")
	require.ErrorIs(t, err, ErrBadHashLength)

	_, err = HashFromHex("not hex at all")
	require.Error(t, err)
}

func TestIsZero(t *testing.T) {
	require.True(t, Hash{}.IsZero())
	require.False(t, HashData(nil).IsZero())
}

func TestKeccakDiffersFromBlake(t *testing.T) {
	data := []byte("same input")
	require.NotEqual(t, HashData(data), KeccakData(data))
}
