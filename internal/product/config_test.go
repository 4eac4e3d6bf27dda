package product

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
)

func TestTableSet(t *testing.T) {
	t.Run("bulk assigns all listed product types", func(t *testing.T) {
		table := NewTable()

		err := table.Set([]common.ProductTypeID{1, 2, 5}, covertime.Duration(3600), common.GroupID(1))
		require.NoError(t, err)

		for _, pt := range []common.ProductTypeID{1, 2, 5} {
			data, err := table.Get(pt)
			require.NoError(t, err)
			require.Equal(t, covertime.Duration(3600), data.CooldownPeriod)
			require.Equal(t, common.GroupID(1), data.AssessingGroupID)
		}
	})

	t.Run("rejects zero cooldown", func(t *testing.T) {
		table := NewTable()

		err := table.Set([]common.ProductTypeID{1}, 0, common.GroupID(1))
		require.ErrorIs(t, err, ErrZeroCooldown)
	})

	t.Run("reassignment overwrites", func(t *testing.T) {
		table := NewTable()

		require.NoError(t, table.Set([]common.ProductTypeID{1}, 100, common.GroupID(1)))
		require.NoError(t, table.Set([]common.ProductTypeID{1}, 200, common.GroupID(2)))

		data, err := table.Get(1)
		require.NoError(t, err)
		require.Equal(t, covertime.Duration(200), data.CooldownPeriod)
		require.Equal(t, common.GroupID(2), data.AssessingGroupID)
	})
}

func TestPayoutCooldown(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Set([]common.ProductTypeID{7}, 86400, common.GroupID(3)))

	cooldown, err := table.PayoutCooldown(7)
	require.NoError(t, err)
	require.Equal(t, covertime.Duration(86400), cooldown)

	_, err = table.PayoutCooldown(8)
	require.ErrorIs(t, err, ErrInvalidProductType)
}
