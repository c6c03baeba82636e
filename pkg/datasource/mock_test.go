package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

func TestMock(t *testing.T) {
	base := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	m := NewMock([]types.Row{
		{TS: base},
		{TS: base.Add(time.Hour)},
		{TS: base.Add(2 * time.Hour)},
	})

	t.Run("filters to half-open range", func(t *testing.T) {
		rows, err := m.Query(context.Background(), base, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, base, rows[0].TS)
	})

	t.Run("records queries", func(t *testing.T) {
		require.NotEmpty(t, m.Queries)
		assert.Equal(t, base, m.Queries[0].Start)
	})

	t.Run("canned error", func(t *testing.T) {
		m.SetError(errors.New("boom"))
		_, err := m.Query(context.Background(), base, base.Add(time.Hour))
		require.Error(t, err)
	})

	t.Run("close", func(t *testing.T) {
		require.NoError(t, m.Close())
		assert.True(t, m.Closed())
	})
}
