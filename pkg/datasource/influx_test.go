package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

func TestFillDurations(t *testing.T) {
	base := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("spacing to next row", func(t *testing.T) {
		rows := []types.Row{
			{TS: base},
			{TS: base.Add(5 * time.Minute)},
			{TS: base.Add(20 * time.Minute)},
		}
		FillDurations(rows)
		assert.Equal(t, 5*time.Minute, rows[0].Duration)
		assert.Equal(t, 15*time.Minute, rows[1].Duration)
		// The last row reuses its predecessor's width.
		assert.Equal(t, 15*time.Minute, rows[2].Duration)
	})

	t.Run("lone row defaults to an hour", func(t *testing.T) {
		rows := []types.Row{{TS: base}}
		FillDurations(rows)
		assert.Equal(t, time.Hour, rows[0].Duration)
	})

	t.Run("empty", func(t *testing.T) {
		FillDurations(nil)
	})
}

func TestNewInfluxRequiresURL(t *testing.T) {
	_, err := NewInflux(config.Settings{})
	require.Error(t, err)

	src, err := NewInflux(config.Settings{
		InfluxURL: "http://influx:8086",
		Bucket:    "powerwall",
	})
	require.NoError(t, err)
	require.NoError(t, src.Close())
}
