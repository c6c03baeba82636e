// Package datasource provides the time-series collaborator that supplies raw
// energy-flow rows to the usage engine.
package datasource

import (
	"context"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// Source fetches raw measurement rows for a time range. Start is inclusive,
// stop exclusive. Rows come back in ascending time order with the raw supply
// and demand channels populated. Failures wrap types.ErrUpstreamData and are
// never retried by the engine.
type Source interface {
	Query(ctx context.Context, start, stop time.Time) ([]types.Row, error)
	Close() error
}

// Factory builds a Source for a validated settings snapshot. The engine calls
// it on every configuration (re)load.
type Factory func(s config.Settings) (Source, error)
