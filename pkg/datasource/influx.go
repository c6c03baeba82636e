package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// influxFields maps data-source field names to canonical columns.
var influxFields = map[string]types.Column{
	"from_grid": types.ColumnGridSupply,
	"to_grid":   types.ColumnGridExport,
	"from_pw":   types.ColumnPWSupply,
	"solar":     types.ColumnSolarSupply,
	"home":      types.ColumnHomeDemand,
}

// Influx queries the dashboard's InfluxDB bucket for usage rows.
type Influx struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	bucket   string
	location *time.Location
}

// NewInflux builds a Source over the configured InfluxDB bucket.
func NewInflux(s config.Settings) (*Influx, error) {
	if s.InfluxURL == "" {
		return nil, fmt.Errorf("influx url is required")
	}
	client := influxdb2.NewClient(s.InfluxURL, s.InfluxToken)
	return &Influx{
		client:   client,
		queryAPI: client.QueryAPI(s.InfluxOrg),
		bucket:   s.Bucket,
		location: s.Location,
	}, nil
}

// InfluxFactory is the default Factory.
func InfluxFactory(s config.Settings) (Source, error) {
	return NewInflux(s)
}

// Query implements Source. Field values are pivoted into one row per
// timestamp; row durations come from the spacing of consecutive timestamps.
func (i *Influx) Query(ctx context.Context, start, stop time.Time) ([]types.Row, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: %s, stop: %s)
		|> filter(fn: (r) => r._measurement == "http")
		|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
		|> keep(columns: ["_time", "from_grid", "to_grid", "from_pw", "solar", "home"])
	`,
		i.bucket,
		start.UTC().Format(time.RFC3339),
		stop.UTC().Format(time.RFC3339),
	)

	log.Ctx(ctx).DebugContext(ctx, "querying influx",
		slog.String("bucket", i.bucket),
		slog.Time("start", start),
		slog.Time("stop", stop),
	)

	result, err := i.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, &types.UpstreamDataError{Err: fmt.Errorf("influx query failed: %w", err)}
	}

	var rows []types.Row
	for result.Next() {
		rec := result.Record()
		ts := rec.Time()
		if i.location != nil {
			ts = ts.In(i.location)
		}
		values := make(map[types.Column]float64, len(influxFields))
		for field, col := range influxFields {
			switch v := rec.ValueByKey(field).(type) {
			case float64:
				values[col] = v
			case int64:
				values[col] = float64(v)
			case nil:
				// missing field for this interval, leave zero
			default:
				return nil, &types.UpstreamDataError{
					Err: fmt.Errorf("influx field %q has non-numeric value %T at %s", field, v, ts),
				}
			}
		}
		rows = append(rows, types.Row{TS: ts, Values: values})
	}
	if err := result.Err(); err != nil {
		return nil, &types.UpstreamDataError{Err: fmt.Errorf("influx result error: %w", err)}
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].TS.Before(rows[b].TS) })
	FillDurations(rows)
	return rows, nil
}

// Close implements Source.
func (i *Influx) Close() error {
	i.client.Close()
	return nil
}

// FillDurations derives each row's interval width from the spacing to the
// next row. The last row reuses its predecessor's width; a lone row defaults
// to one hour.
func FillDurations(rows []types.Row) {
	for idx := range rows {
		if idx+1 < len(rows) {
			rows[idx].Duration = rows[idx+1].TS.Sub(rows[idx].TS)
		} else if idx > 0 {
			rows[idx].Duration = rows[idx-1].Duration
		} else {
			rows[idx].Duration = time.Hour
		}
	}
}
