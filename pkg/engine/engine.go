// Package engine implements the tariff resolution and usage allocation
// pipeline: raw rows are waterfall-allocated, tagged with the active tariff
// via the calendar/season/period resolvers, costed by the plan's agent and
// optionally resampled into a flat report table.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/datasource"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/tariff"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// Snapshot is one immutable loaded configuration: validated settings, the
// tariff graph, the per-plan agents and the data source built for it.
// Concurrent queries share a snapshot without locking; a reload swaps in a
// whole new snapshot and never mutates an old one.
type Snapshot struct {
	Settings config.Settings
	Graph    *tariff.Graph
	Agents   map[string]Agent
	Source   datasource.Source
}

// Engine serves usage queries against the current configuration snapshot.
type Engine struct {
	store   config.Store
	factory datasource.Factory

	snap     atomic.Pointer[Snapshot]
	reloadMu sync.Mutex

	// now is swappable for tests of the to-date span policies.
	now func() time.Time
}

// New builds an Engine over a configuration store and a data source factory.
// Call Reload before serving queries.
func New(store config.Store, factory datasource.Factory) *Engine {
	return &Engine{
		store:   store,
		factory: factory,
		now:     time.Now,
	}
}

// Snapshot returns the current snapshot, or nil before the first successful
// reload.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Reload loads, validates and atomically installs a new configuration
// snapshot. Validation failures return a *types.ConfigError carrying every
// violation; the previous snapshot (if any) stays in service. In-flight
// queries keep using the snapshot they started with.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	data, name, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	doc, err := config.Parse(data, name)
	if err != nil {
		// Malformed documents fail to load entirely.
		return &types.ConfigError{Violations: []error{err}}
	}

	settings, violations := doc.Settings.Build()
	graph, errs := tariff.Build(doc, settings.Location)
	violations = append(violations, errs...)

	agents := make(map[string]Agent, len(graph.Plans))
	for planName, plan := range graph.Plans {
		if plan.Agent == "" {
			// Already reported as a missing-agent violation.
			continue
		}
		agent, err := NewAgent(plan.Agent, plan)
		if err != nil {
			violations = append(violations, err)
			continue
		}
		agents[planName] = agent
	}

	if len(violations) > 0 {
		return &types.ConfigError{Violations: violations}
	}

	source, err := e.factory(settings)
	if err != nil {
		return fmt.Errorf("failed to build data source: %w", err)
	}

	// The old source is left open deliberately: queries running against the
	// previous snapshot still own it, and a closed client would fail them
	// mid-flight. Reloads are rare manual events, so the idle client is
	// reclaimed by process exit at worst.
	e.snap.Store(&Snapshot{
		Settings: settings,
		Graph:    graph,
		Agents:   agents,
		Source:   source,
	})

	log.Ctx(ctx).InfoContext(ctx, "configuration loaded",
		slog.String("source", name),
		slog.Int("plans", len(graph.Plans)),
		slog.Int("calendarEntries", len(graph.Calendar.Entries())),
	)
	return nil
}

// Close releases the current snapshot's data source and the config store.
func (e *Engine) Close() error {
	var errs []error
	if snap := e.snap.Load(); snap != nil && snap.Source != nil {
		errs = append(errs, snap.Source.Close())
	}
	errs = append(errs, e.store.Close())
	return errors.Join(errs...)
}

// Query is one usage query: a local-time range plus the payload options.
type Query struct {
	Start   time.Time
	Stop    time.Time
	Payload types.QueryPayload
}

// Usage runs the full pipeline for one query and returns the flat report
// table. The pipeline is synchronous: fetch rows, allocate, resolve tariffs,
// cost, resample (or collapse to a summary).
func (e *Engine) Usage(ctx context.Context, q Query) (*types.Table, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, fmt.Errorf("usage engine configuration not loaded")
	}

	loc := snap.Settings.Location
	start := q.Start.In(loc)
	stop := q.Stop.In(loc)

	// To-date modes are span policies: clip/extend the range before anything
	// else looks at it.
	switch {
	case q.Payload.YearToDate:
		now := e.now().In(loc)
		start = yearStart(now, snap.Settings.YearAnchor)
		stop = now
	case q.Payload.MonthToDate:
		now := e.now().In(loc)
		start = monthStart(now)
		stop = now
	}
	if !stop.After(start) {
		return nil, fmt.Errorf("start %s must precede stop %s", start, stop)
	}

	rows, err := snap.Source.Query(ctx, start, stop)
	if err != nil {
		return nil, err
	}

	naming := Naming{
		CostUnit:   snap.Settings.CostUnit,
		EnergyUnit: snap.Settings.EnergyUnit,
		Rename:     snap.Settings.Rename,
	}

	report := newReportColumns()
	ivs := make([]*Interval, 0, len(rows))
	var dropped int
	var lastOutOfRange error

	for _, row := range rows {
		local := row.TS.In(loc)

		entry, err := snap.Graph.Calendar.Resolve(local)
		if err != nil {
			var oor *types.DateOutOfRangeError
			if errors.As(err, &oor) {
				// Row-level failure: drop the row, keep the rest of the batch.
				dropped++
				lastOutOfRange = err
				log.Ctx(ctx).WarnContext(ctx, "row precedes calendar", slog.Time("ts", local))
				continue
			}
			return nil, err
		}

		plan := snap.Graph.Plans[entry.Plan]
		season, err := plan.Season(entry.Season)
		if err != nil {
			return nil, err
		}
		period, err := season.ActiveTariff(local.Weekday(), tariff.DayTimeOf(local))
		if err != nil {
			// Configuration defect; surface with the offending date.
			return nil, fmt.Errorf("at %s: %w", local.Format(time.RFC3339), err)
		}

		iv := &Interval{
			Row:     row,
			Derived: Allocate(row, snap.Settings.SupplyPriority),
			Tariff:  period.Tariff,
			Report:  make(map[string]float64),
		}

		addEnergyReports(iv, plan, period.Tariff, naming, report)

		if rates, ok := entry.Tariffs[period.Tariff]; ok {
			for _, nv := range snap.Agents[entry.Plan].Cost(iv, period.Tariff, rates, naming) {
				report.add(nv.Name)
				iv.Report[nv.Name] = nv.Value
			}
		}

		ivs = append(ivs, iv)
	}

	if dropped > 0 && len(ivs) == 0 {
		// The entire range precedes the calendar.
		return nil, lastOutOfRange
	}

	if q.Payload.Summary {
		return summaryTable(ivs, report), nil
	}

	resample := snap.Settings.ResampleDefault
	if q.Payload.Resample != nil {
		resample = *q.Payload.Resample
	}
	if resample {
		ivs = Resample(ivs, start, stop, snap.Settings.WeekAnchor, snap.Settings.YearAnchor)
	}

	return flatTable(ivs, report), nil
}

// addEnergyReports copies the plan's report variables into per-tariff energy
// columns. Time, tariff and supply charge are dropped silently: time is
// always emitted, the tariff is already part of every column label and the
// supply charge only exists as a cost.
func addEnergyReports(iv *Interval, plan *tariff.Plan, tariffName string, naming Naming, report *reportColumns) {
	for _, col := range plan.Report {
		switch col {
		case types.ColumnTime, types.ColumnTariff, types.ColumnSupplyCharge:
			continue
		}
		value, ok := iv.Lookup(col)
		if !ok {
			continue
		}
		name := naming.EnergyColumn(tariffName, col)
		report.add(name)
		iv.Report[name] = value
	}
}

// reportColumns tracks display columns in order of first appearance.
type reportColumns struct {
	order []string
	seen  map[string]bool
}

func newReportColumns() *reportColumns {
	return &reportColumns{seen: make(map[string]bool)}
}

func (r *reportColumns) add(name string) {
	if r.seen[name] {
		return
	}
	r.seen[name] = true
	r.order = append(r.order, name)
}

// flatTable serialises the intervals into the front end's table shape: a
// millisecond time column followed by one column per report variable.
// Intervals without a value for a column yield null, not zero.
func flatTable(ivs []*Interval, report *reportColumns) *types.Table {
	table := &types.Table{
		Type:    "table",
		Name:    "usage",
		Columns: []types.TableColumn{{Text: string(types.ColumnTime), Type: "time"}},
	}
	for _, name := range report.order {
		table.Columns = append(table.Columns, types.TableColumn{Text: name, Type: "number"})
	}

	for _, iv := range ivs {
		row := make([]any, 0, len(report.order)+1)
		row = append(row, float64(iv.TS.UnixMilli()))
		for _, name := range report.order {
			if v, ok := iv.Report[name]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// summaryTable collapses the query to one row per report variable carrying
// its range total. The time column is omitted.
func summaryTable(ivs []*Interval, report *reportColumns) *types.Table {
	totals := make(map[string]float64, len(report.order))
	for _, iv := range ivs {
		for name, v := range iv.Report {
			totals[name] += v
		}
	}

	table := &types.Table{
		Type: "table",
		Name: "usage summary",
		Columns: []types.TableColumn{
			{Text: "Variable", Type: "string"},
			{Text: "Total", Type: "number"},
		},
	}
	for _, name := range report.order {
		table.Rows = append(table.Rows, []any{name, totals[name]})
	}
	return table
}
