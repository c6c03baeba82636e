package tariff

import (
	"fmt"
	"sort"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// RateTable maps tariff name to per-variable rates (currency per energy
// unit). The SUPPLY_CHARGE variable is a flat per-interval charge.
type RateTable map[string]map[types.Column]float64

// Entry is one resolved calendar entry. Fields omitted in the document have
// already been inherited from the predecessor during the build fold, so every
// entry carries the full (plan, season, rate table) triple.
type Entry struct {
	Start time.Time
	// End is the start of the next entry, or zero for the final entry.
	End     time.Time
	Plan    string
	Season  string
	Tariffs RateTable
}

// Calendar is the date-ordered list of resolved entries.
type Calendar struct {
	entries []Entry
}

// Entries returns the resolved entries in ascending date order.
func (c *Calendar) Entries() []Entry {
	return c.entries
}

// Resolve returns the entry in effect on the given date: the latest entry
// whose start is <= the date. Dates before the first entry are out of range.
func (c *Calendar) Resolve(date time.Time) (*Entry, error) {
	if len(c.entries) == 0 {
		return nil, fmt.Errorf("calendar has no entries")
	}
	// First entry with Start > date, minus one.
	idx := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Start.After(date)
	}) - 1
	if idx < 0 {
		return nil, &types.DateOutOfRangeError{Date: date, Earliest: c.entries[0].Start}
	}
	return &c.entries[idx], nil
}

// buildCalendar parses, sorts and folds the calendar documents. Later entries
// inherit any field they omit from their immediate predecessor; the first
// entry must define everything. References into the plan graph are validated
// here so a broken calendar reports every problem at load.
func buildCalendar(docs map[string]config.CalendarDoc, plans map[string]*Plan, loc *time.Location) (*Calendar, []error) {
	var violations []error

	if len(docs) == 0 {
		violations = append(violations, fmt.Errorf("calendar: no entries"))
		return &Calendar{}, violations
	}

	type dated struct {
		date time.Time
		key  string
		doc  config.CalendarDoc
	}
	entries := make([]dated, 0, len(docs))
	for key, doc := range docs {
		date, err := parseCalendarDate(key, loc)
		if err != nil {
			violations = append(violations, fmt.Errorf("calendar: %w", err))
			continue
		}
		entries = append(entries, dated{date: date, key: key, doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].date.Before(entries[j].date) })

	cal := &Calendar{}
	for i, e := range entries {
		entry := Entry{Start: e.date, Plan: e.doc.Plan, Season: e.doc.Season}
		if e.doc.Tariffs != nil {
			tariffs, errs := buildRateTable(e.key, e.doc.Tariffs)
			violations = append(violations, errs...)
			entry.Tariffs = tariffs
		}

		if i == 0 {
			if entry.Plan == "" || entry.Season == "" || entry.Tariffs == nil {
				violations = append(violations, fmt.Errorf(
					"calendar: first entry %s must define plan, season and tariffs", e.key))
			}
		} else {
			// Inherit whatever this entry omits from the accumulated state.
			prev := cal.entries[len(cal.entries)-1]
			if entry.Plan == "" {
				entry.Plan = prev.Plan
			}
			if entry.Season == "" {
				entry.Season = prev.Season
			}
			if entry.Tariffs == nil {
				entry.Tariffs = prev.Tariffs
			}
		}

		violations = append(violations, validateEntry(e.key, entry, plans)...)
		cal.entries = append(cal.entries, entry)
	}

	// Link end dates so range splitting can work from a single entry.
	for i := range cal.entries {
		if i+1 < len(cal.entries) {
			cal.entries[i].End = cal.entries[i+1].Start
		}
	}

	return cal, violations
}

// validateEntry checks the entry's references into the plan graph.
func validateEntry(key string, entry Entry, plans map[string]*Plan) []error {
	var violations []error

	plan, ok := plans[entry.Plan]
	if entry.Plan != "" && !ok {
		violations = append(violations, fmt.Errorf("calendar %s: undefined plan %q", key, entry.Plan))
	}
	if plan == nil {
		return violations
	}

	if entry.Season != "" && !plan.SeasonDefined(entry.Season) {
		violations = append(violations, fmt.Errorf("calendar %s: season %q is not defined for plan %q", key, entry.Season, entry.Plan))
		return violations
	}

	for tariff := range entry.Tariffs {
		if !plan.TariffDefined(entry.Season, tariff) {
			violations = append(violations, fmt.Errorf("calendar %s: undefined tariff %q for %s/%s", key, tariff, entry.Plan, entry.Season))
		}
	}
	return violations
}

// buildRateTable resolves the document's rate labels to canonical columns.
func buildRateTable(key string, docs map[string]map[string]float64) (RateTable, []error) {
	var violations []error
	table := make(RateTable, len(docs))
	for tariff, rates := range docs {
		resolved := make(map[types.Column]float64, len(rates))
		for label, rate := range rates {
			col, ok := types.ColumnFromName(label)
			if !ok {
				violations = append(violations, fmt.Errorf("calendar %s: invalid rate label %q for tariff %q", key, label, tariff))
				continue
			}
			resolved[col] = rate
		}
		table[tariff] = resolved
	}
	return table, violations
}

// parseCalendarDate reads an ISO calendar date as local midnight in the
// configured timezone. Any time or offset in the string is dropped, matching
// the documented behaviour of treating calendar keys as local dates.
func parseCalendarDate(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, key); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid calendar date %q", key)
}
