// Package tariff holds the validated tariff graph: usage plans with their
// seasons and schedules, plus the calendar that activates them over time. The
// graph is immutable once built; resolvers hold read-only references.
package tariff

import (
	"fmt"
	"sort"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// TariffPeriod is one time-of-day window in a schedule. Its end is the next
// period's start, wrapping past midnight for the latest period of the day.
type TariffPeriod struct {
	Tariff string
	Start  DayTime
}

// Schedule is a day-group plus its ordered tariff periods. Periods are sorted
// by start time and form a circular sequence across midnight.
type Schedule struct {
	Name    string
	Days    map[time.Weekday]bool
	Periods []TariffPeriod
}

// TariffDefined reports whether any period of the schedule uses the tariff.
func (s *Schedule) TariffDefined(tariff string) bool {
	for _, p := range s.Periods {
		if p.Tariff == tariff {
			return true
		}
	}
	return false
}

// Season is a fully resolved season: every schedule of the plan with season
// overrides already applied.
type Season struct {
	Plan      string
	Name      string
	Schedules map[string]*Schedule
}

// Plan is one usage plan. Seasons are kept in definition order; the first is
// the base season and each later one is resolved against its predecessor at
// load time.
type Plan struct {
	Name   string
	Agent  string
	Report []types.Column

	seasonOrder []string
	seasons     map[string]*Season
}

// SeasonDefined reports whether the plan defines the season.
func (p *Plan) SeasonDefined(name string) bool {
	_, ok := p.seasons[name]
	return ok
}

// Season returns the resolved season.
func (p *Plan) Season(name string) (*Season, error) {
	s, ok := p.seasons[name]
	if !ok {
		return nil, fmt.Errorf("plan %q has no season %q", p.Name, name)
	}
	return s, nil
}

// Seasons returns the season names in definition order.
func (p *Plan) Seasons() []string {
	return p.seasonOrder
}

// TariffDefined reports whether the season uses the tariff in any schedule.
func (p *Plan) TariffDefined(season, tariff string) bool {
	s, ok := p.seasons[season]
	if !ok {
		return false
	}
	for _, schedule := range s.Schedules {
		if schedule.TariffDefined(tariff) {
			return true
		}
	}
	return false
}

// buildPlan validates one plan document and resolves its seasons.
func buildPlan(doc config.PlanDoc) (*Plan, []error) {
	var violations []error

	if doc.Name == "" {
		violations = append(violations, fmt.Errorf("a usage plan is missing its name"))
		// Without a name the remaining diagnostics would be anonymous; keep
		// going anyway so period/day problems still surface.
	}
	p := &Plan{
		Name:    doc.Name,
		Agent:   doc.Agent,
		seasons: make(map[string]*Season),
	}

	if doc.Agent == "" {
		violations = append(violations, fmt.Errorf("plan %q: missing usage agent", doc.Name))
	}

	if len(doc.Report) == 0 {
		violations = append(violations, fmt.Errorf("plan %q: no report variables", doc.Name))
	}
	for _, name := range doc.Report {
		col, ok := types.ColumnFromName(name)
		if !ok {
			violations = append(violations, fmt.Errorf("plan %q: unrecognised report name %q", doc.Name, name))
			continue
		}
		p.Report = append(p.Report, col)
	}

	if len(doc.Seasons) == 0 {
		violations = append(violations, fmt.Errorf("plan %q: no seasons defined", doc.Name))
		return p, violations
	}

	var prev *Season
	for i, seasonDoc := range doc.Seasons {
		season, errs := buildSeason(doc.Name, seasonDoc, i == 0, prev)
		violations = append(violations, errs...)
		if _, dup := p.seasons[season.Name]; dup {
			violations = append(violations, fmt.Errorf("plan %q: duplicate season %q", doc.Name, season.Name))
			continue
		}
		p.seasons[season.Name] = season
		p.seasonOrder = append(p.seasonOrder, season.Name)
		prev = season
	}

	return p, violations
}

// buildSeason resolves one season against its predecessor. The base season
// must fully define every schedule; later seasons may override days, periods
// or both and inherit the rest. An override naming a schedule absent from the
// inherited set is rejected.
func buildSeason(plan string, doc config.SeasonDoc, base bool, prev *Season) (*Season, []error) {
	var violations []error

	season := &Season{
		Plan:      plan,
		Name:      doc.Name,
		Schedules: make(map[string]*Schedule),
	}
	if doc.Name == "" {
		violations = append(violations, fmt.Errorf("plan %q: a season is missing its name", plan))
	}

	for _, sd := range doc.Schedules {
		if sd.Schedule == "" {
			violations = append(violations, fmt.Errorf("plan %q season %q: a schedule is missing its 'schedule' name", plan, doc.Name))
			continue
		}
		if _, dup := season.Schedules[sd.Schedule]; dup {
			violations = append(violations, fmt.Errorf("plan %q season %q: duplicate schedule %q", plan, doc.Name, sd.Schedule))
			continue
		}

		var inherited *Schedule
		if prev != nil {
			inherited = prev.Schedules[sd.Schedule]
		}
		if !base && inherited == nil {
			violations = append(violations, &types.UnknownScheduleError{
				Plan: plan, Season: doc.Name, Schedule: sd.Schedule,
			})
			continue
		}

		schedule := &Schedule{Name: sd.Schedule}
		if inherited != nil {
			schedule.Days = inherited.Days
			schedule.Periods = inherited.Periods
		}

		if sd.Days != nil {
			days, errs := buildDays(plan, doc.Name, sd)
			violations = append(violations, errs...)
			schedule.Days = days
		}
		if sd.Periods != nil {
			periods, errs := buildPeriods(plan, doc.Name, sd)
			violations = append(violations, errs...)
			schedule.Periods = periods
		}

		if len(schedule.Days) == 0 {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: no weekdays", plan, doc.Name, sd.Schedule))
		}
		if len(schedule.Periods) == 0 {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: no periods", plan, doc.Name, sd.Schedule))
		}

		season.Schedules[sd.Schedule] = schedule
	}

	// Schedules not mentioned by this season carry over unchanged.
	if prev != nil {
		for name, schedule := range prev.Schedules {
			if _, ok := season.Schedules[name]; !ok {
				season.Schedules[name] = schedule
			}
		}
	}

	return season, violations
}

// buildDays converts document weekdays (0=Monday..6=Sunday) to time.Weekday.
func buildDays(plan, season string, sd config.ScheduleDoc) (map[time.Weekday]bool, []error) {
	var violations []error
	days := make(map[time.Weekday]bool, len(sd.Days))
	for _, d := range sd.Days {
		if d < 0 || d > 6 {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: weekday %d out of range 0-6", plan, season, sd.Schedule, d))
			continue
		}
		wd := time.Weekday((d + 1) % 7)
		if days[wd] {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: duplicate weekday %d", plan, season, sd.Schedule, d))
			continue
		}
		days[wd] = true
	}
	return days, violations
}

// buildPeriods parses and sorts the start-time keyed period map.
func buildPeriods(plan, season string, sd config.ScheduleDoc) ([]TariffPeriod, []error) {
	var violations []error
	periods := make([]TariffPeriod, 0, len(sd.Periods))
	for start, tariff := range sd.Periods {
		dt, err := ParseDayTime(start)
		if err != nil {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: %w", plan, season, sd.Schedule, err))
			continue
		}
		if tariff == "" {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: period %s has no tariff", plan, season, sd.Schedule, start))
			continue
		}
		periods = append(periods, TariffPeriod{Tariff: tariff, Start: dt})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start < periods[j].Start })
	for i := 1; i < len(periods); i++ {
		if periods[i].Start == periods[i-1].Start {
			violations = append(violations, fmt.Errorf("plan %q season %q schedule %q: duplicate period start %s", plan, season, sd.Schedule, periods[i].Start))
		}
	}
	return periods, violations
}
