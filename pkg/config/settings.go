package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// WeekAnchor selects where weekly resampling buckets begin: either a fixed
// weekday, or the first day of the containing month.
type WeekAnchor struct {
	MonthStart bool
	Weekday    time.Weekday
}

// MonthStartAnchor is the sentinel name for month-aligned weekly buckets.
const MonthStartAnchor = "MONTH_START"

// DefaultSupplyPriority is the allocation order used when the settings omit
// supplyPriority.
var DefaultSupplyPriority = [3]types.Column{
	types.ColumnGridSupply,
	types.ColumnPWSupply,
	types.ColumnSolarSupply,
}

// Settings is the validated global settings section.
type Settings struct {
	InfluxURL   string
	InfluxOrg   string
	InfluxToken string
	Bucket      string

	Timezone string
	Location *time.Location

	CostUnit   string
	EnergyUnit string

	Rename          map[types.Column]string
	SupplyPriority  [3]types.Column
	ResampleDefault bool
	WeekAnchor      WeekAnchor
	YearAnchor      time.Month
}

var weekdayNames = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

var monthNames = map[string]time.Month{
	"JANUARY":   time.January,
	"FEBRUARY":  time.February,
	"MARCH":     time.March,
	"APRIL":     time.April,
	"MAY":       time.May,
	"JUNE":      time.June,
	"JULY":      time.July,
	"AUGUST":    time.August,
	"SEPTEMBER": time.September,
	"OCTOBER":   time.October,
	"NOVEMBER":  time.November,
	"DECEMBER":  time.December,
}

// Build validates the raw settings and applies defaults. All violations found
// are returned together.
func (d SettingsDoc) Build() (Settings, []error) {
	var violations []error

	s := Settings{
		InfluxURL:       d.InfluxURL,
		InfluxOrg:       d.InfluxOrg,
		InfluxToken:     d.InfluxToken,
		Bucket:          d.Bucket,
		Timezone:        d.Timezone,
		CostUnit:        "$",
		EnergyUnit:      "kWh",
		SupplyPriority:  DefaultSupplyPriority,
		ResampleDefault: true,
		WeekAnchor:      WeekAnchor{MonthStart: true},
		YearAnchor:      time.January,
	}

	if d.InfluxURL == "" {
		violations = append(violations, fmt.Errorf("settings: influx_url is required"))
	}
	if d.Bucket == "" {
		violations = append(violations, fmt.Errorf("settings: bucket is required"))
	}

	if d.Timezone == "" {
		violations = append(violations, fmt.Errorf("settings: timezone is required"))
	} else if loc, err := time.LoadLocation(d.Timezone); err != nil {
		violations = append(violations, fmt.Errorf("settings: invalid timezone %q: %w", d.Timezone, err))
	} else {
		s.Location = loc
	}

	if d.CostUnit != "" {
		s.CostUnit = d.CostUnit
	}
	if d.EnergyUnit != "" {
		s.EnergyUnit = d.EnergyUnit
	}
	if d.Resample != nil {
		s.ResampleDefault = *d.Resample
	}

	if len(d.Rename) > 0 {
		s.Rename = make(map[types.Column]string, len(d.Rename))
		for name, label := range d.Rename {
			col, ok := types.ColumnFromName(name)
			if !ok {
				violations = append(violations, fmt.Errorf("settings: unrecognised rename field %q", name))
				continue
			}
			s.Rename[col] = label
		}
	}

	if len(d.SupplyPriority) > 0 {
		priority, err := buildSupplyPriority(d.SupplyPriority)
		if err != nil {
			violations = append(violations, err)
		} else {
			s.SupplyPriority = priority
		}
	}

	if d.WeekAnchor != "" {
		name := strings.ToUpper(d.WeekAnchor)
		if name == MonthStartAnchor {
			s.WeekAnchor = WeekAnchor{MonthStart: true}
		} else if wd, ok := weekdayNames[name]; ok {
			s.WeekAnchor = WeekAnchor{Weekday: wd}
		} else {
			violations = append(violations, fmt.Errorf("settings: invalid week_anchor %q (want %s or a weekday name)", d.WeekAnchor, MonthStartAnchor))
		}
	}

	if d.YearAnchor != "" {
		if m, ok := monthNames[strings.ToUpper(d.YearAnchor)]; ok {
			s.YearAnchor = m
		} else {
			violations = append(violations, fmt.Errorf("settings: invalid year_anchor %q (want a month name)", d.YearAnchor))
		}
	}

	return s, violations
}

// buildSupplyPriority checks the configured priority is a permutation of the
// three supply channels.
func buildSupplyPriority(names []string) ([3]types.Column, error) {
	var priority [3]types.Column
	if len(names) != 3 {
		return priority, fmt.Errorf("settings: supplyPriority must list exactly the three supplies %v (got %d entries)",
			priorityNames(), len(names))
	}
	seen := make(map[types.Column]bool, 3)
	for i, name := range names {
		col, ok := types.ColumnFromName(name)
		if !ok || !isSupply(col) {
			return priority, fmt.Errorf("settings: supplyPriority entry %q is not one of %v", name, priorityNames())
		}
		if seen[col] {
			return priority, fmt.Errorf("settings: supplyPriority lists %q more than once", name)
		}
		seen[col] = true
		priority[i] = col
	}
	return priority, nil
}

func isSupply(c types.Column) bool {
	for _, s := range DefaultSupplyPriority {
		if s == c {
			return true
		}
	}
	return false
}

func priorityNames() []string {
	names := make([]string, len(DefaultSupplyPriority))
	for i, c := range DefaultSupplyPriority {
		names[i] = c.Name()
	}
	return names
}
