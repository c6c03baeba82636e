// Package config models the usage configuration document: global settings, an
// ordered list of usage plans and a tariff calendar. Documents load as a whole
// or not at all; validation is exhaustive so a broken document reports every
// problem in one pass.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the raw, unvalidated configuration document.
type Document struct {
	Settings SettingsDoc            `json:"settings" yaml:"settings"`
	Plans    []PlanDoc              `json:"plans" yaml:"plans"`
	Calendar map[string]CalendarDoc `json:"calendar" yaml:"calendar"`
}

// SettingsDoc is the raw settings section.
type SettingsDoc struct {
	InfluxURL   string `json:"influx_url" yaml:"influx_url"`
	InfluxOrg   string `json:"influx_org" yaml:"influx_org"`
	InfluxToken string `json:"influx_token" yaml:"influx_token"`
	Bucket      string `json:"bucket" yaml:"bucket"`
	Timezone    string `json:"timezone" yaml:"timezone"`

	CostUnit   string `json:"cost_unit" yaml:"cost_unit"`
	EnergyUnit string `json:"energy_unit" yaml:"energy_unit"`

	// Rename maps canonical column names to user labels.
	Rename map[string]string `json:"rename" yaml:"rename"`

	// SupplyPriority orders the three supplies for demand allocation.
	SupplyPriority []string `json:"supplyPriority" yaml:"supplyPriority"`

	// Resample toggles resampling by default; a query payload can override it.
	Resample *bool `json:"resample" yaml:"resample"`

	// WeekAnchor is MONTH_START or a weekday name; YearAnchor is a month name.
	WeekAnchor string `json:"week_anchor" yaml:"week_anchor"`
	YearAnchor string `json:"year_anchor" yaml:"year_anchor"`
}

// PlanDoc is one usage plan: report variables, the agent that costs them and
// an ordered season sequence. The first season is the base season.
type PlanDoc struct {
	Name    string      `json:"name" yaml:"name"`
	Agent   string      `json:"agent" yaml:"agent"`
	Report  []string    `json:"report" yaml:"report"`
	Seasons []SeasonDoc `json:"seasons" yaml:"seasons"`
}

// SeasonDoc is a named set of schedule definitions or overrides.
type SeasonDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Schedules []ScheduleDoc `json:"schedules" yaml:"schedules"`
}

// ScheduleDoc defines or overrides a schedule. Days uses 0=Monday..6=Sunday.
// Periods maps a day-local start time ("15:04") to a tariff name. For a
// non-base season, omitting Days or Periods inherits the value from the
// previous season.
type ScheduleDoc struct {
	Schedule string            `json:"schedule" yaml:"schedule"`
	Days     []int             `json:"days" yaml:"days"`
	Periods  map[string]string `json:"periods" yaml:"periods"`
}

// CalendarDoc is one dated calendar entry. All fields are optional except on
// the chronologically first entry; omitted fields inherit from the previous
// entry in date order.
type CalendarDoc struct {
	Plan    string                        `json:"plan" yaml:"plan"`
	Season  string                        `json:"season" yaml:"season"`
	Tariffs map[string]map[string]float64 `json:"tariffs" yaml:"tariffs"`
}

// Parse decodes a document from JSON or YAML, chosen by the source name's
// extension. Anything that isn't .yaml/.yml is treated as JSON.
func Parse(data []byte, name string) (*Document, error) {
	var doc Document
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	return &doc, nil
}

func isYAML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
