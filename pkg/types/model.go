package types

import "time"

// Row is one measurement interval from the data source. Rows are immutable
// inputs: derived variables live alongside the raw values in computed maps so
// the original measurement stays auditable.
type Row struct {
	TS       time.Time     `json:"ts"`
	Duration time.Duration `json:"duration"`
	// Values holds the raw channel readings keyed by canonical column.
	Values map[Column]float64 `json:"values"`
}

// Value returns the reading for the column, or zero if the channel is absent.
func (r Row) Value(c Column) float64 {
	return r.Values[c]
}

// QueryPayload carries the per-query options from the reporting front end.
// Resample is a pointer so an absent flag falls back to the configured
// default.
type QueryPayload struct {
	Summary     bool  `json:"summary"`
	MonthToDate bool  `json:"monthToDate"`
	YearToDate  bool  `json:"yearToDate"`
	Resample    *bool `json:"resample"`
}

// TableColumn describes one column of a result table.
type TableColumn struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Table is the flat result table consumed by the reporting front end.
type Table struct {
	Type    string        `json:"type"`
	Name    string        `json:"name"`
	Columns []TableColumn `json:"columns"`
	Rows    [][]any       `json:"rows"`
}
