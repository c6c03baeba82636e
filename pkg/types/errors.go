package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConfigError reports every violation found while validating a configuration
// document. Validation is exhaustive rather than fail-fast so a document can
// be fixed in one pass.
type ConfigError struct {
	Violations []error
}

func (e *ConfigError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid configuration"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("invalid configuration (%d violations):\n  %s",
		len(e.Violations), strings.Join(msgs, "\n  "))
}

// Unwrap exposes the individual violations to errors.Is/As.
func (e *ConfigError) Unwrap() []error {
	return e.Violations
}

// DateOutOfRangeError indicates a query date precedes the earliest calendar
// entry.
type DateOutOfRangeError struct {
	Date     time.Time
	Earliest time.Time
}

func (e *DateOutOfRangeError) Error() string {
	return fmt.Sprintf("date %s precedes earliest calendar entry %s",
		e.Date.Format(time.RFC3339), e.Earliest.Format(time.RFC3339))
}

// UnknownScheduleError indicates a season override references a schedule name
// that the base season never defined.
type UnknownScheduleError struct {
	Plan     string
	Season   string
	Schedule string
}

func (e *UnknownScheduleError) Error() string {
	return fmt.Sprintf("plan %q season %q overrides undefined schedule %q",
		e.Plan, e.Season, e.Schedule)
}

// AmbiguousScheduleError indicates more than one schedule in the resolved
// season claims the same weekday.
type AmbiguousScheduleError struct {
	Plan      string
	Season    string
	Weekday   time.Weekday
	Schedules []string
}

func (e *AmbiguousScheduleError) Error() string {
	return fmt.Sprintf("plan %q season %q: schedules %s all claim %s",
		e.Plan, e.Season, strings.Join(e.Schedules, ", "), e.Weekday)
}

// NoScheduleError indicates no schedule in the resolved season claims the
// weekday.
type NoScheduleError struct {
	Plan    string
	Season  string
	Weekday time.Weekday
}

func (e *NoScheduleError) Error() string {
	return fmt.Sprintf("plan %q season %q: no schedule claims %s",
		e.Plan, e.Season, e.Weekday)
}

// ErrUpstreamData marks failures of the time-series data source. Wrap with
// UpstreamDataError so callers can test with errors.Is.
var ErrUpstreamData = errors.New("upstream data source error")

// UpstreamDataError wraps a data-source failure. It is propagated to the
// caller untransformed and never retried inside the engine.
type UpstreamDataError struct {
	Err error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream data source: %v", e.Err)
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }

// Is reports ErrUpstreamData for any UpstreamDataError.
func (e *UpstreamDataError) Is(target error) bool {
	return target == ErrUpstreamData
}
