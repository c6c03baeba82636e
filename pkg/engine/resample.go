package engine

import (
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
)

// BucketWidth is the resampling granularity chosen from the query span.
type BucketWidth int

const (
	BucketHourly BucketWidth = iota
	BucketWeekly
	BucketMonthly
	BucketYearly
)

func (w BucketWidth) String() string {
	switch w {
	case BucketHourly:
		return "hourly"
	case BucketWeekly:
		return "weekly"
	case BucketMonthly:
		return "monthly"
	case BucketYearly:
		return "yearly"
	}
	return "unknown"
}

// WidthForSpan picks the bucket width from the total query span alone:
// up to a day hourly, up to a month weekly, up to a year monthly, beyond
// that yearly. Boundaries are calendar-aware, not fixed hour counts.
func WidthForSpan(start, stop time.Time) BucketWidth {
	switch {
	case !stop.After(start.AddDate(0, 0, 1)):
		return BucketHourly
	case !stop.After(start.AddDate(0, 1, 0)):
		return BucketWeekly
	case !stop.After(start.AddDate(1, 0, 0)):
		return BucketMonthly
	default:
		return BucketYearly
	}
}

// Resample groups the intervals into buckets chosen from the query span and
// sums every report column within each bucket. All report variables are
// additive (energy and cost), so summation is the only aggregation.
// Timestamps of the output are the bucket starts. Input order is preserved;
// intervals are assumed time-sorted.
func Resample(ivs []*Interval, start, stop time.Time, week config.WeekAnchor, year time.Month) []*Interval {
	if len(ivs) == 0 {
		return ivs
	}

	width := WidthForSpan(start, stop)

	var out []*Interval
	var current *Interval
	var currentStart time.Time

	for _, iv := range ivs {
		bs := bucketStart(iv.TS, width, week, year)
		if current == nil || !bs.Equal(currentStart) {
			current = &Interval{Report: make(map[string]float64, len(iv.Report))}
			current.TS = bs
			currentStart = bs
			out = append(out, current)
		}
		current.Duration += iv.Duration
		for name, value := range iv.Report {
			current.Report[name] += value
		}
	}
	return out
}

// bucketStart returns the start of the bucket containing t.
func bucketStart(t time.Time, width BucketWidth, week config.WeekAnchor, year time.Month) time.Time {
	loc := t.Location()
	switch width {
	case BucketHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case BucketWeekly:
		if week.MonthStart {
			// Weeks are counted from the first day of the containing month;
			// the trailing short week simply absorbs the leftover days.
			weekIdx := (t.Day() - 1) / 7
			return time.Date(t.Year(), t.Month(), 1+7*weekIdx, 0, 0, 0, 0, loc)
		}
		back := (int(t.Weekday()) - int(week.Weekday) + 7) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, loc)
	case BucketMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return yearStart(t, year)
	}
}

// yearStart returns the start of the anchored year containing t.
func yearStart(t time.Time, anchor time.Month) time.Time {
	y := t.Year()
	if t.Month() < anchor {
		y--
	}
	return time.Date(y, anchor, 1, 0, 0, 0, 0, t.Location())
}

// monthStart returns the start of the calendar month containing t.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
