package tariff

import (
	"sort"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// ActivePeriod is the tariff window in effect at a point in time. Start may
// be negative when the period began the previous day; End may exceed 24h when
// it runs past midnight. Start <= t < End always holds for the queried time.
type ActivePeriod struct {
	Schedule string
	Tariff   string
	Start    DayTime
	End      DayTime
}

// Duration returns the width of the period.
func (p ActivePeriod) Duration() time.Duration {
	return time.Duration(p.End - p.Start)
}

// ActiveTariff finds the tariff in effect on the given weekday at the given
// time of day. Exactly one schedule in the season must claim the weekday.
// A time before the first period of the day belongs to the latest-starting
// period, which wrapped around from the previous day.
func (s *Season) ActiveTariff(weekday time.Weekday, t DayTime) (ActivePeriod, error) {
	var schedule *Schedule
	var claims []string
	// Map order is not deterministic, so gather claims sorted for stable
	// error messages.
	for _, name := range sortedScheduleNames(s.Schedules) {
		candidate := s.Schedules[name]
		if candidate.Days[weekday] {
			claims = append(claims, name)
			schedule = candidate
		}
	}
	switch len(claims) {
	case 0:
		return ActivePeriod{}, &types.NoScheduleError{Plan: s.Plan, Season: s.Name, Weekday: weekday}
	case 1:
	default:
		return ActivePeriod{}, &types.AmbiguousScheduleError{
			Plan: s.Plan, Season: s.Name, Weekday: weekday, Schedules: claims,
		}
	}

	periods := schedule.Periods
	n := len(periods)

	// Greatest start <= t; sort.Search finds the first start > t.
	idx := sort.Search(n, func(i int) bool { return periods[i].Start > t }) - 1

	if idx < 0 {
		// Before the first period of the day: the latest period is still
		// active, having started yesterday.
		last := periods[n-1]
		return ActivePeriod{
			Schedule: schedule.Name,
			Tariff:   last.Tariff,
			Start:    last.Start - Day,
			End:      periods[0].Start,
		}, nil
	}

	p := periods[idx]
	end := p.Start + Day
	if idx+1 < n {
		end = periods[idx+1].Start
	} else if n > 1 {
		end = periods[0].Start + Day
	}
	return ActivePeriod{
		Schedule: schedule.Name,
		Tariff:   p.Tariff,
		Start:    p.Start,
		End:      end,
	}, nil
}

func sortedScheduleNames(schedules map[string]*Schedule) []string {
	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
