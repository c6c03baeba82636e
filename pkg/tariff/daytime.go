package tariff

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayTime is a time of day as an offset from local midnight. A resolved
// period start may be negative (started the previous day) and a period end
// may exceed 24h (runs past midnight).
type DayTime time.Duration

// Day is one full day.
const Day = DayTime(24 * time.Hour)

// ParseDayTime parses "15:04" or "15:04:05" into a DayTime.
func ParseDayTime(s string) (DayTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var hms [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		hms[i] = v
	}
	if hms[0] > 23 || hms[1] > 59 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	d := time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second
	return DayTime(d), nil
}

// DayTimeOf returns the DayTime of the given local timestamp.
func DayTimeOf(t time.Time) DayTime {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DayTime(t.Sub(midnight))
}

func (d DayTime) String() string {
	dd := time.Duration(d)
	neg := ""
	if dd < 0 {
		neg = "-"
		dd = -dd
	}
	h := dd / time.Hour
	m := (dd % time.Hour) / time.Minute
	return fmt.Sprintf("%s%02d:%02d", neg, h, m)
}
