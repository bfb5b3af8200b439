package history

import (
	"sort"
	"time"
)

// Streak is the consecutive-day workout count. InsufficientData marks a
// user with no logged dates at all, which is an explicit result here
// rather than an invented placeholder number.
type Streak struct {
	Days             int  `json:"days"`
	InsufficientData bool `json:"insufficient_data,omitempty"`
}

// CurrentStreak counts consecutive workout days ending today or
// yesterday. Logging a workout yesterday keeps the streak alive for the
// whole of today; a gap of two or more days breaks it.
func CurrentStreak(dates []time.Time, today time.Time) Streak {
	if len(dates) == 0 {
		return Streak{InsufficientData: true}
	}

	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, utcMidnight(d))
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	todayDay := utcMidnight(today)
	yesterday := todayDay.AddDate(0, 0, -1)

	if days[0].Before(yesterday) {
		return Streak{Days: 0}
	}

	streak := 1
	current := days[0]
	for _, d := range days[1:] {
		gap := int(current.Sub(d).Hours() / 24)
		switch {
		case gap == 0:
			// duplicate day, skip
		case gap == 1:
			streak++
			current = d
		default:
			return Streak{Days: streak}
		}
	}

	return Streak{Days: streak}
}

// utcMidnight maps a timestamp to the UTC midnight of its own calendar
// day. Gap arithmetic then works on exact 24h multiples, so DST shifts
// and mixed timezones between the db and the server cannot turn a
// 23 or 25 hour day into the wrong gap.
func utcMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
