// internal/stats/streak.go
package stats

import (
	"sort"
	"time"

	"github-wrapped/internal/model"
)

// DateLayout is the ISO date format used for contribution calendar keys.
// Lexical order on these keys is chronological order.
const DateLayout = "2006-01-02"

// Today returns the current UTC date in calendar-key form.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// ComputeStreak derives streak metrics from a date->count contribution
// calendar. today is an ISO date; days after it never advance the current
// streak, but a zero-count day dated at or after today breaks it.
func ComputeStreak(calendar map[string]int, today string) model.StreakRecord {
	dates := make([]string, 0, len(calendar))
	for date := range calendar {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var currentStreak, longestStreak, tempStreak, totalDays int

	for _, date := range dates {
		if calendar[date] > 0 {
			tempStreak++
			totalDays++
			if tempStreak > longestStreak {
				longestStreak = tempStreak
			}
			if date <= today {
				currentStreak = tempStreak
			}
		} else {
			tempStreak = 0
			if date >= today {
				currentStreak = 0
			}
		}
	}

	return model.StreakRecord{
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
		TotalDays:     totalDays,
	}
}
