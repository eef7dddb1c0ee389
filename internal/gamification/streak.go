package gamification

import (
	"sort"
	"time"
)

// StreakOf counts consecutive days of activity ending today or yesterday.
// Timestamps at any granularity are accepted; duplicates within a day
// collapse to one.
func StreakOf(activity []time.Time) int {
	return StreakOn(time.Now(), activity)
}

// StreakOn is StreakOf evaluated at an explicit reference time.
func StreakOn(now time.Time, activity []time.Time) int {
	days := uniqueDaysDesc(now.Location(), activity)
	if len(days) == 0 {
		return 0
	}

	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	// Activity today OR yesterday keeps the streak alive; anything older
	// breaks it no matter how long the historical run was.
	mostRecent := days[0]
	if mostRecent.Before(yesterday) {
		return 0
	}

	count := 0
	expected := mostRecent
	for _, day := range days {
		if !day.Equal(expected) {
			break
		}
		count++
		expected = expected.AddDate(0, 0, -1)
	}
	return count
}

// AtRisk reports whether the streak will break at midnight: activity
// yesterday but none yet today.
func AtRisk(activity []time.Time) bool {
	return AtRiskOn(time.Now(), activity)
}

// AtRiskOn is AtRisk evaluated at an explicit reference time.
func AtRiskOn(now time.Time, activity []time.Time) bool {
	days := uniqueDaysDesc(now.Location(), activity)
	if len(days) == 0 {
		return false
	}

	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	hasToday := false
	hasYesterday := false
	for _, day := range days {
		if day.Equal(today) {
			hasToday = true
		}
		if day.Equal(yesterday) {
			hasYesterday = true
		}
	}
	return hasYesterday && !hasToday
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func uniqueDaysDesc(loc *time.Location, activity []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(activity))
	days := make([]time.Time, 0, len(activity))
	for _, t := range activity {
		if t.IsZero() {
			continue
		}
		day := startOfDay(t.In(loc))
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
