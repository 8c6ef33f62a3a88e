package respond

import (
	"strings"
	"time"
)

// timeRange is a half-open [From, To) interval with the label used in
// the reply.
type timeRange struct {
	From  time.Time
	To    time.Time
	Label string
}

// parseTimeRange maps the natural phrases the tracking intent sees to
// a concrete interval. Unrecognized phrasing defaults to the last
// seven days.
func parseTimeRange(text string, now time.Time) timeRange {
	lowered := strings.ToLower(text)
	day := now.Truncate(24 * time.Hour)

	switch {
	case strings.Contains(lowered, "today"):
		return timeRange{From: day, To: day.Add(24 * time.Hour), Label: "today"}
	case strings.Contains(lowered, "yesterday"):
		return timeRange{From: day.Add(-24 * time.Hour), To: day, Label: "yesterday"}
	case strings.Contains(lowered, "this week"):
		return timeRange{From: startOfWeek(day), To: now.Add(time.Second), Label: "this week"}
	case strings.Contains(lowered, "last week"):
		start := startOfWeek(day).Add(-7 * 24 * time.Hour)
		return timeRange{From: start, To: start.Add(7 * 24 * time.Hour), Label: "last week"}
	case strings.Contains(lowered, "this month"):
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return timeRange{From: start, To: now.Add(time.Second), Label: "this month"}
	case strings.Contains(lowered, "last month"):
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return timeRange{From: first.AddDate(0, -1, 0), To: first, Label: "last month"}
	}

	return timeRange{From: now.Add(-7 * 24 * time.Hour), To: now.Add(time.Second), Label: "the last 7 days"}
}

// startOfWeek treats Monday as the first day.
func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.Add(-time.Duration(weekday-1) * 24 * time.Hour)
}
