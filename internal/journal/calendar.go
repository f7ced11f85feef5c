package journal

import (
	"time"

	"github.com/onelinediary/server/internal/models"
)

const dayKeyLayout = "2006-01-02"

// MonthWindow returns a deliberately wide [start, end) range around the calendar
// month: from the 25th of the previous month to the end of the 5th of the next.
// Rows inside the window must still pass InMonth.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month-1, 25, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 6, 0, 0, 0, 0, loc)
	return start.UTC(), end.UTC()
}

// InMonth reports whether t falls in the given local calendar month.
func InMonth(t time.Time, year int, month time.Month, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Year() == year && local.Month() == month
}

// FilterMonth keeps the diaries created in the given local calendar month, preserving order.
func FilterMonth(diaries []models.Diary, year int, month time.Month, loc *time.Location) []models.Diary {
	out := make([]models.Diary, 0, len(diaries))
	for _, d := range diaries {
		if InMonth(d.CreatedAt, year, month, loc) {
			out = append(out, d)
		}
	}
	return out
}

// DayKey formats t as a local calendar date.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayKeyLayout)
}

// DayBounds returns the UTC [start, end) range of the local calendar day containing t.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// Streak counts consecutive local days with at least one entry, ending today and
// looking back at most maxDays days. A day without an entry ends the count.
func Streak(entries []time.Time, now time.Time, loc *time.Location, maxDays int) int {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]struct{}, len(entries))
	for _, t := range entries {
		days[DayKey(t, loc)] = struct{}{}
	}
	today := now.In(loc)
	streak := 0
	for i := 0; i < maxDays; i++ {
		day := time.Date(today.Year(), today.Month(), today.Day()-i, 12, 0, 0, 0, loc)
		if _, ok := days[day.Format(dayKeyLayout)]; !ok {
			break
		}
		streak++
	}
	return streak
}
