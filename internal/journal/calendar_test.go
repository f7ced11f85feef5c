package journal

import (
	"testing"
	"time"

	"github.com/onelinediary/server/internal/models"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestMonthWindow_WrapsYear(t *testing.T) {
	start, end := MonthWindow(2025, time.January, time.UTC)
	if !start.Equal(time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %s", start)
	}
	if !end.Equal(time.Date(2025, time.February, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %s", end)
	}

	start, end = MonthWindow(2025, time.December, time.UTC)
	if !start.Equal(time.Date(2025, time.November, 25, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %s", start)
	}
	if !end.Equal(time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %s", end)
	}
}

func TestFilterMonth_LocalBoundaries(t *testing.T) {
	seoul := mustLoc(t, "Asia/Seoul")
	lastMinuteOfMarch := time.Date(2025, time.March, 31, 23, 59, 0, 0, seoul)
	firstMinuteOfApril := time.Date(2025, time.April, 1, 0, 0, 30, 0, seoul)
	midApril := time.Date(2025, time.April, 15, 12, 0, 0, 0, seoul)

	diaries := []models.Diary{
		{ID: 1, CreatedAt: lastMinuteOfMarch.UTC()},
		{ID: 2, CreatedAt: firstMinuteOfApril.UTC()},
		{ID: 3, CreatedAt: midApril.UTC()},
	}

	march := FilterMonth(diaries, 2025, time.March, seoul)
	if len(march) != 1 || march[0].ID != 1 {
		t.Fatalf("expected only diary 1 in March, got %+v", march)
	}
	april := FilterMonth(diaries, 2025, time.April, seoul)
	if len(april) != 2 || april[0].ID != 2 || april[1].ID != 3 {
		t.Fatalf("expected diaries 2 and 3 in April, got %+v", april)
	}
}

func TestStreak(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.May, 10, 9, 0, 0, 0, loc)
	day := func(offset int, hour int) time.Time {
		return time.Date(2025, time.May, 10-offset, hour, 0, 0, 0, loc)
	}

	tests := []struct {
		name    string
		entries []time.Time
		want    int
	}{
		{name: "empty", entries: nil, want: 0},
		{name: "no entry today", entries: []time.Time{day(1, 10), day(2, 10)}, want: 0},
		{name: "three days", entries: []time.Time{day(0, 8), day(1, 23), day(2, 0)}, want: 3},
		{name: "gap breaks", entries: []time.Time{day(0, 8), day(1, 8), day(3, 8)}, want: 2},
		{name: "duplicates count once", entries: []time.Time{day(0, 1), day(0, 2), day(1, 3)}, want: 2},
	}
	for _, tc := range tests {
		if got := Streak(tc.entries, now, loc, StreakWindowDays); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}

	var long []time.Time
	for i := 0; i < 45; i++ {
		long = append(long, day(i, 12))
	}
	if got := Streak(long, now, loc, StreakWindowDays); got != StreakWindowDays {
		t.Fatalf("expected streak capped at %d, got %d", StreakWindowDays, got)
	}
}
