package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "journal-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createAt(t *testing.T, store *Store, userID uint64, at time.Time, in Input) models.Diary {
	t.Helper()
	store.now = func() time.Time { return at }
	diary, err := store.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("create diary: %v", err)
	}
	return diary
}

func TestStore_CreateRejectsLongContentWithoutWriting(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn, time.UTC)

	long := make([]rune, MaxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := store.Create(context.Background(), 1, Input{Content: string(long)}); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
	count, err := store.Count(context.Background(), 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestStore_UpdateDeleteOwnership(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn, time.UTC)
	diary := createAt(t, store, 1, time.Now().UTC(), Input{Content: "first"})

	if _, err := store.Update(context.Background(), 2, diary.ID, Input{Content: "hijack"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	updated, err := store.Update(context.Background(), 1, diary.ID, Input{Content: "edited", Emotion: "😢", Mood: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "edited" || updated.Emotion != "😢" || updated.Mood != 3 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := store.Delete(context.Background(), 2, diary.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := store.Delete(context.Background(), 1, diary.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), 1, diary.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestStore_ListMonthFiltersExactlyThenLimits(t *testing.T) {
	conn := openTestDB(t)
	seoul := mustLoc(t, "Asia/Seoul")
	store := NewStore(conn, seoul)

	createAt(t, store, 1, time.Date(2025, time.March, 31, 23, 59, 0, 0, seoul), Input{Content: "march last minute"})
	createAt(t, store, 1, time.Date(2025, time.April, 1, 0, 1, 0, 0, seoul), Input{Content: "april first"})
	createAt(t, store, 1, time.Date(2025, time.April, 20, 8, 0, 0, 0, seoul), Input{Content: "april twentieth"})
	createAt(t, store, 1, time.Date(2025, time.April, 30, 23, 59, 0, 0, seoul), Input{Content: "april last"})
	createAt(t, store, 1, time.Date(2025, time.May, 1, 0, 0, 0, 0, seoul), Input{Content: "may first"})
	createAt(t, store, 2, time.Date(2025, time.April, 10, 8, 0, 0, 0, seoul), Input{Content: "other user"})

	rows, err := store.List(context.Background(), 1, ListQuery{Year: 2025, Month: time.April})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 april rows, got %d", len(rows))
	}
	if rows[0].Content != "april last" || rows[2].Content != "april first" {
		t.Fatalf("expected newest first, got %q ... %q", rows[0].Content, rows[2].Content)
	}

	limited, err := store.List(context.Background(), 1, ListQuery{Year: 2025, Month: time.April, Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].Content != "april last" || limited[1].Content != "april twentieth" {
		t.Fatalf("unexpected limited rows: %+v", limited)
	}

	march, err := store.List(context.Background(), 1, ListQuery{Year: 2025, Month: time.March})
	if err != nil {
		t.Fatalf("list march: %v", err)
	}
	if len(march) != 1 || march[0].Content != "march last minute" {
		t.Fatalf("unexpected march rows: %+v", march)
	}
}

func TestStore_TodayAndStats(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn, time.UTC)
	now := time.Date(2025, time.June, 3, 18, 0, 0, 0, time.UTC)

	createAt(t, store, 1, now.AddDate(0, 0, -2), Input{Content: "d1", Emotion: "😊", Mood: 4})
	createAt(t, store, 1, now.AddDate(0, 0, -1), Input{Content: "d2", Emotion: "😢", Mood: 7})
	createAt(t, store, 1, now.Add(-time.Hour), Input{Content: "d3", Emotion: "😊", Mood: 8})
	createAt(t, store, 1, time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC), Input{Content: "may", Mood: 1})
	store.now = func() time.Time { return now }

	today, err := store.Today(context.Background(), 1)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today == nil || today.Content != "d3" {
		t.Fatalf("expected today's diary d3, got %+v", today)
	}
	none, err := store.Today(context.Background(), 2)
	if err != nil || none != nil {
		t.Fatalf("expected no diary for user 2, got %+v err=%v", none, err)
	}

	stats, err := store.Stats(context.Background(), 1, 2025, time.June)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MonthEntries != 3 || stats.TotalEntries != 4 {
		t.Fatalf("unexpected counts: month=%d total=%d", stats.MonthEntries, stats.TotalEntries)
	}
	if stats.EmotionStats["😊"] != 2 || stats.EmotionStats["😢"] != 1 {
		t.Fatalf("unexpected emotion stats: %+v", stats.EmotionStats)
	}
	if stats.MoodStats.Average != 6.3 || stats.MoodStats.Min != 4 || stats.MoodStats.Max != 8 {
		t.Fatalf("unexpected mood stats: %+v", stats.MoodStats)
	}
	if stats.Streak != 3 {
		t.Fatalf("expected streak=3, got %d", stats.Streak)
	}
	if len(stats.DailyMood) != 3 || stats.DailyMood[0].Date != "2025-06-01" {
		t.Fatalf("unexpected daily mood: %+v", stats.DailyMood)
	}

	redacted := stats.Redact()
	if !redacted.PremiumRequired || redacted.EmotionStats != nil || redacted.DailyMood != nil {
		t.Fatalf("expected redacted stats, got %+v", redacted)
	}
}
