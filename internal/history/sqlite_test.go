package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-detector/migrations"
)

func newTestJournal(t *testing.T) (*SQLiteJournal, *clock.Mock) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	return NewSQLiteJournal(db.DB, mock), mock
}

func TestRecordAndRecent(t *testing.T) {
	j, mock := newTestJournal(t)
	ctx := context.Background()

	first := Entry{
		CycleID:    "cycle-1",
		MACAddress: "AA:BB:CC:DD:EE:FF",
		Readings:   3,
		StatusCode: 200,
		Duration:   120 * time.Millisecond,
	}
	if err := j.Record(ctx, first); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	mock.Add(3 * time.Second)
	second := Entry{
		CycleID:    "cycle-2",
		MACAddress: "AA:BB:CC:DD:EE:FF",
		Readings:   1,
		StatusCode: 500,
		Error:      "dispatch: upload failed: status 500",
	}
	if err := j.Record(ctx, second); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	// Newest first.
	if entries[0].CycleID != "cycle-2" || entries[1].CycleID != "cycle-1" {
		t.Errorf("order = %s, %s; want cycle-2, cycle-1", entries[0].CycleID, entries[1].CycleID)
	}

	got := entries[1]
	if got.ID == 0 {
		t.Error("ID not populated")
	}
	if got.Readings != 3 || got.StatusCode != 200 {
		t.Errorf("readings/status = %d/%d, want 3/200", got.Readings, got.StatusCode)
	}
	if got.Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", got.Duration)
	}
	if want := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC); !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
	if !got.Succeeded() {
		t.Error("200 without error should count as succeeded")
	}
	if entries[0].Succeeded() {
		t.Error("500 should not count as succeeded")
	}
}

func TestRecord_ExplicitTimestamp(t *testing.T) {
	j, _ := newTestJournal(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 2, 3, 4, 5, 600_000_000, time.FixedZone("CET", 3600))
	if err := j.Record(ctx, Entry{CycleID: "c", CreatedAt: at}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if !entries[0].CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", entries[0].CreatedAt, at)
	}
}

func TestRecord_RequiresCycleID(t *testing.T) {
	j, _ := newTestJournal(t)

	if err := j.Record(context.Background(), Entry{}); !errors.Is(err, ErrMissingCycleID) {
		t.Errorf("Record() error = %v, want ErrMissingCycleID", err)
	}
}

func TestRecent_Limits(t *testing.T) {
	j, mock := newTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if err := j.Record(ctx, Entry{CycleID: "c"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		mock.Add(time.Second)
	}

	tests := []struct {
		limit int
		want  int
	}{
		{5, 5},
		{0, defaultRecentLimit},
		{-1, defaultRecentLimit},
		{1000, 60},
	}
	for _, tt := range tests {
		entries, err := j.Recent(ctx, tt.limit)
		if err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.limit, err)
		}
		if len(entries) != tt.want {
			t.Errorf("Recent(%d) returned %d entries, want %d", tt.limit, len(entries), tt.want)
		}
	}
}

func TestRecent_Empty(t *testing.T) {
	j, _ := newTestJournal(t)

	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("Recent() = %v, want empty non-nil slice", entries)
	}
}

func TestPrune(t *testing.T) {
	j, mock := newTestJournal(t)
	ctx := context.Background()

	// Two entries a day apart, then one fresh one.
	for _, id := range []string{"old-1", "old-2"} {
		if err := j.Record(ctx, Entry{CycleID: id}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		mock.Add(24 * time.Hour)
	}
	mock.Add(5 * 24 * time.Hour)
	if err := j.Record(ctx, Entry{CycleID: "fresh"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Now is day 7: old-1 is 7 days old, old-2 is 6 days old.
	n, err := j.Prune(ctx, 6*24*time.Hour+time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d, want 1", n)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 || entries[0].CycleID != "fresh" || entries[1].CycleID != "old-2" {
		t.Errorf("remaining entries = %+v", entries)
	}
}

func TestPrune_InvalidRetention(t *testing.T) {
	j, _ := newTestJournal(t)

	for _, d := range []time.Duration{0, -time.Hour} {
		if _, err := j.Prune(context.Background(), d); !errors.Is(err, ErrInvalidRetention) {
			t.Errorf("Prune(%v) error = %v, want ErrInvalidRetention", d, err)
		}
	}
}

func TestNewSQLiteJournal_DefaultClock(t *testing.T) {
	j := NewSQLiteJournal(nil, nil)
	if j.clock == nil {
		t.Fatal("nil clock should default to wall clock")
	}
}
