package util

import (
	"testing"
	"time"
)

func TestDayBoundaries(t *testing.T) {
	in := time.Date(2026, 3, 14, 17, 45, 0, 0, time.UTC)
	start, end := DayBoundaries(in, nil)

	wantStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestDayBoundaries_MonthEnd(t *testing.T) {
	start, end := DayBoundaries(time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), time.UTC)
	if start.Day() != 28 || end.Month() != time.March || end.Day() != 1 {
		t.Errorf("unexpected boundaries %v - %v", start, end)
	}
}

func TestDayBoundaries_BranchTimezone(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)

	// 23:00 UTC on May 1 is already 07:00 on May 2 in Manila
	start, end := DayBoundaries(time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC), manila)

	wantStart := time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("end = %v, want %v", end, wantStart.Add(24*time.Hour))
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-07-04", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Year() != 2026 || got.Month() != time.July || got.Day() != 4 {
		t.Errorf("ParseDate = %v", got)
	}

	if _, err := ParseDate("04/07/2026", nil); err == nil {
		t.Error("expected error for non ISO date")
	}

	today, err := ParseDate("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today.Hour() != 0 || today.Minute() != 0 {
		t.Errorf("empty date should resolve to start of today, got %v", today)
	}
}

func TestParseDate_InBranchTimezone(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)

	got, err := ParseDate("2026-05-02", manila)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}
}
