package availability

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2025-09-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if date.Year != 2025 || date.Month != time.September || date.Day != 1 {
		t.Fatalf("unexpected date: %+v", date)
	}

	for _, raw := range []string{"", "2025-13-01", "2025-09-32", "01-09-2025", "2025/09/01"} {
		if _, err := ParseDate(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	a := Date{2025, time.September, 1}
	b := Date{2025, time.September, 3}

	if !a.Before(b) || b.Before(a) {
		t.Fatal("Before is wrong")
	}
	if !b.After(a) || a.After(b) {
		t.Fatal("After is wrong")
	}
	if a.Before(a) {
		t.Fatal("a date is not before itself")
	}
}

func TestExpandDateRangeSingleDay(t *testing.T) {
	d := Date{2025, time.September, 1}
	days := ExpandDateRange(d, d)
	if len(days) != 1 || days[0] != d {
		t.Fatalf("expected [%v], got %v", d, days)
	}
}

func TestExpandDateRangeInverted(t *testing.T) {
	start := Date{2025, time.September, 3}
	end := Date{2025, time.September, 1}
	if days := ExpandDateRange(start, end); len(days) != 0 {
		t.Fatalf("expected empty range, got %v", days)
	}
}

func TestExpandDateRangeCrossesMonth(t *testing.T) {
	days := ExpandDateRange(Date{2025, time.August, 30}, Date{2025, time.September, 2})
	want := []Date{
		{2025, time.August, 30},
		{2025, time.August, 31},
		{2025, time.September, 1},
		{2025, time.September, 2},
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("day %d: expected %v, got %v", i, want[i], days[i])
		}
	}
}

// A spring-forward transition (e.g. 2025-03-09 in America/New_York) must not
// skip or duplicate a civil day.
func TestExpandDateRangeAcrossDSTBoundary(t *testing.T) {
	days := ExpandDateRange(Date{2025, time.March, 8}, Date{2025, time.March, 10})
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
	if days[1] != (Date{2025, time.March, 9}) {
		t.Fatalf("expected 2025-03-09 in the middle, got %v", days[1])
	}
}

func TestExpandDateRangeCrossesYear(t *testing.T) {
	days := ExpandDateRange(Date{2025, time.December, 31}, Date{2026, time.January, 1})
	if len(days) != 2 || days[1].Year != 2026 || days[1].Month != time.January || days[1].Day != 1 {
		t.Fatalf("unexpected days: %v", days)
	}
}

func TestDateString(t *testing.T) {
	if got := (Date{2025, time.September, 1}).String(); got != "2025-09-01" {
		t.Fatalf("expected 2025-09-01, got %s", got)
	}
}
