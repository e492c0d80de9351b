package recurrence

import (
	"errors"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func ptr(t time.Time) *time.Time { return &t }

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		freq    Frequency
		day     int
		start   string
		lastRun string
		today   string
		want    string
	}{
		{"future start is first occurrence", Monthly, 31, "2030-03-10", "", "2025-06-01", "2030-03-10"},
		{"future start quarterly", Quarterly, 5, "2030-03-10", "", "2025-06-01", "2030-03-10"},
		{"future start annually", Annually, 1, "2030-03-10", "", "2025-06-01", "2030-03-10"},
		{"start today moves to target day in same month", Monthly, 31, "2025-01-15", "", "2025-01-15", "2025-01-31"},
		{"target day before start uses next month", Monthly, 10, "2025-01-15", "", "2025-01-20", "2025-02-10"},
		{"target day before start quarterly", Quarterly, 10, "2025-01-15", "", "2025-01-20", "2025-04-10"},
		{"monthly after run clamps to february leap year", Monthly, 31, "2024-01-15", "2024-01-31", "2024-02-01", "2024-02-29"},
		{"monthly after run clamps to february", Monthly, 31, "2025-01-15", "2025-01-31", "2025-02-01", "2025-02-28"},
		{"clamped month does not drag the cadence", Monthly, 31, "2025-01-15", "2025-02-28", "2025-03-01", "2025-03-31"},
		{"quarterly after run", Quarterly, 15, "2025-01-01", "2025-01-15", "2025-01-16", "2025-04-15"},
		{"annually after run across year end", Annually, 30, "2024-01-01", "2024-12-30", "2025-01-01", "2025-12-30"},
		{"annually on 29 february", Annually, 29, "2024-01-01", "2024-02-29", "2024-03-01", "2025-02-28"},
		{"last run before future start returns start", Monthly, 1, "2030-01-20", "2029-06-01", "2025-01-01", "2030-01-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last *time.Time
			if tt.lastRun != "" {
				last = ptr(date(t, tt.lastRun))
			}

			got, err := Next(tt.freq, tt.day, date(t, tt.start), last, date(t, tt.today))
			if err != nil {
				t.Fatalf("Next() returned unexpected error: %v", err)
			}
			if !got.Equal(date(t, tt.want)) {
				t.Errorf("Next() = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestNext_AlwaysAfterLastRun(t *testing.T) {
	start := date(t, "2024-01-01")
	today := date(t, "2026-06-01")

	for _, freq := range []Frequency{Monthly, Quarterly, Annually} {
		for day := 1; day <= 31; day++ {
			last := date(t, "2024-01-01")
			for i := 0; i < 40; i++ {
				next, err := Next(freq, day, start, ptr(last), today)
				if err != nil {
					t.Fatalf("Next(%s, %d) returned error: %v", freq, day, err)
				}
				if !next.After(last) {
					t.Fatalf("Next(%s, %d, last=%s) = %s, want strictly after last run",
						freq, day, last.Format("2006-01-02"), next.Format("2006-01-02"))
				}
				last = next
			}
		}
	}
}

func TestNext_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)
	today := time.Date(2025, 1, 15, 0, 1, 0, 0, time.UTC)

	got, err := Next(Monthly, 31, start, nil, today)
	if err != nil {
		t.Fatalf("Next() returned unexpected error: %v", err)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("expected midnight result, got %s", got)
	}
	if got.Format("2006-01-02") != "2025-01-31" {
		t.Errorf("expected 2025-01-31, got %s", got.Format("2006-01-02"))
	}
}

func TestNext_InvalidInput(t *testing.T) {
	today := date(t, "2025-01-01")

	t.Run("unknown frequency", func(t *testing.T) {
		_, err := Next(Frequency("weekly"), 1, today, nil, today)
		if !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("expected ErrInvalidFrequency, got %v", err)
		}
	})

	t.Run("day zero", func(t *testing.T) {
		_, err := Next(Monthly, 0, today, nil, today)
		if !errors.Is(err, ErrInvalidDayOfMonth) {
			t.Errorf("expected ErrInvalidDayOfMonth, got %v", err)
		}
	})

	t.Run("day 32", func(t *testing.T) {
		_, err := Next(Monthly, 32, today, nil, today)
		if !errors.Is(err, ErrInvalidDayOfMonth) {
			t.Errorf("expected ErrInvalidDayOfMonth, got %v", err)
		}
	})
}

func TestOccurrences(t *testing.T) {
	t.Run("respects limit", func(t *testing.T) {
		got, err := Occurrences(Quarterly, 31, date(t, "2025-01-01"), nil, date(t, "2025-01-01"), time.Time{}, 4)
		if err != nil {
			t.Fatalf("Occurrences() returned error: %v", err)
		}
		want := []string{"2025-01-31", "2025-04-30", "2025-07-31", "2025-10-31"}
		if len(got) != len(want) {
			t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].Format("2006-01-02") != want[i] {
				t.Errorf("occurrence %d = %s, want %s", i, got[i].Format("2006-01-02"), want[i])
			}
		}
	})

	t.Run("stops at until", func(t *testing.T) {
		got, err := Occurrences(Monthly, 1, date(t, "2025-01-01"), nil, date(t, "2025-01-01"), date(t, "2025-03-15"), 12)
		if err != nil {
			t.Fatalf("Occurrences() returned error: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 occurrences before until, got %d", len(got))
		}
	})
}
