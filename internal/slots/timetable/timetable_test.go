package timetable

import (
	"testing"
	"time"

	"futsal/pkg/model"
)

func mustWindow(t *testing.T, open, closeAt string, d int) Window {
	t.Helper()
	w, err := NewWindow(open, closeAt, d)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return w
}

func TestIntervals_ContiguousAndClipped(t *testing.T) {
	w := mustWindow(t, "06:00", "08:30", 60)
	got := w.Intervals()
	want := []Interval{
		{"06:00", "07:00"},
		{"07:00", "08:00"},
		{"08:00", "08:30"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d intervals, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interval %d = %v, want %v", i, got[i], want[i])
		}
		if i > 0 && got[i].Start != got[i-1].End {
			t.Errorf("interval %d not contiguous with previous", i)
		}
	}
}

func TestIntervals_DefaultHourly(t *testing.T) {
	w := mustWindow(t, "06:00", "23:00", 60)
	got := w.Intervals()
	if len(got) != 17 {
		t.Fatalf("expected 17 hourly slots, got %d", len(got))
	}
	if got[0].Start != "06:00" || got[len(got)-1].Start != "22:00" || got[len(got)-1].End != "23:00" {
		t.Errorf("unexpected bounds: %v .. %v", got[0], got[len(got)-1])
	}
}

func TestIsBoundary(t *testing.T) {
	w := mustWindow(t, "06:00", "23:00", 60)
	tests := map[string]bool{
		"06:00": true,
		"18:00": true,
		"22:00": true,
		"23:00": false,
		"05:00": false,
		"18:30": false,
		"6pm":   false,
	}
	for start, want := range tests {
		if got := w.IsBoundary(start); got != want {
			t.Errorf("IsBoundary(%q) = %v, want %v", start, got, want)
		}
	}

	half := mustWindow(t, "09:15", "12:00", 45)
	if !half.IsBoundary("10:00") || half.IsBoundary("10:15") {
		t.Error("45 minute window boundaries wrong")
	}
}

func TestNewWindow_Invalid(t *testing.T) {
	cases := []struct {
		open, closeAt string
		d             int
	}{
		{"10:00", "09:00", 60},
		{"25:00", "26:00", 60},
		{"06:00", "23:00", 0},
	}
	for _, c := range cases {
		if _, err := NewWindow(c.open, c.closeAt, c.d); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestForVenue_Fallback(t *testing.T) {
	fallback := mustWindow(t, "06:00", "23:00", 60)

	if got := ForVenue(&model.Venue{}, fallback); got != fallback {
		t.Errorf("empty venue window should fall back, got %+v", got)
	}
	v := &model.Venue{OpeningTime: "08:00", ClosingTime: "20:00", SlotDurationMin: 90}
	if got := ForVenue(v, fallback); got.Opening != 8*60 || got.Duration != 90 {
		t.Errorf("venue window ignored: %+v", got)
	}
}

func TestParseDateAndDay(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", d)
	}
	if !Day(d.Add(13 * time.Hour)).Equal(d) {
		t.Error("Day should truncate to midnight")
	}
	if _, err := ParseDate("01/06/2024"); err == nil {
		t.Error("expected parse error")
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback("08:00", "10:00", 30); got != (Window{Opening: 480, Closing: 600, Duration: 30}) {
		t.Errorf("Fallback() = %+v", got)
	}
	if got := Fallback("bad", "10:00", 30); got != DefaultWindow {
		t.Errorf("Fallback() with invalid input = %+v, want DefaultWindow", got)
	}
}
