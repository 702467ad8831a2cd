// Package timetable derives a venue's slot boundaries from its operating window.
package timetable

import (
	"errors"
	"fmt"
	"time"

	"futsal/pkg/model"
)

var ErrInvalidWindow = errors.New("invalid operating window")

// Window is a daily operating window in minutes since midnight.
type Window struct {
	Opening  int
	Closing  int
	Duration int
}

type Interval struct {
	Start string
	End   string
}

func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(model.TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func NewWindow(opening, closing string, durationMin int) (Window, error) {
	open, err := ParseTimeOfDay(opening)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	closeAt, err := ParseTimeOfDay(closing)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if open >= closeAt {
		return Window{}, fmt.Errorf("%w: opening %s is not before closing %s", ErrInvalidWindow, opening, closing)
	}
	if durationMin <= 0 {
		return Window{}, fmt.Errorf("%w: slot duration must be positive", ErrInvalidWindow)
	}
	return Window{Opening: open, Closing: closeAt, Duration: durationMin}, nil
}

// DefaultWindow is the hourly 06:00..22:00 grid used when neither the venue
// nor the configuration yields a valid window.
var DefaultWindow = Window{Opening: 6 * 60, Closing: 22 * 60, Duration: 60}

// Fallback builds the configured default window, or DefaultWindow.
func Fallback(opening, closing string, durationMin int) Window {
	w, err := NewWindow(opening, closing, durationMin)
	if err != nil {
		return DefaultWindow
	}
	return w
}

// ForVenue returns the venue's own window, or fallback when the venue
// carries no usable one.
func ForVenue(v *model.Venue, fallback Window) Window {
	if v == nil {
		return fallback
	}
	w, err := NewWindow(v.OpeningTime, v.ClosingTime, v.SlotDurationMin)
	if err != nil {
		return fallback
	}
	return w
}

// Intervals slices the window into contiguous slots. The last slot is clipped
// to closing time when a full duration would overshoot it.
func (w Window) Intervals() []Interval {
	var out []Interval
	for start := w.Opening; start < w.Closing; start += w.Duration {
		end := min(start+w.Duration, w.Closing)
		out = append(out, Interval{Start: FormatTimeOfDay(start), End: FormatTimeOfDay(end)})
	}
	return out
}

// IsBoundary reports whether start is one of the window's slot start times.
func (w Window) IsBoundary(start string) bool {
	m, err := ParseTimeOfDay(start)
	if err != nil {
		return false
	}
	return m >= w.Opening && m < w.Closing && (m-w.Opening)%w.Duration == 0
}

// ParseDate parses a calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, s, time.UTC)
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
