package domain

import (
	"fmt"
	"math"
	"time"
)

const Day = 24 * time.Hour

// Stay is a check-in/check-out window, treated as the half-open interval [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (s Stay) Valid() bool {
	return !s.CheckIn.IsZero() && !s.CheckOut.IsZero() && s.CheckIn.Before(s.CheckOut)
}

// Overlaps uses the half-open test, so back-to-back stays do not collide.
func (s Stay) Overlaps(checkIn, checkOut time.Time) bool {
	return checkIn.Before(s.CheckOut) && checkOut.After(s.CheckIn)
}

func (s Stay) Nights() int {
	return Nights(s.CheckIn, s.CheckOut)
}

// Nights rounds partial days up; non-positive spans yield 0.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(Day)))
}

// Validate records problems with the window on ve under the given field prefix.
func (s Stay) Validate(ve *ValidationError) {
	if s.CheckIn.IsZero() {
		ve.Add("check_in", "check-in date is required")
	}
	if s.CheckOut.IsZero() {
		ve.Add("check_out", "check-out date is required")
	}
	if !s.CheckIn.IsZero() && !s.CheckOut.IsZero() && !s.CheckIn.Before(s.CheckOut) {
		ve.Add("check_out", "check-out must be after check-in")
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts a calendar date or an RFC3339 timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
