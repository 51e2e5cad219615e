package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStay_Overlaps(t *testing.T) {
	existing := Stay{CheckIn: day(1, 10), CheckOut: day(1, 15)}

	assert.False(t, existing.Overlaps(day(1, 15), day(1, 20)), "back to back")
	assert.False(t, existing.Overlaps(day(1, 5), day(1, 10)), "ends on check-in")
	assert.True(t, existing.Overlaps(day(1, 14), day(1, 20)), "one night overlap")
	assert.True(t, existing.Overlaps(day(1, 11), day(1, 12)), "contained")
	assert.True(t, existing.Overlaps(day(1, 1), day(1, 31)), "containing")
}

func TestNights(t *testing.T) {
	assert.Equal(t, 5, Nights(day(1, 10), day(1, 15)))
	assert.Equal(t, 1, Nights(day(1, 10), day(1, 10).Add(2*time.Hour)))
	assert.Equal(t, 2, Nights(day(1, 10), day(1, 11).Add(time.Minute)))
	assert.Equal(t, 0, Nights(day(1, 10), day(1, 10)))
	assert.Equal(t, 0, Nights(day(1, 10), day(1, 9)))
}

func TestStay_Validate(t *testing.T) {
	ve := NewValidationError()
	Stay{}.Validate(ve)
	assert.Contains(t, ve.Fields(), "check_in")
	assert.Contains(t, ve.Fields(), "check_out")

	ve = NewValidationError()
	Stay{CheckIn: day(2, 2), CheckOut: day(2, 2)}.Validate(ve)
	assert.Equal(t, []string{"check-out must be after check-in"}, ve.Fields()["check_out"])

	ve = NewValidationError()
	Stay{CheckIn: day(2, 2), CheckOut: day(2, 3)}.Validate(ve)
	assert.NoError(t, ve.OrNil())
}

func TestDayBounds(t *testing.T) {
	ts := time.Date(2025, 6, 10, 15, 4, 5, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	assert.Equal(t, time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC), EndOfDay(ts))
}

func TestParseMarket(t *testing.T) {
	m, err := ParseMarket("middle eastern")
	require.NoError(t, err)
	assert.Equal(t, MarketMiddleEastern, m)

	m, err = ParseMarket("  ")
	require.NoError(t, err)
	assert.Equal(t, MarketNone, m)

	_, err = ParseMarket("Atlantis")
	assert.EqualError(t, err, `unknown market "Atlantis"`)

	assert.Len(t, Markets(), 10)
}

func TestErrors(t *testing.T) {
	ce := &CapacityError{RoomID: "r1", RoomName: "Deluxe", Requested: 3, Available: 1}
	wrapped := fmt.Errorf("reserve: %w", ce)

	assert.ErrorIs(t, wrapped, ErrInsufficientCapacity)
	assert.Same(t, ce, IsCapacityError(wrapped))
	assert.Equal(t, `room "Deluxe": no quantity available (requested 3, available 1)`, ce.Error())
	assert.Nil(t, IsCapacityError(errors.New("other")))

	ve := NewValidationError()
	ve.Add("group_name", "group name is required")
	ve.Add("bookings", "at least one booking is required")
	assert.Equal(t, "validation failed: bookings: at least one booking is required; group_name: group name is required", ve.Error())
	assert.Same(t, ve, IsValidationError(fmt.Errorf("create: %w", ve)))
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusPaid.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPending))

	_, ok := ParseBookingStatus("Paid")
	assert.True(t, ok)
	_, ok = ParseBookingStatus("Lost")
	assert.False(t, ok)
}

func TestBulkSettings_Permits(t *testing.T) {
	s := BulkSettings{Enabled: true, MinQuantity: 2, MaxQuantity: 5}
	assert.False(t, s.Permits(1))
	assert.True(t, s.Permits(2))
	assert.True(t, s.Permits(5))
	assert.False(t, s.Permits(6))
	assert.True(t, BulkSettings{Enabled: true}.Permits(100))
	assert.False(t, BulkSettings{}.Permits(1))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, day(3, 9), d)

	d, err = ParseDate("2025-03-09T14:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 11, 0, 0, 0, time.UTC), d)
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDate("09.03.2025")
	assert.Error(t, err)
}
