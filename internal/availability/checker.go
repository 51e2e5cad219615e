package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/pricing"
)

const (
	ReasonNoQuantity         = "no quantity available"
	ReasonConflictingBooking = "conflicting booking"
	ReasonConflictingBulk    = "conflicting bulk booking"
	ReasonNoPricing          = "no valid pricing"
)

type BookingFinder interface {
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error)
}

type BulkBookingFinder interface {
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BulkBookingStatus) ([]domain.BulkBooking, error)
}

type Input struct {
	CheckIn  time.Time
	CheckOut time.Time
	Quantity int
	Market   domain.Market
	// SkipConflicts leaves out the booking scans when the counters are the
	// only measure of occupancy, as for bulk reservations.
	SkipConflicts bool
}

type Result struct {
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Quote     pricing.Quote `json:"quote"`
	Nights    int           `json:"nights"`
}

func unavailable(reason string) Result {
	return Result{Reason: reason}
}

// Checker answers whether a room can be sold for a stay. It never reserves.
type Checker struct {
	bookings BookingFinder
	bulk     BulkBookingFinder
	now      func() time.Time
}

type Option func(*Checker)

func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

func NewChecker(bookings BookingFinder, bulk BulkBookingFinder, opts ...Option) *Checker {
	c := &Checker{
		bookings: bookings,
		bulk:     bulk,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs capacity, booking conflicts, bulk conflicts and pricing in that
// order and stops at the first failing step.
func (c *Checker) Check(ctx context.Context, room *domain.Room, in Input) (Result, error) {
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	// Held units have already left AvailableQuantity through the ledger.
	if room.AvailableQuantity <= 0 || room.AvailableQuantity < quantity {
		return unavailable(ReasonNoQuantity), nil
	}

	if !in.SkipConflicts {
		reason, err := c.Conflicts(ctx, room.ID, in.CheckIn, in.CheckOut)
		if err != nil {
			return Result{}, err
		}
		if reason != "" {
			return unavailable(reason), nil
		}
	}

	q := pricing.Resolve(room, in.Market, in.CheckIn, in.CheckOut, c.now())
	if !q.Priced() {
		return unavailable(ReasonNoPricing), nil
	}

	return Result{
		Available: true,
		Quote:     q,
		Nights:    domain.Nights(in.CheckIn, in.CheckOut),
	}, nil
}

// Conflicts scans occupying individual and bulk bookings of roomID that overlap
// [checkIn, checkOut). It returns the reason of the first hit or "".
func (c *Checker) Conflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time) (string, error) {
	stay := domain.Stay{CheckIn: checkIn, CheckOut: checkOut}

	bookings, err := c.bookings.FindOverlapping(ctx, roomID, checkIn, checkOut, domain.OccupyingBookingStatuses)
	if err != nil {
		return "", fmt.Errorf("scan bookings of room %s: %w", roomID, err)
	}
	for i := range bookings {
		if bookings[i].RoomID == roomID && stay.Overlaps(bookings[i].CheckIn, bookings[i].CheckOut) {
			return ReasonConflictingBooking, nil
		}
	}

	bulk, err := c.bulk.FindOverlapping(ctx, roomID, checkIn, checkOut, domain.OccupyingBulkStatuses)
	if err != nil {
		return "", fmt.Errorf("scan bulk bookings of room %s: %w", roomID, err)
	}
	for i := range bulk {
		if bulk[i].HasRoom(roomID) && stay.Overlaps(bulk[i].CheckIn, bulk[i].CheckOut) {
			return ReasonConflictingBulk, nil
		}
	}
	return "", nil
}
