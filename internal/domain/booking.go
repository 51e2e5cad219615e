package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusModified  BookingStatus = "Modified"
	BookingStatusPaid      BookingStatus = "Paid"
)

// OccupyingBookingStatuses are the individual booking statuses that block a room for their dates.
var OccupyingBookingStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusPaid}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusModified, BookingStatusPaid},
	BookingStatusConfirmed: {BookingStatusPaid, BookingStatusCancelled, BookingStatusModified},
	BookingStatusModified:  {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusPaid},
	BookingStatusPaid:      {BookingStatusCancelled, BookingStatusModified},
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusModified, BookingStatusPaid:
		return st, true
	}
	return "", false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PriceBreakdown struct {
	NightlyRate    float64 `json:"nightly_rate" bson:"nightly_rate"`
	Surcharge      float64 `json:"surcharge" bson:"surcharge"`
	Nights         int     `json:"nights" bson:"nights"`
	Rooms          int     `json:"rooms" bson:"rooms"`
	Subtotal       float64 `json:"subtotal" bson:"subtotal"`
	DiscountAmount float64 `json:"discount_amount" bson:"discount_amount"`
	Total          float64 `json:"total" bson:"total"`
}

type Booking struct {
	ID             string         `json:"id"`
	RoomID         string         `json:"room_id"`
	HotelID        string         `json:"hotel_id"`
	UserID         string         `json:"user_id"`
	Email          string         `json:"email"`
	CheckIn        time.Time      `json:"check_in"`
	CheckOut       time.Time      `json:"check_out"`
	Rooms          int            `json:"rooms"`
	Market         Market         `json:"market"`
	Status         BookingStatus  `json:"status"`
	PriceBreakdown PriceBreakdown `json:"price_breakdown"`
	ExpiresAt      time.Time      `json:"expires_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (b *Booking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}
