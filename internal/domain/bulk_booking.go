package domain

import (
	"math"
	"time"
)

type BulkBookingStatus string

const (
	BulkStatusDraft              BulkBookingStatus = "Draft"
	BulkStatusPending            BulkBookingStatus = "Pending"
	BulkStatusConfirmed          BulkBookingStatus = "Confirmed"
	BulkStatusPartiallyConfirmed BulkBookingStatus = "Partially Confirmed"
	BulkStatusCancelled          BulkBookingStatus = "Cancelled"
	BulkStatusCompleted          BulkBookingStatus = "Completed"
)

// OccupyingBulkStatuses are the aggregate statuses whose entries block a room for their dates.
var OccupyingBulkStatuses = []BulkBookingStatus{BulkStatusPending, BulkStatusConfirmed, BulkStatusPartiallyConfirmed}

func ParseBulkBookingStatus(s string) (BulkBookingStatus, bool) {
	switch st := BulkBookingStatus(s); st {
	case BulkStatusDraft, BulkStatusPending, BulkStatusConfirmed, BulkStatusPartiallyConfirmed, BulkStatusCancelled, BulkStatusCompleted:
		return st, true
	}
	return "", false
}

// manual reports statuses that are only ever set explicitly and survive Recompute.
func (s BulkBookingStatus) manual() bool {
	return s == BulkStatusDraft || s == BulkStatusCompleted
}

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "Pending"
	EntryStatusConfirmed EntryStatus = "Confirmed"
	EntryStatusCancelled EntryStatus = "Cancelled"
)

type ClientDetails struct {
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email,omitempty" bson:"email,omitempty"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Nationality string `json:"nationality,omitempty" bson:"nationality,omitempty"`
}

type BulkBookingEntry struct {
	ID             string         `json:"id" bson:"id"`
	HotelID        string         `json:"hotel_id" bson:"hotel_id"`
	RoomID         string         `json:"room_id" bson:"room_id"`
	RoomName       string         `json:"room_name" bson:"room_name"`
	ClientDetails  ClientDetails  `json:"client_details" bson:"client_details"`
	Status         EntryStatus    `json:"status" bson:"status"`
	PriceBreakdown PriceBreakdown `json:"price_breakdown" bson:"price_breakdown"`
}

type BulkSummary struct {
	TotalBookings       int     `json:"total_bookings" bson:"total_bookings"`
	ConfirmedBookings   int     `json:"confirmed_bookings" bson:"confirmed_bookings"`
	CancelledBookings   int     `json:"cancelled_bookings" bson:"cancelled_bookings"`
	TotalRooms          int     `json:"total_rooms" bson:"total_rooms"`
	TotalNights         int     `json:"total_nights" bson:"total_nights"`
	TotalAmount         float64 `json:"total_amount" bson:"total_amount"`
	AveragePricePerRoom float64 `json:"average_price_per_room" bson:"average_price_per_room"`
	CompletionPercent   float64 `json:"completion_percent" bson:"completion_percent"`
}

type Payment struct {
	PaidAmount    float64 `json:"paid_amount" bson:"paid_amount"`
	PendingAmount float64 `json:"pending_amount" bson:"pending_amount"`
	Method        string  `json:"method,omitempty" bson:"method,omitempty"`
}

type CancellationDetails struct {
	Reason          string  `json:"cancellation_reason" bson:"reason"`
	Notes           string  `json:"cancellation_notes,omitempty" bson:"notes,omitempty"`
	RefundAmount    float64 `json:"refund_amount" bson:"refund_amount"`
	RefundMethod    string  `json:"refund_method,omitempty" bson:"refund_method,omitempty"`
	CancellationFee float64 `json:"cancellation_fee" bson:"cancellation_fee"`
}

type Cancellation struct {
	CancellationDetails `bson:",inline"`
	CancelledAt         time.Time `json:"cancelled_at" bson:"cancelled_at"`
	CancelledBy         string    `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
}

type BulkBooking struct {
	ID              string             `json:"id" bson:"_id"`
	GroupName       string             `json:"group_name" bson:"group_name"`
	CheckIn         time.Time          `json:"check_in" bson:"check_in"`
	CheckOut        time.Time          `json:"check_out" bson:"check_out"`
	CheckInTime     string             `json:"check_in_time,omitempty" bson:"check_in_time,omitempty"`
	CheckOutTime    string             `json:"check_out_time,omitempty" bson:"check_out_time,omitempty"`
	Adults          int                `json:"adults" bson:"adults"`
	Children        int                `json:"children" bson:"children"`
	MealPlan        string             `json:"meal_plan,omitempty" bson:"meal_plan,omitempty"`
	SpecialRequests string             `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
	Market          Market             `json:"market,omitempty" bson:"market,omitempty"`
	Bookings        []BulkBookingEntry `json:"bookings" bson:"bookings"`
	Summary         BulkSummary        `json:"summary" bson:"summary"`
	Payment         Payment            `json:"payment" bson:"payment"`
	Cancellation    *Cancellation      `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	Status          BulkBookingStatus  `json:"status" bson:"status"`
	CreatedBy       string             `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

func (b *BulkBooking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// Recompute refreshes the summary, pending payment and derived status.
// It must run before every save.
func (b *BulkBooking) Recompute(now time.Time) {
	b.Summary = b.summarize()
	b.Payment.PendingAmount = round2(b.Summary.TotalAmount - b.Payment.PaidAmount)
	if !b.Status.manual() {
		b.Status = b.deriveStatus()
	}
	b.UpdatedAt = now
}

func (b *BulkBooking) summarize() BulkSummary {
	var s BulkSummary
	s.TotalBookings = len(b.Bookings)
	s.TotalRooms = s.TotalBookings
	s.TotalNights = Nights(b.CheckIn, b.CheckOut)

	for _, e := range b.Bookings {
		switch e.Status {
		case EntryStatusConfirmed:
			s.ConfirmedBookings++
		case EntryStatusCancelled:
			s.CancelledBookings++
		}
		s.TotalAmount += e.PriceBreakdown.Total
	}
	s.TotalAmount = round2(s.TotalAmount)

	if s.TotalRooms > 0 {
		s.AveragePricePerRoom = round2(s.TotalAmount / float64(s.TotalRooms))
		s.CompletionPercent = round2(float64(s.ConfirmedBookings) / float64(s.TotalBookings) * 100)
	}
	return s
}

func (b *BulkBooking) deriveStatus() BulkBookingStatus {
	n := len(b.Bookings)
	var confirmed, cancelled int
	for _, e := range b.Bookings {
		switch e.Status {
		case EntryStatusConfirmed:
			confirmed++
		case EntryStatusCancelled:
			cancelled++
		}
	}

	switch {
	case n > 0 && cancelled == n:
		return BulkStatusCancelled
	case n > 0 && confirmed == n:
		return BulkStatusConfirmed
	case confirmed > 0:
		return BulkStatusPartiallyConfirmed
	default:
		return BulkStatusPending
	}
}

// ConfirmAll moves every pending entry to confirmed.
func (b *BulkBooking) ConfirmAll(now time.Time) int {
	changed := 0
	for i := range b.Bookings {
		if b.Bookings[i].Status == EntryStatusPending {
			b.Bookings[i].Status = EntryStatusConfirmed
			changed++
		}
	}
	b.Recompute(now)
	return changed
}

// Cancel records who cancelled and why, and cancels every remaining entry.
func (b *BulkBooking) Cancel(details CancellationDetails, userID string, now time.Time) {
	b.Cancellation = &Cancellation{
		CancellationDetails: details,
		CancelledAt:         now,
		CancelledBy:         userID,
	}
	for i := range b.Bookings {
		if b.Bookings[i].Status != EntryStatusCancelled {
			b.Bookings[i].Status = EntryStatusCancelled
		}
	}
	if b.Status.manual() {
		b.Status = BulkStatusCancelled
	}
	b.Recompute(now)
}

// Complete is the only way into Completed and requires a fully confirmed aggregate.
func (b *BulkBooking) Complete(now time.Time) error {
	if b.Status != BulkStatusConfirmed {
		return ErrInvalidTransition
	}
	b.Status = BulkStatusCompleted
	b.Recompute(now)
	return nil
}

// RoomQuantities groups entries by room in order of first appearance.
// Cancelled entries are skipped unless includeCancelled is set.
func (b *BulkBooking) RoomQuantities(includeCancelled bool) []RoomQuantity {
	index := make(map[string]int)
	var out []RoomQuantity
	for _, e := range b.Bookings {
		if e.Status == EntryStatusCancelled && !includeCancelled {
			continue
		}
		if i, ok := index[e.RoomID]; ok {
			out[i].Quantity++
			continue
		}
		index[e.RoomID] = len(out)
		out = append(out, RoomQuantity{RoomID: e.RoomID, RoomName: e.RoomName, Quantity: 1})
	}
	return out
}

// HasRoom reports whether any entry references roomID.
func (b *BulkBooking) HasRoom(roomID string) bool {
	for _, e := range b.Bookings {
		if e.RoomID == roomID {
			return true
		}
	}
	return false
}

type RoomQuantity struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name,omitempty"`
	Quantity int    `json:"quantity"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
