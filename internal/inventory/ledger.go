package inventory

import (
	"context"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/sirupsen/logrus"
)

type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Store applies one counter move to one room atomically.
type Store interface {
	Reserve(ctx context.Context, roomID string, quantity int) (*domain.Room, error)
	Release(ctx context.Context, roomID string, quantity int) (*domain.Room, error)
}

// RoomOutcome reports what happened to a single room in a multi-room move.
type RoomOutcome struct {
	RoomID            string  `json:"room_id"`
	RoomName          string  `json:"room_name,omitempty"`
	HotelID           string  `json:"hotel_id,omitempty"`
	Quantity          int     `json:"quantity"`
	Outcome           Outcome `json:"outcome"`
	Reason            string  `json:"reason,omitempty"`
	AvailableQuantity int     `json:"available_quantity"`
	ReservedQuantity  int     `json:"reserved_quantity"`
	Err               error   `json:"-"`
}

func (o RoomOutcome) OK() bool {
	return o.Outcome == OutcomeOK
}

// Ledger moves units between a room's available and reserved counters.
// A failure on one room never stops the others.
type Ledger struct {
	store Store
	log   *logrus.Logger
}

func NewLedger(store Store, log *logrus.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// Group collapses entries into one quantity per room, in order of first appearance.
func Group(entries []domain.BulkBookingEntry) []domain.RoomQuantity {
	b := domain.BulkBooking{Bookings: entries}
	return b.RoomQuantities(true)
}

func (l *Ledger) Reserve(ctx context.Context, rooms []domain.RoomQuantity) []RoomOutcome {
	return l.apply(ctx, "reserve", rooms, l.store.Reserve)
}

func (l *Ledger) Release(ctx context.Context, rooms []domain.RoomQuantity) []RoomOutcome {
	return l.apply(ctx, "release", rooms, l.store.Release)
}

func (l *Ledger) apply(ctx context.Context, op string, rooms []domain.RoomQuantity, move func(context.Context, string, int) (*domain.Room, error)) []RoomOutcome {
	outcomes := make([]RoomOutcome, 0, len(rooms))
	for _, rq := range rooms {
		if rq.Quantity <= 0 {
			continue
		}
		out := RoomOutcome{RoomID: rq.RoomID, RoomName: rq.RoomName, Quantity: rq.Quantity}

		room, err := move(ctx, rq.RoomID, rq.Quantity)
		if err != nil {
			out.Outcome, out.Reason, out.Err = OutcomeFailed, err.Error(), err
			if ce := domain.IsCapacityError(err); ce != nil {
				out.AvailableQuantity = ce.Available
			}
			l.log.WithFields(logrus.Fields{
				"op":       op,
				"room_id":  rq.RoomID,
				"quantity": rq.Quantity,
			}).WithError(err).Warn("inventory move skipped")
			outcomes = append(outcomes, out)
			continue
		}

		out.Outcome = OutcomeOK
		out.RoomName = room.Name
		out.HotelID = room.HotelID
		out.AvailableQuantity = room.AvailableQuantity
		out.ReservedQuantity = room.ReservedQuantity
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Succeeded keeps the rooms that were actually touched.
func Succeeded(outcomes []RoomOutcome) []RoomOutcome {
	out := make([]RoomOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// FirstFailure returns the error of the first failed room, or nil.
func FirstFailure(outcomes []RoomOutcome) error {
	for _, o := range outcomes {
		if !o.OK() {
			return o.Err
		}
	}
	return nil
}

// Undo turns successful outcomes back into the quantities that must be moved back.
func Undo(outcomes []RoomOutcome) []domain.RoomQuantity {
	var rooms []domain.RoomQuantity
	for _, o := range Succeeded(outcomes) {
		rooms = append(rooms, domain.RoomQuantity{RoomID: o.RoomID, RoomName: o.RoomName, Quantity: o.Quantity})
	}
	return rooms
}
