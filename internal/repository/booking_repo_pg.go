package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// UpdateStatus moves the booking from one status to another and fails with
	// domain.ErrConflict when it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
	// FindOverlapping returns bookings of roomID in one of statuses whose
	// [check_in, check_out) intersects [checkIn, checkOut).
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, room_id, hotel_id, user_id, email, check_in, check_out, rooms, market, status, price_breakdown, expires_at, created_at, updated_at`

type bookingRow struct {
	ID             string       `db:"id"`
	RoomID         string       `db:"room_id"`
	HotelID        string       `db:"hotel_id"`
	UserID         string       `db:"user_id"`
	Email          string       `db:"email"`
	CheckIn        time.Time    `db:"check_in"`
	CheckOut       time.Time    `db:"check_out"`
	Rooms          int          `db:"rooms"`
	Market         string       `db:"market"`
	Status         string       `db:"status"`
	PriceBreakdown []byte       `db:"price_breakdown"`
	ExpiresAt      sql.NullTime `db:"expires_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r bookingRow) toDomain() (domain.Booking, error) {
	b := domain.Booking{
		ID:        r.ID,
		RoomID:    r.RoomID,
		HotelID:   r.HotelID,
		UserID:    r.UserID,
		Email:     r.Email,
		CheckIn:   r.CheckIn,
		CheckOut:  r.CheckOut,
		Rooms:     r.Rooms,
		Market:    domain.Market(r.Market),
		Status:    domain.BookingStatus(r.Status),
		ExpiresAt: r.ExpiresAt.Time,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := unmarshalJSONB(r.PriceBreakdown, &b.PriceBreakdown); err != nil {
		return domain.Booking{}, fmt.Errorf("decode price breakdown of booking %s: %w", r.ID, err)
	}
	return b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	breakdown, err := json.Marshal(booking.PriceBreakdown)
	if err != nil {
		return err
	}

	return r.db.QueryRowxContext(ctx, `INSERT INTO bookings (id, room_id, hotel_id, user_id, email, check_in, check_out, rooms, market, status, price_breakdown, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		booking.ID, booking.RoomID, booking.HotelID, booking.UserID, booking.Email, booking.CheckIn, booking.CheckOut,
		booking.Rooms, string(booking.Market), string(booking.Status), breakdown, nullTime(booking.ExpiresAt)).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id); err != nil {
		return nil, notFound(err, "booking", id)
	}
	b, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	var row bookingRow
	err := r.db.GetContext(ctx, &row, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns,
		string(to), id, string(from))
	if err != nil {
		return nil, stale(err, "booking", id)
	}
	b, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = $1 AND status = ANY($2) AND check_in < $3 AND check_out > $4
		ORDER BY check_in`, roomID, pq.Array(names), checkOut, checkIn)
	if err != nil {
		return nil, err
	}
	return bookingsFromRows(rows)
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status=$2 AND expires_at <= $3
		RETURNING `+bookingColumns, string(domain.BookingStatusCancelled), string(domain.BookingStatusPending), deadline)
	if err != nil {
		return nil, err
	}
	return bookingsFromRows(rows)
}

func bookingsFromRows(rows []bookingRow) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
