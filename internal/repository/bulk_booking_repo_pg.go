package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type BulkBookingFilter struct {
	Status  domain.BulkBookingStatus
	HotelID string
}

// BulkBookingRepository stores the aggregate as one document; entries are never
// addressed on their own.
type BulkBookingRepository interface {
	Create(ctx context.Context, b *domain.BulkBooking) error
	GetByID(ctx context.Context, id string) (*domain.BulkBooking, error)
	List(ctx context.Context, filter BulkBookingFilter) ([]domain.BulkBooking, error)
	// Update and Delete only touch the aggregate while it is still in prev
	// and fail with domain.ErrConflict otherwise.
	Update(ctx context.Context, b *domain.BulkBooking, prev domain.BulkBookingStatus) error
	Delete(ctx context.Context, id string, prev domain.BulkBookingStatus) error
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BulkBookingStatus) ([]domain.BulkBooking, error)
}

type PGBulkBookingRepository struct {
	db *sqlx.DB
}

func NewBulkBookingRepository(db *sqlx.DB) BulkBookingRepository {
	return &PGBulkBookingRepository{db: db}
}

func (r *PGBulkBookingRepository) Create(ctx context.Context, b *domain.BulkBooking) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bulk booking: %w", err)
	}
	roomIDs, hotelIDs := references(b)

	_, err = r.db.ExecContext(ctx, `INSERT INTO bulk_bookings (id, group_name, check_in, check_out, status, room_ids, hotel_ids, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.GroupName, b.CheckIn, b.CheckOut, string(b.Status), pq.Array(roomIDs), pq.Array(hotelIDs), doc, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *PGBulkBookingRepository) GetByID(ctx context.Context, id string) (*domain.BulkBooking, error) {
	var doc []byte
	if err := r.db.GetContext(ctx, &doc, `SELECT document FROM bulk_bookings WHERE id=$1`, id); err != nil {
		return nil, notFound(err, "bulk booking", id)
	}
	var b domain.BulkBooking
	if err := json.Unmarshal(doc, &b); err != nil {
		return nil, fmt.Errorf("decode bulk booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *PGBulkBookingRepository) List(ctx context.Context, filter BulkBookingFilter) ([]domain.BulkBooking, error) {
	var docs [][]byte
	err := r.db.SelectContext(ctx, &docs, `SELECT document FROM bulk_bookings
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR $2 = ANY(hotel_ids))
		ORDER BY created_at DESC`, string(filter.Status), filter.HotelID)
	if err != nil {
		return nil, err
	}
	return decodeBulkDocuments(docs)
}

func (r *PGBulkBookingRepository) Update(ctx context.Context, b *domain.BulkBooking, prev domain.BulkBookingStatus) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bulk booking: %w", err)
	}
	roomIDs, hotelIDs := references(b)

	res, err := r.db.ExecContext(ctx, `UPDATE bulk_bookings
		SET group_name=$2, check_in=$3, check_out=$4, status=$5, room_ids=$6, hotel_ids=$7, document=$8, updated_at=$9
		WHERE id=$1 AND status=$10`,
		b.ID, b.GroupName, b.CheckIn, b.CheckOut, string(b.Status), pq.Array(roomIDs), pq.Array(hotelIDs), doc, b.UpdatedAt, string(prev))
	if err != nil {
		return err
	}
	return requireCurrent(res, "bulk booking", b.ID)
}

func (r *PGBulkBookingRepository) Delete(ctx context.Context, id string, prev domain.BulkBookingStatus) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bulk_bookings WHERE id=$1 AND status=$2`, id, string(prev))
	if err != nil {
		return err
	}
	return requireCurrent(res, "bulk booking", id)
}

func (r *PGBulkBookingRepository) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, statuses []domain.BulkBookingStatus) ([]domain.BulkBooking, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var docs [][]byte
	err := r.db.SelectContext(ctx, &docs, `SELECT document FROM bulk_bookings
		WHERE $1 = ANY(room_ids) AND status = ANY($2) AND check_in < $3 AND check_out > $4
		ORDER BY check_in`, roomID, pq.Array(names), checkOut, checkIn)
	if err != nil {
		return nil, err
	}
	return decodeBulkDocuments(docs)
}

func decodeBulkDocuments(docs [][]byte) ([]domain.BulkBooking, error) {
	out := make([]domain.BulkBooking, 0, len(docs))
	for _, doc := range docs {
		var b domain.BulkBooking
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, fmt.Errorf("decode bulk booking: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// references lists the distinct room and hotel ids of the entries.
func references(b *domain.BulkBooking) (rooms, hotels []string) {
	seenRooms := make(map[string]bool)
	seenHotels := make(map[string]bool)
	for _, e := range b.Bookings {
		if !seenRooms[e.RoomID] {
			seenRooms[e.RoomID] = true
			rooms = append(rooms, e.RoomID)
		}
		if !seenHotels[e.HotelID] {
			seenHotels[e.HotelID] = true
			hotels = append(hotels, e.HotelID)
		}
	}
	return nonNil(rooms), nonNil(hotels)
}

var _ BulkBookingRepository = (*PGBulkBookingRepository)(nil)
