package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jmoiron/sqlx"
)

type RoomFilter struct {
	HotelID      string
	MinOccupancy int
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]domain.Room, error)
	// Reserve moves quantity units from available to reserved only when
	// available_quantity >= quantity, in a single statement.
	Reserve(ctx context.Context, roomID string, quantity int) (*domain.Room, error)
	Release(ctx context.Context, roomID string, quantity int) (*domain.Room, error)
	SetCounters(ctx context.Context, roomID string, available, reserved int) (*domain.Room, error)
}

type PGRoomRepository struct {
	db *sqlx.DB
}

func NewRoomRepository(db *sqlx.DB) RoomRepository {
	return &PGRoomRepository{db: db}
}

const roomColumns = `id, hotel_id, name, max_occupancy, available_quantity, reserved_quantity, base_price, price_periods, market_prices, bulk_settings, created_at, updated_at`

type roomRow struct {
	ID                string    `db:"id"`
	HotelID           string    `db:"hotel_id"`
	Name              string    `db:"name"`
	MaxOccupancy      int       `db:"max_occupancy"`
	AvailableQuantity int       `db:"available_quantity"`
	ReservedQuantity  int       `db:"reserved_quantity"`
	BasePrice         float64   `db:"base_price"`
	PricePeriods      []byte    `db:"price_periods"`
	MarketPrices      []byte    `db:"market_prices"`
	BulkSettings      []byte    `db:"bulk_settings"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r roomRow) toDomain() (*domain.Room, error) {
	room := &domain.Room{
		ID:                r.ID,
		HotelID:           r.HotelID,
		Name:              r.Name,
		MaxOccupancy:      r.MaxOccupancy,
		AvailableQuantity: r.AvailableQuantity,
		ReservedQuantity:  r.ReservedQuantity,
		BasePrice:         r.BasePrice,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if err := unmarshalJSONB(r.PricePeriods, &room.PricePeriods); err != nil {
		return nil, fmt.Errorf("decode price periods of room %s: %w", r.ID, err)
	}
	if err := unmarshalJSONB(r.MarketPrices, &room.MarketPrices); err != nil {
		return nil, fmt.Errorf("decode market prices of room %s: %w", r.ID, err)
	}
	if err := unmarshalJSONB(r.BulkSettings, &room.BulkSettings); err != nil {
		return nil, fmt.Errorf("decode bulk settings of room %s: %w", r.ID, err)
	}
	return room, nil
}

func (r *PGRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	periods, err := json.Marshal(nonNil(room.PricePeriods))
	if err != nil {
		return err
	}
	markets, err := json.Marshal(nonNil(room.MarketPrices))
	if err != nil {
		return err
	}
	bulk, err := json.Marshal(room.BulkSettings)
	if err != nil {
		return err
	}

	row := r.db.QueryRowxContext(ctx, `INSERT INTO rooms (id, hotel_id, name, max_occupancy, available_quantity, reserved_quantity, base_price, price_periods, market_prices, bulk_settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		room.ID, room.HotelID, room.Name, room.MaxOccupancy, room.AvailableQuantity, room.ReservedQuantity, room.BasePrice, periods, markets, bulk)
	return row.Scan(&room.CreatedAt, &room.UpdatedAt)
}

func (r *PGRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var row roomRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id); err != nil {
		return nil, notFound(err, "room", id)
	}
	return row.toDomain()
}

func (r *PGRoomRepository) List(ctx context.Context, filter RoomFilter) ([]domain.Room, error) {
	var rows []roomRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+roomColumns+` FROM rooms
		WHERE ($1 = '' OR hotel_id = $1) AND max_occupancy >= $2
		ORDER BY hotel_id, name`, filter.HotelID, filter.MinOccupancy)
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(rows))
	for _, row := range rows {
		room, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func (r *PGRoomRepository) Reserve(ctx context.Context, roomID string, quantity int) (*domain.Room, error) {
	var row roomRow
	err := r.db.GetContext(ctx, &row, `UPDATE rooms
		SET available_quantity = available_quantity - $2, reserved_quantity = reserved_quantity + $2, updated_at = now()
		WHERE id = $1 AND available_quantity >= $2
		RETURNING `+roomColumns, roomID, quantity)
	if err == nil {
		return row.toDomain()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var current struct {
		Name      string `db:"name"`
		Available int    `db:"available_quantity"`
	}
	if err := r.db.GetContext(ctx, &current, `SELECT name, available_quantity FROM rooms WHERE id=$1`, roomID); err != nil {
		return nil, notFound(err, "room", roomID)
	}
	return nil, &domain.CapacityError{RoomID: roomID, RoomName: current.Name, Requested: quantity, Available: current.Available}
}

func (r *PGRoomRepository) Release(ctx context.Context, roomID string, quantity int) (*domain.Room, error) {
	var row roomRow
	err := r.db.GetContext(ctx, &row, `UPDATE rooms
		SET reserved_quantity = GREATEST(0, reserved_quantity - $2), available_quantity = available_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, roomID, quantity)
	if err != nil {
		return nil, notFound(err, "room", roomID)
	}
	return row.toDomain()
}

func (r *PGRoomRepository) SetCounters(ctx context.Context, roomID string, available, reserved int) (*domain.Room, error) {
	var row roomRow
	err := r.db.GetContext(ctx, &row, `UPDATE rooms
		SET available_quantity = $2, reserved_quantity = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, roomID, available, reserved)
	if err != nil {
		return nil, notFound(err, "room", roomID)
	}
	return row.toDomain()
}

var _ RoomRepository = (*PGRoomRepository)(nil)
