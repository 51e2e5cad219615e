package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBulkBooking() *domain.BulkBooking {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.BulkBooking{
		ID:        "bulk-1",
		GroupName: "Sales Offsite",
		CheckIn:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2025, 6, 13, 23, 59, 59, 0, time.UTC),
		Status:    domain.BulkStatusPending,
		Bookings: []domain.BulkBookingEntry{
			{ID: "e-1", HotelID: "hotel-1", RoomID: "room-1", Status: domain.EntryStatusPending, PriceBreakdown: domain.PriceBreakdown{Total: 300}},
			{ID: "e-2", HotelID: "hotel-1", RoomID: "room-1", Status: domain.EntryStatusPending, PriceBreakdown: domain.PriceBreakdown{Total: 300}},
			{ID: "e-3", HotelID: "hotel-2", RoomID: "room-9", Status: domain.EntryStatusPending, PriceBreakdown: domain.PriceBreakdown{Total: 150}},
		},
		CreatedAt: now,
	}
	b.Recompute(now)
	return b
}

func TestBulkBookingRepository_CreateAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBulkBookingRepository(db)
	b := sampleBulkBooking()

	mock.ExpectExec(`INSERT INTO bulk_bookings`).
		WithArgs("bulk-1", "Sales Offsite", b.CheckIn, b.CheckOut, "Pending", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), b.CreatedAt, b.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(t.Context(), b))

	doc, err := json.Marshal(b)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT document FROM bulk_bookings WHERE id`).
		WithArgs("bulk-1").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(doc))

	got, err := repo.GetByID(t.Context(), "bulk-1")
	require.NoError(t, err)
	assert.Equal(t, "Sales Offsite", got.GroupName)
	assert.Len(t, got.Bookings, 3)
	assert.Equal(t, 750.0, got.Summary.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkBookingRepository_UpdateChangedConcurrently(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBulkBookingRepository(db)
	b := sampleBulkBooking()

	mock.ExpectExec(`UPDATE bulk_bookings .* WHERE id=\$1 AND status=\$10`).
		WithArgs("bulk-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "Pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(t.Context(), b, domain.BulkStatusPending)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkBookingRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBulkBookingRepository(db)

	mock.ExpectExec(`DELETE FROM bulk_bookings WHERE id=\$1 AND status=\$2`).
		WithArgs("bulk-1", "Pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(t.Context(), "bulk-1", domain.BulkStatusPending))

	mock.ExpectExec(`DELETE FROM bulk_bookings WHERE id=\$1 AND status=\$2`).
		WithArgs("bulk-1", "Pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(t.Context(), "bulk-1", domain.BulkStatusPending), domain.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkBookingRepository_FindOverlapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBulkBookingRepository(db)
	b := sampleBulkBooking()
	doc, err := json.Marshal(b)
	require.NoError(t, err)

	in := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE \$1 = ANY\(room_ids\) AND status = ANY\(\$2\)`).
		WithArgs("room-9", sqlmock.AnyArg(), out, in).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(doc))

	found, err := repo.FindOverlapping(t.Context(), "room-9", in, out, domain.OccupyingBulkStatuses)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].HasRoom("room-9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferences(t *testing.T) {
	rooms, hotels := references(sampleBulkBooking())
	assert.Equal(t, []string{"room-1", "room-9"}, rooms)
	assert.Equal(t, []string{"hotel-1", "hotel-2"}, hotels)

	rooms, hotels = references(&domain.BulkBooking{})
	assert.Equal(t, []string{}, rooms)
	assert.Equal(t, []string{}, hotels)
}
