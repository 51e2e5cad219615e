package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/inventory"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/service/bulkbooking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBulkBookingUseCase struct {
	mock.Mock
}

func (m *MockBulkBookingUseCase) Create(ctx context.Context, input bulkbooking.CreateInput) (*bulkbooking.CreateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulkbooking.CreateResult), args.Error(1)
}

func (m *MockBulkBookingUseCase) Get(ctx context.Context, id string) (*domain.BulkBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkBooking), args.Error(1)
}

func (m *MockBulkBookingUseCase) List(ctx context.Context, filter repository.BulkBookingFilter) ([]domain.BulkBooking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.BulkBooking), args.Error(1)
}

func (m *MockBulkBookingUseCase) ConfirmAll(ctx context.Context, id string) (*domain.BulkBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkBooking), args.Error(1)
}

func (m *MockBulkBookingUseCase) Cancel(ctx context.Context, id string, details domain.CancellationDetails, userID string) (*bulkbooking.ReleaseResult, error) {
	args := m.Called(ctx, id, details, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulkbooking.ReleaseResult), args.Error(1)
}

func (m *MockBulkBookingUseCase) Delete(ctx context.Context, id string) (*bulkbooking.ReleaseResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulkbooking.ReleaseResult), args.Error(1)
}

func (m *MockBulkBookingUseCase) Complete(ctx context.Context, id string) (*domain.BulkBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkBooking), args.Error(1)
}

func TestBulkBookingHandler_create(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bulk-bookings", []byte(`{
		"group_name": "Sharma wedding",
		"bookings": [
			{"hotel_id": "h1", "room_id": "r1", "client_details": {"name": "Asha"}},
			{"hotel_id": "h1", "room_id": "r1", "client_details": {"name": "Ravi"}}
		],
		"check_in": "2025-09-01",
		"check_out": "2025-09-05",
		"adults": 4,
		"market": "Indian",
		"payment": {"paid_amount": 200}
	}`))
	c.Request.Header.Set(UserIDHeader, "agent-7")

	expected := bulkbooking.CreateInput{
		GroupName: "Sharma wedding",
		Bookings: []bulkbooking.EntryInput{
			{HotelID: "h1", RoomID: "r1", ClientDetails: domain.ClientDetails{Name: "Asha"}},
			{HotelID: "h1", RoomID: "r1", ClientDetails: domain.ClientDetails{Name: "Ravi"}},
		},
		CheckIn:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		Adults:   4,
		Market:   "Indian",
		Payment:  domain.Payment{PaidAmount: 200},
		UserID:   "agent-7",
	}
	mockService.On("Create", c.Request.Context(), expected).Return(&bulkbooking.CreateResult{
		BulkBooking: &domain.BulkBooking{ID: "bb1", GroupName: "Sharma wedding", Status: domain.BulkStatusPending},
		RoomsUpdated: []inventory.RoomOutcome{
			{RoomID: "r1", Quantity: 2, Outcome: inventory.OutcomeOK},
		},
	}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "bulk_booking")
	assert.Len(t, resp["rooms_updated"], 1)
	mockService.AssertExpectations(t)
}

func TestBulkBookingHandler_create_Capacity(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodPost, "/api/v1/bulk-bookings", []byte(`{"group_name": "x"}`))

	mockService.On("Create", mock.Anything, mock.Anything).
		Return(nil, &domain.CapacityError{RoomID: "r1", RoomName: "Twin", Requested: 3, Available: 1})

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "r1", resp.RoomID)
}

func TestBulkBookingHandler_list(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodGet, "/api/v1/bulk-bookings?hotelId=h1&status=Partially%20Confirmed", nil)

	mockService.On("List", c.Request.Context(), repository.BulkBookingFilter{
		HotelID: "h1",
		Status:  domain.BulkStatusPartiallyConfirmed,
	}).Return([]domain.BulkBooking{{ID: "bb1"}}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBulkBookingHandler_list_UnknownStatus(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodGet, "/api/v1/bulk-bookings?status=Archived", nil)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestBulkBookingHandler_cancel(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodPut, "/api/v1/bulk-bookings/bb1/cancel",
		[]byte(`{"cancellation_reason": "event moved", "refund_amount": 150, "cancellation_fee": 50}`))
	c.Params = gin.Params{{Key: "id", Value: "bb1"}}
	c.Request.Header.Set(UserIDHeader, "agent-7")

	details := domain.CancellationDetails{Reason: "event moved", RefundAmount: 150, CancellationFee: 50}
	mockService.On("Cancel", c.Request.Context(), "bb1", details, "agent-7").Return(&bulkbooking.ReleaseResult{
		BulkBooking:   &domain.BulkBooking{ID: "bb1", Status: domain.BulkStatusCancelled},
		RoomsReleased: []inventory.RoomOutcome{{RoomID: "r1", Quantity: 2, Outcome: inventory.OutcomeOK}},
	}, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp bulkbooking.ReleaseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.BulkStatusCancelled, resp.BulkBooking.Status)
	require.Len(t, resp.RoomsReleased, 1)
	assert.Equal(t, 2, resp.RoomsReleased[0].Quantity)
}

func TestBulkBookingHandler_confirm_Closed(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodPut, "/api/v1/bulk-bookings/bb1/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "bb1"}}
	mockService.On("ConfirmAll", c.Request.Context(), "bb1").Return(nil, domain.ErrInvalidTransition)

	handler.confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBulkBookingHandler_delete(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodDelete, "/api/v1/bulk-bookings/bb1", nil)
	c.Params = gin.Params{{Key: "id", Value: "bb1"}}
	mockService.On("Delete", c.Request.Context(), "bb1").
		Return(&bulkbooking.ReleaseResult{RoomsReleased: []inventory.RoomOutcome{}}, nil)

	handler.delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rooms_released": []}`, w.Body.String())
}

func TestBulkBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBulkBookingUseCase{}
	handler := NewBulkBookingHandler(mockService)
	c, w := newTestContext(http.MethodGet, "/api/v1/bulk-bookings/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	mockService.On("Get", c.Request.Context(), "nope").Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
