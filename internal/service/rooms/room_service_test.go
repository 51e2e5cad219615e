package rooms

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/pricing"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) List(ctx context.Context, filter repository.RoomFilter) ([]domain.Room, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomRepository) Reserve(ctx context.Context, roomID string, quantity int) (*domain.Room, error) {
	args := m.Called(ctx, roomID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) Release(ctx context.Context, roomID string, quantity int) (*domain.Room, error) {
	args := m.Called(ctx, roomID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) SetCounters(ctx context.Context, roomID string, available, reserved int) (*domain.Room, error) {
	args := m.Called(ctx, roomID, available, reserved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, room *domain.Room, in availability.Input) (availability.Result, error) {
	args := m.Called(ctx, room, in)
	return args.Get(0).(availability.Result), args.Error(1)
}

func (m *MockChecker) Conflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time) (string, error) {
	args := m.Called(ctx, roomID, checkIn, checkOut)
	return args.String(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRooms(ctx context.Context, hotelID string) ([]domain.Room, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockCache) SetRooms(ctx context.Context, hotelID string, rooms []domain.Room) error {
	return m.Called(ctx, hotelID, rooms).Error(0)
}

func (m *MockCache) InvalidateRooms(ctx context.Context, hotelIDs ...string) error {
	return m.Called(ctx, hotelIDs).Error(0)
}

var (
	checkIn  = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
)

func newService(repo *MockRoomRepository, checker *MockChecker, cache *MockCache) *RoomService {
	log, _ := test.NewNullLogger()
	var c Cache
	if cache != nil {
		c = cache
	}
	return NewRoomService(repo, checker, c, log,
		WithDefaultDiscounts([]domain.DiscountTier{{MinQuantity: 5, Percent: 5}}),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
}

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Validation", func(t *testing.T) {
		repo := &MockRoomRepository{}
		service := newService(repo, &MockChecker{}, nil)

		room, err := service.CreateRoom(ctx, CreateRoomInput{
			MaxOccupancy: 0,
			MarketPrices: []MarketPriceInput{{Market: "Atlantis", Price: 10}},
		})

		assert.Nil(t, room)
		ve := domain.IsValidationError(err)
		require.NotNil(t, ve)
		assert.Contains(t, ve.Fields(), "hotel_id")
		assert.Contains(t, ve.Fields(), "name")
		assert.Contains(t, ve.Fields(), "max_occupancy")
		assert.Contains(t, ve.Fields(), "market_prices[0]")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		repo := &MockRoomRepository{}
		cache := &MockCache{}
		service := newService(repo, &MockChecker{}, cache)

		repo.On("Create", ctx, mock.MatchedBy(func(r *domain.Room) bool {
			return r.ID != "" && r.HotelID == "h1" && r.MarketPrices[0].Market == domain.MarketKorean
		})).Return(nil).Once()
		cache.On("InvalidateRooms", ctx, []string{"h1"}).Return(nil).Once()

		room, err := service.CreateRoom(ctx, CreateRoomInput{
			HotelID:           "h1",
			Name:              "Ocean View",
			MaxOccupancy:      2,
			AvailableQuantity: 4,
			MarketPrices:      []MarketPriceInput{{Market: "korean", Price: 12}},
		})

		require.NoError(t, err)
		assert.Equal(t, "Ocean View", room.Name)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestRoomService_ListRooms(t *testing.T) {
	ctx := context.Background()
	rooms := []domain.Room{{ID: "r1", HotelID: "h1"}}

	t.Run("Cache hit", func(t *testing.T) {
		repo := &MockRoomRepository{}
		cache := &MockCache{}
		cache.On("GetRooms", ctx, "h1").Return(rooms, nil).Once()

		got, err := newService(repo, &MockChecker{}, cache).ListRooms(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, rooms, got)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("Cache miss", func(t *testing.T) {
		repo := &MockRoomRepository{}
		cache := &MockCache{}
		cache.On("GetRooms", ctx, "h1").Return(nil, nil).Once()
		repo.On("List", ctx, repository.RoomFilter{HotelID: "h1"}).Return(rooms, nil).Once()
		cache.On("SetRooms", ctx, "h1", rooms).Return(errors.New("redis down")).Once()

		got, err := newService(repo, &MockChecker{}, cache).ListRooms(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, rooms, got)
		cache.AssertExpectations(t)
	})
}

func TestRoomService_ListAvailable(t *testing.T) {
	ctx := context.Background()
	repo := &MockRoomRepository{}
	checker := &MockChecker{}

	rooms := []domain.Room{
		{ID: "small", MaxOccupancy: 1, BasePrice: 50},
		{ID: "busy", MaxOccupancy: 4, BasePrice: 70},
		{ID: "free", MaxOccupancy: 3, BasePrice: 90},
	}
	repo.On("List", ctx, repository.RoomFilter{}).Return(rooms, nil)
	checker.On("Conflicts", ctx, "busy", checkIn, checkOut).Return(availability.ReasonConflictingBooking, nil)
	checker.On("Conflicts", ctx, "free", checkIn, checkOut).Return("", nil)

	got, err := newService(repo, checker, nil).ListAvailable(ctx, StayQuery{CheckIn: checkIn, CheckOut: checkOut, Adults: 2, Children: 1})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "free", got[0].ID)
	assert.Equal(t, 3, got[0].Nights)
	assert.Equal(t, 90.0, got[0].Price)
	assert.Equal(t, 270.0, got[0].TotalPrice)
	checker.AssertNotCalled(t, "Conflicts", ctx, "small", checkIn, checkOut)
}

func TestRoomService_HotelAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown market", func(t *testing.T) {
		_, err := newService(&MockRoomRepository{}, &MockChecker{}, nil).HotelAvailability(ctx, HotelQuery{
			HotelID: "h1", CheckIn: checkIn, CheckOut: checkOut, Market: "Martian",
		})
		ve := domain.IsValidationError(err)
		require.NotNil(t, ve)
		assert.Contains(t, ve.Fields(), "market")
	})

	t.Run("Only available rooms", func(t *testing.T) {
		repo := &MockRoomRepository{}
		checker := &MockChecker{}
		rooms := []domain.Room{{ID: "r1", HotelID: "h1"}, {ID: "r2", HotelID: "h1"}}
		repo.On("List", ctx, repository.RoomFilter{HotelID: "h1"}).Return(rooms, nil)

		in := availability.Input{CheckIn: checkIn, CheckOut: checkOut, Quantity: 1, Market: domain.MarketJapanese}
		checker.On("Check", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.ID == "r1" }), in).
			Return(availability.Result{Available: true, Nights: 3, Quote: pricing.Quote{NightlyRate: 100, Surcharge: 10, Source: pricing.SourceDirect}}, nil)
		checker.On("Check", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.ID == "r2" }), in).
			Return(availability.Result{Reason: availability.ReasonNoQuantity}, nil)

		got, err := newService(repo, checker, nil).HotelAvailability(ctx, HotelQuery{
			HotelID: "h1", CheckIn: checkIn, CheckOut: checkOut, Market: "Japanese",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].ID)
		assert.Equal(t, 100.0, got[0].BasePrice)
		assert.Equal(t, 110.0, got[0].Price)
		assert.Equal(t, 330.0, got[0].TotalPrice)
		assert.Equal(t, pricing.SourceDirect, got[0].PriceSource)
	})
}

func TestRoomService_BulkAvailability(t *testing.T) {
	ctx := context.Background()
	repo := &MockRoomRepository{}
	checker := &MockChecker{}

	rooms := []domain.Room{
		{ID: "plain", HotelID: "h1"},
		{ID: "group", HotelID: "h1", AvailableQuantity: 10, BulkSettings: domain.BulkSettings{Enabled: true, MinQuantity: 2, MaxQuantity: 8}},
		{ID: "tiered", HotelID: "h1", AvailableQuantity: 10, BulkSettings: domain.BulkSettings{
			Enabled: true, DiscountTiers: []domain.DiscountTier{{MinQuantity: 3, Percent: 10}},
		}},
	}
	repo.On("List", ctx, repository.RoomFilter{HotelID: "h1"}).Return(rooms, nil)
	checker.On("Check", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.ID == "tiered" }), mock.MatchedBy(func(in availability.Input) bool {
		return in.Quantity == 3 && in.SkipConflicts
	})).Return(availability.Result{Available: true, Nights: 3, Quote: pricing.Quote{NightlyRate: 100, Source: pricing.SourceBase}}, nil)

	got, err := newService(repo, checker, nil).BulkAvailability(ctx, BulkQuery{
		HotelID: "h1", CheckIn: checkIn, CheckOut: checkOut,
		Quantities: map[string]int{"group": 9, "tiered": 3},
	})

	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "group", got[0].RoomID)
	assert.False(t, got[0].Available)
	assert.Equal(t, ReasonQuantityOutRange, got[0].Reason)

	assert.Equal(t, "tiered", got[1].RoomID)
	assert.True(t, got[1].Available)
	assert.Equal(t, pricing.Breakdown{
		UnitPrice: 100, Nights: 3, Quantity: 3, Subtotal: 900, DiscountPercent: 10, DiscountAmount: 90, FinalPrice: 810,
	}, got[1].Pricing)
}

func TestRoomService_RoomBulkAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("Not found", func(t *testing.T) {
		repo := &MockRoomRepository{}
		repo.On("GetByID", ctx, "missing").Return(nil, fmt.Errorf("room missing: %w", domain.ErrNotFound))

		_, err := newService(repo, &MockChecker{}, nil).RoomBulkAvailability(ctx, "missing", RoomBulkQuery{CheckIn: checkIn, CheckOut: checkOut, Quantity: 2})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Default discount", func(t *testing.T) {
		repo := &MockRoomRepository{}
		checker := &MockChecker{}
		room := &domain.Room{ID: "r1", AvailableQuantity: 6, BulkSettings: domain.BulkSettings{Enabled: true}}
		repo.On("GetByID", ctx, "r1").Return(room, nil)
		checker.On("Check", ctx, room, mock.Anything).
			Return(availability.Result{Available: true, Nights: 2, Quote: pricing.Quote{NightlyRate: 50, Surcharge: 10, Source: pricing.SourceFuture}}, nil)

		got, err := newService(repo, checker, nil).RoomBulkAvailability(ctx, "r1", RoomBulkQuery{CheckIn: checkIn, CheckOut: checkOut, Quantity: 5})
		require.NoError(t, err)
		assert.True(t, got.Available)
		assert.Equal(t, 600.0, got.Pricing.Subtotal)
		assert.Equal(t, 5.0, got.Pricing.DiscountPercent)
		assert.Equal(t, 570.0, got.Pricing.FinalPrice)
	})

	t.Run("Bulk disabled", func(t *testing.T) {
		repo := &MockRoomRepository{}
		repo.On("GetByID", ctx, "r2").Return(&domain.Room{ID: "r2"}, nil)

		got, err := newService(repo, &MockChecker{}, nil).RoomBulkAvailability(ctx, "r2", RoomBulkQuery{CheckIn: checkIn, CheckOut: checkOut, Quantity: 1})
		require.NoError(t, err)
		assert.False(t, got.Available)
		assert.Equal(t, ReasonBulkDisabled, got.Reason)
	})
}

func TestRoomService_OverrideAvailability(t *testing.T) {
	ctx := context.Background()
	neg, five, one := -1, 5, 1

	t.Run("Negative", func(t *testing.T) {
		_, err := newService(&MockRoomRepository{}, &MockChecker{}, nil).OverrideAvailability(ctx, "r1", OverrideInput{AvailableQuantity: &neg})
		assert.NotNil(t, domain.IsValidationError(err))
	})

	t.Run("Partial override keeps the other counter", func(t *testing.T) {
		repo := &MockRoomRepository{}
		cache := &MockCache{}
		repo.On("GetByID", ctx, "r1").Return(&domain.Room{ID: "r1", HotelID: "h1", AvailableQuantity: 2, ReservedQuantity: 3}, nil)
		repo.On("SetCounters", ctx, "r1", 5, 3).Return(&domain.Room{ID: "r1", HotelID: "h1", AvailableQuantity: 5, ReservedQuantity: 3}, nil).Once()
		cache.On("InvalidateRooms", ctx, []string{"h1"}).Return(nil).Once()

		room, err := newService(repo, &MockChecker{}, cache).OverrideAvailability(ctx, "r1", OverrideInput{AvailableQuantity: &five})
		require.NoError(t, err)
		assert.Equal(t, 5, room.AvailableQuantity)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Both counters", func(t *testing.T) {
		repo := &MockRoomRepository{}
		repo.On("GetByID", ctx, "r1").Return(&domain.Room{ID: "r1"}, nil)
		repo.On("SetCounters", ctx, "r1", 5, 1).Return(&domain.Room{ID: "r1", AvailableQuantity: 5, ReservedQuantity: 1}, nil).Once()

		room, err := newService(repo, &MockChecker{}, nil).OverrideAvailability(ctx, "r1", OverrideInput{AvailableQuantity: &five, ReservedQuantity: &one})
		require.NoError(t, err)
		assert.Equal(t, 1, room.ReservedQuantity)
	})
}
