package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/inventory"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/pricing"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Checker interface {
	Check(ctx context.Context, room *domain.Room, in availability.Input) (availability.Result, error)
}

type Ledger interface {
	Reserve(ctx context.Context, rooms []domain.RoomQuantity) []inventory.RoomOutcome
	Release(ctx context.Context, rooms []domain.RoomQuantity) []inventory.RoomOutcome
}

type Cache interface {
	InvalidateRooms(ctx context.Context, hotelIDs ...string) error
}

type CreateBookingInput struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"-"`
	Email    string    `json:"email"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Rooms    int       `json:"rooms"`
	Market   string    `json:"market"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	rooms              repository.RoomRepository
	checker            Checker
	ledger             Ledger
	cache              Cache
	producer           Producer
	log                *logrus.Logger
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	checker Checker,
	ledger Ledger,
	producer Producer,
	log *logrus.Logger,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		rooms:        rooms,
		checker:      checker,
		ledger:       ledger,
		producer:     producer,
		log:          log,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking holds input.Rooms units of the room as a Pending booking that
// expires after the hold TTL unless confirmed or paid.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.Rooms == 0 {
		input.Rooms = 1
	}
	ve := domain.NewValidationError()
	if input.RoomID == "" {
		ve.Add("room_id", "room id is required")
	}
	if input.Email == "" {
		ve.Add("email", "email is required")
	}
	if input.Rooms < 0 {
		ve.Add("rooms", "rooms must be at least 1")
	}
	domain.Stay{CheckIn: input.CheckIn, CheckOut: input.CheckOut}.Validate(ve)
	market, err := domain.ParseMarket(input.Market)
	if err != nil {
		ve.Add("market", err.Error())
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}

	res, err := s.checker.Check(ctx, room, availability.Input{
		CheckIn:  input.CheckIn,
		CheckOut: input.CheckOut,
		Quantity: input.Rooms,
		Market:   market,
	})
	if err != nil {
		return nil, err
	}
	if !res.Available {
		return nil, unavailableError(room, input.Rooms, res.Reason)
	}

	outcomes := s.ledger.Reserve(ctx, []domain.RoomQuantity{{RoomID: room.ID, RoomName: room.Name, Quantity: input.Rooms}})
	if err := inventory.FirstFailure(outcomes); err != nil {
		return nil, err
	}

	now := s.now()
	booking := &domain.Booking{
		ID:             uuid.NewString(),
		RoomID:         room.ID,
		HotelID:        room.HotelID,
		UserID:         input.UserID,
		Email:          input.Email,
		CheckIn:        input.CheckIn,
		CheckOut:       input.CheckOut,
		Rooms:          input.Rooms,
		Market:         market,
		Status:         domain.BookingStatusPending,
		PriceBreakdown: pricing.Stay(res.Quote, res.Nights, input.Rooms),
		ExpiresAt:      now.Add(s.holdTTL),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.ledger.Release(ctx, inventory.Undo(outcomes))
		return nil, err
	}
	s.invalidate(ctx, room.HotelID)

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"room_id":    room.ID,
		"rooms":      booking.Rooms,
	}).Info("booking created")
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// UpdateStatus applies an allowed transition. Entering Cancelled gives the units back.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("booking %s: %s to %s: %w", id, current.Status, status, domain.ErrInvalidTransition)
	}

	// Conditional on the status just read; a racing writer gets ErrConflict.
	updated, err := s.bookings.UpdateStatus(ctx, id, current.Status, status)
	if err != nil {
		return nil, err
	}
	if status == domain.BookingStatusCancelled {
		s.release(ctx, updated)
	}
	s.publish(ctx, "booking_"+strings.ToLower(string(status)), updated)
	return updated, nil
}

// ExpirePendingBookings cancels holds past their deadline and releases their units.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		s.release(ctx, &expired[i])
		s.publish(ctx, "booking_expired", &expired[i])
	}
	if len(expired) > 0 {
		s.log.WithField("count", len(expired)).Info("expired pending bookings")
	}
	return expired, nil
}

func (s *BookingService) release(ctx context.Context, b *domain.Booking) {
	outcomes := s.ledger.Release(ctx, []domain.RoomQuantity{{RoomID: b.RoomID, Quantity: b.Rooms}})
	if err := inventory.FirstFailure(outcomes); err != nil {
		s.log.WithField("booking_id", b.ID).WithError(err).Warn("failed to release booking units")
	}
	s.invalidate(ctx, b.HotelID)
}

func (s *BookingService) invalidate(ctx context.Context, hotelID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRooms(ctx, hotelID); err != nil {
		s.log.WithError(err).Warn("failed to invalidate room cache")
	}
}

// publish never fails the caller; the booking is already stored.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		Kind:       kafka.KindBooking,
		BookingID:  b.ID,
		RoomIDs:    []string{b.RoomID},
		Status:     string(b.Status),
		Email:      b.Email,
		Amount:     b.PriceBreakdown.Total,
		OccurredAt: s.now(),
	}

	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, b.ID, event); err != nil {
			s.log.WithFields(logrus.Fields{
				"event":      eventType,
				"booking_id": b.ID,
				"topic":      topic,
			}).WithError(err).Warn("failed to publish booking event")
		}
	}
}

func unavailableError(room *domain.Room, requested int, reason string) error {
	switch reason {
	case availability.ReasonConflictingBooking, availability.ReasonConflictingBulk:
		return fmt.Errorf("room %s: %s: %w", room.ID, reason, domain.ErrConflict)
	case availability.ReasonNoPricing:
		return fmt.Errorf("room %s: %w", room.ID, domain.ErrNoPricing)
	default:
		return &domain.CapacityError{
			RoomID:    room.ID,
			RoomName:  room.Name,
			Requested: requested,
			Available: max(0, room.AvailableQuantity),
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
