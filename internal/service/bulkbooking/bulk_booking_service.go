package bulkbooking

import (
	"context"
	"fmt"
	"sort"
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

type BulkBookingUseCase interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, id string) (*domain.BulkBooking, error)
	List(ctx context.Context, filter repository.BulkBookingFilter) ([]domain.BulkBooking, error)
	ConfirmAll(ctx context.Context, id string) (*domain.BulkBooking, error)
	Cancel(ctx context.Context, id string, details domain.CancellationDetails, userID string) (*ReleaseResult, error)
	Delete(ctx context.Context, id string) (*ReleaseResult, error)
	Complete(ctx context.Context, id string) (*domain.BulkBooking, error)
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

// Locker serializes check-and-reserve per room across processes.
type Locker interface {
	AcquireRoomLock(ctx context.Context, roomID, token string, ttl time.Duration) (bool, error)
	ReleaseRoomLock(ctx context.Context, roomID, token string) error
}

type EntryInput struct {
	HotelID       string               `json:"hotel_id"`
	RoomID        string               `json:"room_id"`
	ClientDetails domain.ClientDetails `json:"client_details"`
}

type CreateInput struct {
	GroupName       string         `json:"group_name"`
	Bookings        []EntryInput   `json:"bookings"`
	CheckIn         time.Time      `json:"check_in"`
	CheckOut        time.Time      `json:"check_out"`
	CheckInTime     string         `json:"check_in_time"`
	CheckOutTime    string         `json:"check_out_time"`
	Adults          int            `json:"adults"`
	Children        int            `json:"children"`
	MealPlan        string         `json:"meal_plan"`
	SpecialRequests string         `json:"special_requests"`
	Market          string         `json:"market"`
	Payment         domain.Payment `json:"payment"`
	UserID          string         `json:"-"`
}

type CreateResult struct {
	BulkBooking  *domain.BulkBooking     `json:"bulk_booking"`
	RoomsUpdated []inventory.RoomOutcome `json:"rooms_updated"`
}

type ReleaseResult struct {
	BulkBooking   *domain.BulkBooking     `json:"bulk_booking,omitempty"`
	RoomsReleased []inventory.RoomOutcome `json:"rooms_released"`
}

type BulkBookingService struct {
	bulk               repository.BulkBookingRepository
	rooms              repository.RoomRepository
	checker            Checker
	ledger             Ledger
	producer           Producer
	cache              Cache
	locker             Locker
	lockTTL            time.Duration
	log                *logrus.Logger
	bookingTopic       string
	notificationsTopic string
	defaultDiscounts   []domain.DiscountTier
	now                func() time.Time
}

type BulkBookingServiceOption func(*BulkBookingService)

func WithNotificationsTopic(topic string) BulkBookingServiceOption {
	return func(s *BulkBookingService) {
		s.notificationsTopic = topic
	}
}

func WithCache(cache Cache) BulkBookingServiceOption {
	return func(s *BulkBookingService) {
		s.cache = cache
	}
}

func WithLocker(locker Locker, ttl time.Duration) BulkBookingServiceOption {
	return func(s *BulkBookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithDefaultDiscounts(tiers []domain.DiscountTier) BulkBookingServiceOption {
	return func(s *BulkBookingService) {
		s.defaultDiscounts = tiers
	}
}

func WithClock(now func() time.Time) BulkBookingServiceOption {
	return func(s *BulkBookingService) {
		s.now = now
	}
}

func NewBulkBookingService(
	bulk repository.BulkBookingRepository,
	rooms repository.RoomRepository,
	checker Checker,
	ledger Ledger,
	producer Producer,
	log *logrus.Logger,
	bookingTopic string,
	opts ...BulkBookingServiceOption,
) *BulkBookingService {
	s := &BulkBookingService{
		bulk:         bulk,
		rooms:        rooms,
		checker:      checker,
		ledger:       ledger,
		producer:     producer,
		log:          log,
		bookingTopic: bookingTopic,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type quotedRoom struct {
	room     *domain.Room
	quantity int
	result   availability.Result
}

// Create reserves one unit per entry and stores the aggregate. Either every
// room is reserved or none is: a room rejected by the guard rolls back the
// rooms already reserved by this request.
func (s *BulkBookingService) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	market, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.BulkBookingEntry, len(input.Bookings))
	for i, in := range input.Bookings {
		entries[i] = domain.BulkBookingEntry{
			ID:            uuid.NewString(),
			HotelID:       in.HotelID,
			RoomID:        in.RoomID,
			ClientDetails: in.ClientDetails,
			Status:        domain.EntryStatusPending,
		}
	}
	grouped := inventory.Group(entries)

	unlock, err := s.lockRooms(ctx, grouped)
	if err != nil {
		return nil, err
	}
	defer unlock()

	quoted := make(map[string]*quotedRoom, len(grouped))
	for _, rq := range grouped {
		room, err := s.rooms.GetByID(ctx, rq.RoomID)
		if err != nil {
			return nil, err
		}
		quoted[rq.RoomID] = &quotedRoom{room: room, quantity: rq.Quantity}
	}

	ve := domain.NewValidationError()
	for i := range entries {
		room := quoted[entries[i].RoomID].room
		if room.HotelID != entries[i].HotelID {
			ve.Add(fmt.Sprintf("bookings[%d].hotel_id", i), fmt.Sprintf("room %s does not belong to hotel %s", room.ID, entries[i].HotelID))
		}
		entries[i].RoomName = room.Name
	}
	for _, rq := range grouped {
		q := quoted[rq.RoomID]
		if !q.room.BulkSettings.Permits(q.quantity) {
			ve.Add("bookings", fmt.Sprintf("room %s does not accept a bulk booking of %d units", q.room.ID, q.quantity))
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	for _, rq := range grouped {
		q := quoted[rq.RoomID]
		res, err := s.checker.Check(ctx, q.room, availability.Input{
			CheckIn:       input.CheckIn,
			CheckOut:      input.CheckOut,
			Quantity:      q.quantity,
			Market:        market,
			SkipConflicts: true,
		})
		if err != nil {
			return nil, err
		}
		if !res.Available {
			return nil, unavailableError(q.room, q.quantity, res.Reason)
		}
		q.result = res
	}

	for i := range grouped {
		grouped[i].RoomName = quoted[grouped[i].RoomID].room.Name
	}
	outcomes := s.ledger.Reserve(ctx, grouped)
	if err := inventory.FirstFailure(outcomes); err != nil {
		s.ledger.Release(ctx, inventory.Undo(outcomes))
		return nil, err
	}

	for i := range entries {
		q := quoted[entries[i].RoomID]
		percent := pricing.DiscountPercent(q.room.BulkSettings.DiscountTiers, s.defaultDiscounts, q.quantity)
		entries[i].PriceBreakdown = pricing.Entry(q.result.Quote, q.result.Nights, percent)
	}

	now := s.now()
	b := &domain.BulkBooking{
		ID:              uuid.NewString(),
		GroupName:       input.GroupName,
		CheckIn:         input.CheckIn,
		CheckOut:        input.CheckOut,
		CheckInTime:     input.CheckInTime,
		CheckOutTime:    input.CheckOutTime,
		Adults:          input.Adults,
		Children:        input.Children,
		MealPlan:        input.MealPlan,
		SpecialRequests: input.SpecialRequests,
		Market:          market,
		Bookings:        entries,
		Payment:         domain.Payment{PaidAmount: input.Payment.PaidAmount, Method: input.Payment.Method},
		CreatedBy:       input.UserID,
		CreatedAt:       now,
	}
	b.Recompute(now)

	if err := s.bulk.Create(ctx, b); err != nil {
		s.ledger.Release(ctx, inventory.Undo(outcomes))
		return nil, err
	}
	s.invalidate(ctx, outcomes)

	s.log.WithFields(logrus.Fields{
		"bulk_booking_id": b.ID,
		"group":           b.GroupName,
		"rooms":           len(grouped),
		"entries":         len(entries),
	}).Info("bulk booking created")
	s.publish(ctx, "bulk_booking_created", b)

	return &CreateResult{BulkBooking: b, RoomsUpdated: inventory.Succeeded(outcomes)}, nil
}

func (s *BulkBookingService) Get(ctx context.Context, id string) (*domain.BulkBooking, error) {
	return s.bulk.GetByID(ctx, id)
}

func (s *BulkBookingService) List(ctx context.Context, filter repository.BulkBookingFilter) ([]domain.BulkBooking, error) {
	return s.bulk.List(ctx, filter)
}

func (s *BulkBookingService) ConfirmAll(ctx context.Context, id string) (*domain.BulkBooking, error) {
	b, err := s.bulk.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if closed(b.Status) {
		return nil, fmt.Errorf("bulk booking %s is %s: %w", id, b.Status, domain.ErrInvalidTransition)
	}

	prev := b.Status
	b.ConfirmAll(s.now())
	if err := s.bulk.Update(ctx, b, prev); err != nil {
		return nil, err
	}
	s.publish(ctx, "bulk_booking_confirmed", b)
	return b, nil
}

// Cancel stores the cancellation first, then gives back every room the
// aggregate holds. Rooms that cannot be released are logged and left out of
// RoomsReleased.
func (s *BulkBookingService) Cancel(ctx context.Context, id string, details domain.CancellationDetails, userID string) (*ReleaseResult, error) {
	ve := domain.NewValidationError()
	if details.RefundAmount < 0 {
		ve.Add("refund_amount", "refund amount must not be negative")
	}
	if details.CancellationFee < 0 {
		ve.Add("cancellation_fee", "cancellation fee must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	b, err := s.bulk.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if closed(b.Status) {
		return nil, fmt.Errorf("bulk booking %s is %s: %w", id, b.Status, domain.ErrInvalidTransition)
	}

	// Only the writer whose conditional update lands releases the rooms.
	prev := b.Status
	b.Cancel(details, userID, s.now())
	if err := s.bulk.Update(ctx, b, prev); err != nil {
		return nil, err
	}

	released := inventory.Succeeded(s.ledger.Release(ctx, inventory.Group(b.Bookings)))
	s.invalidate(ctx, released)

	s.log.WithFields(logrus.Fields{
		"bulk_booking_id": id,
		"rooms_released":  len(released),
	}).Info("bulk booking cancelled")
	s.publish(ctx, "bulk_booking_cancelled", b)

	return &ReleaseResult{BulkBooking: b, RoomsReleased: released}, nil
}

// Delete removes the aggregate. A cancelled aggregate already gave its rooms back.
func (s *BulkBookingService) Delete(ctx context.Context, id string) (*ReleaseResult, error) {
	b, err := s.bulk.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.bulk.Delete(ctx, id, b.Status); err != nil {
		return nil, err
	}

	released := []inventory.RoomOutcome{}
	if b.Status != domain.BulkStatusCancelled {
		released = inventory.Succeeded(s.ledger.Release(ctx, inventory.Group(b.Bookings)))
		s.invalidate(ctx, released)
	}

	s.log.WithFields(logrus.Fields{
		"bulk_booking_id": id,
		"rooms_released":  len(released),
	}).Info("bulk booking deleted")
	s.publish(ctx, "bulk_booking_deleted", b)

	return &ReleaseResult{RoomsReleased: released}, nil
}

func (s *BulkBookingService) Complete(ctx context.Context, id string) (*domain.BulkBooking, error) {
	b, err := s.bulk.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := b.Status
	if err := b.Complete(s.now()); err != nil {
		return nil, fmt.Errorf("bulk booking %s is %s: %w", id, b.Status, err)
	}
	if err := s.bulk.Update(ctx, b, prev); err != nil {
		return nil, err
	}
	s.publish(ctx, "bulk_booking_completed", b)
	return b, nil
}

// lockRooms takes the per-room locks in id order so that two requests
// touching the same rooms cannot deadlock each other.
func (s *BulkBookingService) lockRooms(ctx context.Context, rooms []domain.RoomQuantity) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	ids := make([]string, 0, len(rooms))
	for _, rq := range rooms {
		ids = append(ids, rq.RoomID)
	}
	sort.Strings(ids)

	token := uuid.NewString()
	var held []string
	unlock := func() {
		for _, id := range held {
			if err := s.locker.ReleaseRoomLock(context.WithoutCancel(ctx), id, token); err != nil {
				s.log.WithField("room_id", id).WithError(err).Warn("failed to release room lock")
			}
		}
	}

	for _, id := range ids {
		ok, err := s.locker.AcquireRoomLock(ctx, id, token, s.lockTTL)
		if err != nil {
			unlock()
			return nil, fmt.Errorf("lock room %s: %w", id, err)
		}
		if !ok {
			unlock()
			return nil, fmt.Errorf("room %s: %w", id, domain.ErrLocked)
		}
		held = append(held, id)
	}
	return unlock, nil
}

func (s *BulkBookingService) invalidate(ctx context.Context, outcomes []inventory.RoomOutcome) {
	if s.cache == nil || len(outcomes) == 0 {
		return
	}
	seen := make(map[string]bool)
	var hotels []string
	for _, o := range outcomes {
		if o.HotelID != "" && !seen[o.HotelID] {
			seen[o.HotelID] = true
			hotels = append(hotels, o.HotelID)
		}
	}
	if err := s.cache.InvalidateRooms(ctx, hotels...); err != nil {
		s.log.WithError(err).Warn("failed to invalidate room cache")
	}
}

func (s *BulkBookingService) publish(ctx context.Context, eventType string, b *domain.BulkBooking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	rooms := b.RoomQuantities(true)
	roomIDs := make([]string, 0, len(rooms))
	for _, rq := range rooms {
		roomIDs = append(roomIDs, rq.RoomID)
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		Kind:       kafka.KindBulkBooking,
		BookingID:  b.ID,
		RoomIDs:    roomIDs,
		Status:     string(b.Status),
		GroupName:  b.GroupName,
		Amount:     b.Summary.TotalAmount,
		OccurredAt: s.now(),
	}
	if len(b.Bookings) > 0 {
		event.Email = b.Bookings[0].ClientDetails.Email
	}

	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, b.ID, event); err != nil {
			s.log.WithFields(logrus.Fields{
				"event":           eventType,
				"bulk_booking_id": b.ID,
				"topic":           topic,
			}).WithError(err).Warn("failed to publish bulk booking event")
		}
	}
}

func validateCreate(input CreateInput) (domain.Market, error) {
	ve := domain.NewValidationError()
	if input.GroupName == "" {
		ve.Add("group_name", "group name is required")
	}
	domain.Stay{CheckIn: input.CheckIn, CheckOut: input.CheckOut}.Validate(ve)
	if input.Adults < 0 || input.Children < 0 {
		ve.Add("guests", "guest counts must not be negative")
	}
	if input.Payment.PaidAmount < 0 {
		ve.Add("payment.paid_amount", "paid amount must not be negative")
	}
	if len(input.Bookings) == 0 {
		ve.Add("bookings", "at least one booking is required")
	}
	for i, e := range input.Bookings {
		if e.HotelID == "" {
			ve.Add(fmt.Sprintf("bookings[%d].hotel_id", i), "hotel id is required")
		}
		if e.RoomID == "" {
			ve.Add(fmt.Sprintf("bookings[%d].room_id", i), "room id is required")
		}
		if e.ClientDetails.Name == "" {
			ve.Add(fmt.Sprintf("bookings[%d].client_details.name", i), "client name is required")
		}
	}
	market, err := domain.ParseMarket(input.Market)
	if err != nil {
		ve.Add("market", err.Error())
	}
	return market, ve.OrNil()
}

func closed(status domain.BulkBookingStatus) bool {
	return status == domain.BulkStatusCancelled || status == domain.BulkStatusCompleted
}

func unavailableError(room *domain.Room, requested int, reason string) error {
	if reason == availability.ReasonNoPricing {
		return fmt.Errorf("room %q: %w", room.Name, domain.ErrNoPricing)
	}
	return &domain.CapacityError{
		RoomID:    room.ID,
		RoomName:  room.Name,
		Requested: requested,
		Available: max(0, room.AvailableQuantity),
	}
}

var _ BulkBookingUseCase = (*BulkBookingService)(nil)
