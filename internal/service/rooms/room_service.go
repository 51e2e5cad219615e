package rooms

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/pricing"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ReasonBulkDisabled     = "bulk booking not enabled"
	ReasonQuantityOutRange = "quantity outside bulk limits"
)

type RoomUseCase interface {
	CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListRooms(ctx context.Context, hotelID string) ([]domain.Room, error)
	ListAvailable(ctx context.Context, q StayQuery) ([]RoomAvailability, error)
	HotelAvailability(ctx context.Context, q HotelQuery) ([]RoomAvailability, error)
	BulkAvailability(ctx context.Context, q BulkQuery) ([]BulkRoomAvailability, error)
	RoomBulkAvailability(ctx context.Context, roomID string, q RoomBulkQuery) (*BulkRoomAvailability, error)
	OverrideAvailability(ctx context.Context, roomID string, input OverrideInput) (*domain.Room, error)
}

// Cache is the room list cache. GetRooms returns nil, nil on a miss.
type Cache interface {
	GetRooms(ctx context.Context, hotelID string) ([]domain.Room, error)
	SetRooms(ctx context.Context, hotelID string, rooms []domain.Room) error
	InvalidateRooms(ctx context.Context, hotelIDs ...string) error
}

type Checker interface {
	Check(ctx context.Context, room *domain.Room, in availability.Input) (availability.Result, error)
	Conflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time) (string, error)
}

type CreateRoomInput struct {
	HotelID           string               `json:"hotel_id"`
	Name              string               `json:"name"`
	MaxOccupancy      int                  `json:"max_occupancy"`
	AvailableQuantity int                  `json:"available_quantity"`
	BasePrice         float64              `json:"base_price"`
	PricePeriods      []domain.PricePeriod `json:"price_periods"`
	MarketPrices      []MarketPriceInput   `json:"market_prices"`
	BulkSettings      domain.BulkSettings  `json:"bulk_settings"`
}

type MarketPriceInput struct {
	Market string  `json:"market"`
	Price  float64 `json:"price"`
}

type StayQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
}

type HotelQuery struct {
	HotelID  string
	CheckIn  time.Time
	CheckOut time.Time
	Market   string
}

type BulkQuery struct {
	HotelID    string
	CheckIn    time.Time
	CheckOut   time.Time
	Market     string
	Quantities map[string]int
}

type RoomBulkQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Quantity int
	Market   string
}

type OverrideInput struct {
	AvailableQuantity *int `json:"available_quantity"`
	ReservedQuantity  *int `json:"reserved_quantity"`
}

type RoomAvailability struct {
	domain.Room
	Available   bool           `json:"available"`
	Reason      string         `json:"reason,omitempty"`
	Nights      int            `json:"nights"`
	BasePrice   float64        `json:"base_price_per_night"`
	Surcharge   float64        `json:"market_surcharge"`
	Price       float64        `json:"price_per_night"`
	TotalPrice  float64        `json:"total_price"`
	PriceSource pricing.Source `json:"price_source"`
}

type BulkRoomAvailability struct {
	RoomID            string            `json:"room_id"`
	RoomName          string            `json:"room_name"`
	HotelID           string            `json:"hotel_id"`
	AvailableQuantity int               `json:"available_quantity"`
	Available         bool              `json:"available"`
	Reason            string            `json:"reason,omitempty"`
	Market            domain.Market     `json:"market,omitempty"`
	Pricing           pricing.Breakdown `json:"pricing"`
}

type RoomService struct {
	repo             repository.RoomRepository
	checker          Checker
	cache            Cache
	log              *logrus.Logger
	defaultDiscounts []domain.DiscountTier
	now              func() time.Time
}

type RoomServiceOption func(*RoomService)

func WithDefaultDiscounts(tiers []domain.DiscountTier) RoomServiceOption {
	return func(s *RoomService) {
		s.defaultDiscounts = tiers
	}
}

func WithClock(now func() time.Time) RoomServiceOption {
	return func(s *RoomService) {
		s.now = now
	}
}

func NewRoomService(repo repository.RoomRepository, checker Checker, cache Cache, log *logrus.Logger, opts ...RoomServiceOption) *RoomService {
	s := &RoomService{
		repo:    repo,
		checker: checker,
		cache:   cache,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error) {
	ve := domain.NewValidationError()
	if input.HotelID == "" {
		ve.Add("hotel_id", "hotel id is required")
	}
	if input.Name == "" {
		ve.Add("name", "room name is required")
	}
	if input.MaxOccupancy < 1 {
		ve.Add("max_occupancy", "max occupancy must be at least 1")
	}
	if input.AvailableQuantity < 0 {
		ve.Add("available_quantity", "available quantity must not be negative")
	}
	if input.BasePrice < 0 {
		ve.Add("base_price", "base price must not be negative")
	}
	for i, p := range input.PricePeriods {
		if p.StartDate.IsZero() || p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
			ve.Add(fmt.Sprintf("price_periods[%d]", i), "period needs a start date on or before its end date")
		}
		if p.Price < 0 {
			ve.Add(fmt.Sprintf("price_periods[%d]", i), "price must not be negative")
		}
	}
	markets := make([]domain.MarketPrice, 0, len(input.MarketPrices))
	for i, mp := range input.MarketPrices {
		m, err := domain.ParseMarket(mp.Market)
		if err != nil || m == domain.MarketNone {
			ve.Add(fmt.Sprintf("market_prices[%d]", i), fmt.Sprintf("unknown market %q", mp.Market))
			continue
		}
		markets = append(markets, domain.MarketPrice{Market: m, Price: mp.Price})
	}
	bs := input.BulkSettings
	if bs.MinQuantity < 0 || bs.MaxQuantity < 0 || (bs.MaxQuantity > 0 && bs.MinQuantity > bs.MaxQuantity) {
		ve.Add("bulk_settings", "bulk quantity bounds are inconsistent")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	room := &domain.Room{
		ID:                uuid.NewString(),
		HotelID:           input.HotelID,
		Name:              input.Name,
		MaxOccupancy:      input.MaxOccupancy,
		AvailableQuantity: input.AvailableQuantity,
		BasePrice:         input.BasePrice,
		PricePeriods:      input.PricePeriods,
		MarketPrices:      markets,
		BulkSettings:      bs,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	s.invalidate(ctx, room.HotelID)
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RoomService) ListRooms(ctx context.Context, hotelID string) ([]domain.Room, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRooms(ctx, hotelID); err == nil && cached != nil {
			return cached, nil
		}
	}

	rooms, err := s.repo.List(ctx, repository.RoomFilter{HotelID: hotelID})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRooms(ctx, hotelID, rooms); err != nil {
			s.log.WithError(err).Warn("failed to cache rooms")
		}
	}
	return rooms, nil
}

// ListAvailable skips the capacity step and prices without a market.
func (s *RoomService) ListAvailable(ctx context.Context, q StayQuery) ([]RoomAvailability, error) {
	ve := domain.NewValidationError()
	domain.Stay{CheckIn: q.CheckIn, CheckOut: q.CheckOut}.Validate(ve)
	if q.Adults < 0 || q.Children < 0 {
		ve.Add("guests", "guest counts must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	all, err := s.ListRooms(ctx, "")
	if err != nil {
		return nil, err
	}

	guests := q.Adults + q.Children
	out := []RoomAvailability{}
	for i := range all {
		room := &all[i]
		if room.MaxOccupancy < guests {
			continue
		}
		reason, err := s.checker.Conflicts(ctx, room.ID, q.CheckIn, q.CheckOut)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			continue
		}
		quote := pricing.Resolve(room, domain.MarketNone, q.CheckIn, q.CheckOut, s.now())
		out = append(out, annotate(room, availability.Result{
			Available: true,
			Quote:     quote,
			Nights:    domain.Nights(q.CheckIn, q.CheckOut),
		}))
	}
	return out, nil
}

func (s *RoomService) HotelAvailability(ctx context.Context, q HotelQuery) ([]RoomAvailability, error) {
	ve := domain.NewValidationError()
	if q.HotelID == "" {
		ve.Add("hotel_id", "hotel id is required")
	}
	domain.Stay{CheckIn: q.CheckIn, CheckOut: q.CheckOut}.Validate(ve)
	market := parseMarket(ve, q.Market)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	rooms, err := s.ListRooms(ctx, q.HotelID)
	if err != nil {
		return nil, err
	}

	out := []RoomAvailability{}
	for i := range rooms {
		res, err := s.checker.Check(ctx, &rooms[i], availability.Input{
			CheckIn:  q.CheckIn,
			CheckOut: q.CheckOut,
			Quantity: 1,
			Market:   market,
		})
		if err != nil {
			return nil, err
		}
		if res.Available {
			out = append(out, annotate(&rooms[i], res))
		}
	}
	return out, nil
}

// BulkAvailability reports every bulk-enabled room of the hotel, available or not.
// Rooms absent from q.Quantities are checked for their minimum bulk quantity.
func (s *RoomService) BulkAvailability(ctx context.Context, q BulkQuery) ([]BulkRoomAvailability, error) {
	ve := domain.NewValidationError()
	if q.HotelID == "" {
		ve.Add("hotel_id", "hotel id is required")
	}
	domain.Stay{CheckIn: q.CheckIn, CheckOut: q.CheckOut}.Validate(ve)
	market := parseMarket(ve, q.Market)
	for id, n := range q.Quantities {
		if n < 1 {
			ve.Add("quantities", fmt.Sprintf("quantity for room %s must be at least 1", id))
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	rooms, err := s.ListRooms(ctx, q.HotelID)
	if err != nil {
		return nil, err
	}

	out := []BulkRoomAvailability{}
	for i := range rooms {
		room := &rooms[i]
		if !room.BulkSettings.Enabled {
			continue
		}
		quantity, ok := q.Quantities[room.ID]
		if !ok {
			quantity = max(1, room.BulkSettings.MinQuantity)
		}
		res, err := s.bulkQuote(ctx, room, q.CheckIn, q.CheckOut, quantity, market)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

func (s *RoomService) RoomBulkAvailability(ctx context.Context, roomID string, q RoomBulkQuery) (*BulkRoomAvailability, error) {
	ve := domain.NewValidationError()
	domain.Stay{CheckIn: q.CheckIn, CheckOut: q.CheckOut}.Validate(ve)
	market := parseMarket(ve, q.Market)
	if q.Quantity < 1 {
		ve.Add("quantity", "quantity must be at least 1")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.bulkQuote(ctx, room, q.CheckIn, q.CheckOut, q.Quantity, market)
}

func (s *RoomService) bulkQuote(ctx context.Context, room *domain.Room, checkIn, checkOut time.Time, quantity int, market domain.Market) (*BulkRoomAvailability, error) {
	out := &BulkRoomAvailability{
		RoomID:            room.ID,
		RoomName:          room.Name,
		HotelID:           room.HotelID,
		AvailableQuantity: room.AvailableQuantity,
		Market:            market,
	}
	switch {
	case !room.BulkSettings.Enabled:
		out.Reason = ReasonBulkDisabled
		return out, nil
	case !room.BulkSettings.Permits(quantity):
		out.Reason = ReasonQuantityOutRange
		return out, nil
	}

	res, err := s.checker.Check(ctx, room, availability.Input{
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Quantity:      quantity,
		Market:        market,
		SkipConflicts: true,
	})
	if err != nil {
		return nil, err
	}
	if !res.Available {
		out.Reason = res.Reason
		return out, nil
	}

	percent := pricing.DiscountPercent(room.BulkSettings.DiscountTiers, s.defaultDiscounts, quantity)
	out.Available = true
	out.Pricing = pricing.Bulk(res.Quote, res.Nights, quantity, percent)
	return out, nil
}

// OverrideAvailability sets the counters directly, outside the ledger.
func (s *RoomService) OverrideAvailability(ctx context.Context, roomID string, input OverrideInput) (*domain.Room, error) {
	ve := domain.NewValidationError()
	if input.AvailableQuantity == nil && input.ReservedQuantity == nil {
		ve.Add("available_quantity", "at least one counter is required")
	}
	if input.AvailableQuantity != nil && *input.AvailableQuantity < 0 {
		ve.Add("available_quantity", "available quantity must not be negative")
	}
	if input.ReservedQuantity != nil && *input.ReservedQuantity < 0 {
		ve.Add("reserved_quantity", "reserved quantity must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	available, reserved := current.AvailableQuantity, current.ReservedQuantity
	if input.AvailableQuantity != nil {
		available = *input.AvailableQuantity
	}
	if input.ReservedQuantity != nil {
		reserved = *input.ReservedQuantity
	}

	room, err := s.repo.SetCounters(ctx, roomID, available, reserved)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"available": available,
		"reserved":  reserved,
	}).Info("room counters overridden")
	s.invalidate(ctx, room.HotelID)
	return room, nil
}

func (s *RoomService) invalidate(ctx context.Context, hotelIDs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRooms(ctx, hotelIDs...); err != nil {
		s.log.WithError(err).Warn("failed to invalidate room cache")
	}
}

func parseMarket(ve *domain.ValidationError, raw string) domain.Market {
	m, err := domain.ParseMarket(raw)
	if err != nil {
		ve.Add("market", err.Error())
	}
	return m
}

func annotate(room *domain.Room, res availability.Result) RoomAvailability {
	return RoomAvailability{
		Room:        *room,
		Available:   res.Available,
		Reason:      res.Reason,
		Nights:      res.Nights,
		BasePrice:   res.Quote.NightlyRate,
		Surcharge:   res.Quote.Surcharge,
		Price:       res.Quote.Price(),
		TotalPrice:  pricing.Round2(res.Quote.Price() * float64(res.Nights)),
		PriceSource: res.Quote.Source,
	}
}

var _ RoomUseCase = (*RoomService)(nil)
