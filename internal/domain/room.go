package domain

import "time"

type PricePeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Price     float64   `json:"price"`
}

type MarketPrice struct {
	Market Market  `json:"market"`
	Price  float64 `json:"price"`
}

type DiscountTier struct {
	MinQuantity int     `json:"min_quantity" yaml:"min_quantity"`
	Percent     float64 `json:"percent" yaml:"percent"`
}

type BulkSettings struct {
	Enabled       bool           `json:"enabled"`
	MinQuantity   int            `json:"min_quantity"`
	MaxQuantity   int            `json:"max_quantity"`
	DiscountTiers []DiscountTier `json:"discount_tiers,omitempty"`
}

// Permits reports whether quantity units may be booked in one bulk request.
// Zero bounds are treated as unbounded.
func (s BulkSettings) Permits(quantity int) bool {
	if !s.Enabled {
		return false
	}
	if s.MinQuantity > 0 && quantity < s.MinQuantity {
		return false
	}
	if s.MaxQuantity > 0 && quantity > s.MaxQuantity {
		return false
	}
	return true
}

type Room struct {
	ID                string        `json:"id"`
	HotelID           string        `json:"hotel_id"`
	Name              string        `json:"name"`
	MaxOccupancy      int           `json:"max_occupancy"`
	AvailableQuantity int           `json:"available_quantity"`
	ReservedQuantity  int           `json:"reserved_quantity"`
	BasePrice         float64       `json:"base_price"`
	PricePeriods      []PricePeriod `json:"price_periods"`
	MarketPrices      []MarketPrice `json:"market_prices"`
	BulkSettings      BulkSettings  `json:"bulk_settings"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// CurrentAvailableQuantity is the display view of sellable units; it is never stored.
func (r *Room) CurrentAvailableQuantity() int {
	return r.AvailableQuantity - r.ReservedQuantity
}
