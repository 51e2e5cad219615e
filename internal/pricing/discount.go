package pricing

import (
	"math"

	"github.com/Domenick1991/roombooking/internal/domain"
)

// Breakdown is the bulk price of quantity units of one room for a whole stay.
type Breakdown struct {
	UnitPrice       float64 `json:"unit_price"`
	Nights          int     `json:"nights"`
	Quantity        int     `json:"quantity"`
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	FinalPrice      float64 `json:"final_price"`
}

// DiscountPercent returns the percent of the highest tier whose threshold
// quantity reaches. Room tiers take precedence over defaults.
func DiscountPercent(tiers, defaults []domain.DiscountTier, quantity int) float64 {
	if len(tiers) == 0 {
		tiers = defaults
	}
	best, bestMin := 0.0, 0
	for _, t := range tiers {
		if t.MinQuantity <= quantity && t.MinQuantity >= bestMin {
			best, bestMin = t.Percent, t.MinQuantity
		}
	}
	return math.Max(0, math.Min(best, 100))
}

func Bulk(q Quote, nights, quantity int, percent float64) Breakdown {
	b := Breakdown{
		UnitPrice:       q.Price(),
		Nights:          nights,
		Quantity:        quantity,
		DiscountPercent: percent,
	}
	b.Subtotal = Round2(b.UnitPrice * float64(nights) * float64(quantity))
	b.DiscountAmount = Round2(b.Subtotal * percent / 100)
	b.FinalPrice = Round2(b.Subtotal - b.DiscountAmount)
	return b
}

// Entry prices a single room unit for a stay, applying percent off.
func Entry(q Quote, nights int, percent float64) domain.PriceBreakdown {
	sub := Round2(q.Price() * float64(nights))
	disc := Round2(sub * percent / 100)
	return domain.PriceBreakdown{
		NightlyRate:    q.NightlyRate,
		Surcharge:      q.Surcharge,
		Nights:         nights,
		Rooms:          1,
		Subtotal:       sub,
		DiscountAmount: disc,
		Total:          Round2(sub - disc),
	}
}

// Stay prices rooms units of an individual booking; no bulk discount applies.
func Stay(q Quote, nights, rooms int) domain.PriceBreakdown {
	sub := Round2(q.Price() * float64(nights) * float64(rooms))
	return domain.PriceBreakdown{
		NightlyRate: q.NightlyRate,
		Surcharge:   q.Surcharge,
		Nights:      nights,
		Rooms:       rooms,
		Subtotal:    sub,
		Total:       sub,
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
