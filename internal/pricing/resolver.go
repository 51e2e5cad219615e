package pricing

import (
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
)

type Source string

const (
	SourceNone   Source = "none"
	SourceDirect Source = "direct"
	SourceFuture Source = "future"
	SourceBase   Source = "base"
)

// Quote is a resolved nightly rate for one room and stay.
type Quote struct {
	NightlyRate float64       `json:"nightly_rate"`
	Surcharge   float64       `json:"surcharge"`
	Source      Source        `json:"source"`
	Market      domain.Market `json:"market,omitempty"`
}

func (q Quote) Price() float64 {
	return q.NightlyRate + q.Surcharge
}

func (q Quote) Priced() bool {
	return q.Source != SourceNone
}

// Resolve picks the nightly rate for [checkIn, checkOut]. Period bounds are
// widened to whole UTC days. Among intersecting periods the latest start wins;
// with none, the nearest period starting after now is used, then the room's
// base price. The market surcharge is added on top of whatever rate is found.
func Resolve(room *domain.Room, market domain.Market, checkIn, checkOut, now time.Time) Quote {
	q := Quote{Source: SourceNone, Market: market}
	if room == nil || checkIn.IsZero() || checkOut.IsZero() || !checkIn.Before(checkOut) {
		return q
	}

	if p, ok := directPeriod(room.PricePeriods, checkIn, checkOut); ok {
		q.NightlyRate, q.Source = p.Price, SourceDirect
	} else if p, ok := futurePeriod(room.PricePeriods, now); ok {
		q.NightlyRate, q.Source = p.Price, SourceFuture
	} else if room.BasePrice > 0 {
		q.NightlyRate, q.Source = room.BasePrice, SourceBase
	}

	if q.Source != SourceNone {
		q.Surcharge = Surcharge(room, market)
	}
	return q
}

func directPeriod(periods []domain.PricePeriod, checkIn, checkOut time.Time) (domain.PricePeriod, bool) {
	var (
		best  domain.PricePeriod
		found bool
	)
	for _, p := range periods {
		start, end := domain.StartOfDay(p.StartDate), domain.EndOfDay(p.EndDate)
		if start.After(checkOut) || end.Before(checkIn) {
			continue
		}
		// later entries win ties
		if !found || !start.Before(domain.StartOfDay(best.StartDate)) {
			best, found = p, true
		}
	}
	return best, found
}

func futurePeriod(periods []domain.PricePeriod, now time.Time) (domain.PricePeriod, bool) {
	today := domain.StartOfDay(now)
	var (
		best  domain.PricePeriod
		found bool
	)
	for _, p := range periods {
		start := domain.StartOfDay(p.StartDate)
		if !start.After(today) {
			continue
		}
		if !found || start.Before(domain.StartOfDay(best.StartDate)) {
			best, found = p, true
		}
	}
	return best, found
}

// Surcharge is the flat nightly add-on for market, or 0.
func Surcharge(room *domain.Room, market domain.Market) float64 {
	if market == domain.MarketNone {
		return 0
	}
	for _, mp := range room.MarketPrices {
		if mp.Market == market {
			return mp.Price
		}
	}
	return 0
}
