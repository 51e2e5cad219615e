package domain

import (
	"fmt"
	"strings"
)

// Market is the guest source market used for flat nightly surcharges.
type Market string

const (
	MarketNone           Market = ""
	MarketIndian         Market = "Indian"
	MarketChinese        Market = "Chinese"
	MarketEuropean       Market = "European"
	MarketMiddleEastern  Market = "Middle Eastern"
	MarketRussian        Market = "Russian"
	MarketSouthEastAsian Market = "South East Asian"
	MarketKorean         Market = "Korean"
	MarketJapanese       Market = "Japanese"
	MarketAmerican       Market = "American"
	MarketRestOfWorld    Market = "Rest of World"
)

var knownMarkets = []Market{
	MarketIndian,
	MarketChinese,
	MarketEuropean,
	MarketMiddleEastern,
	MarketRussian,
	MarketSouthEastAsian,
	MarketKorean,
	MarketJapanese,
	MarketAmerican,
	MarketRestOfWorld,
}

// ParseMarket matches s case-insensitively against the known markets.
// An empty string yields MarketNone.
func ParseMarket(s string) (Market, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MarketNone, nil
	}
	for _, m := range knownMarkets {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return MarketNone, fmt.Errorf("unknown market %q", s)
}

func Markets() []Market {
	out := make([]Market, len(knownMarkets))
	copy(out, knownMarkets)
	return out
}
