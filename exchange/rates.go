package exchange

import (
	"fmt"
	"math"
)

// RateSource answers how many units of quote currency one unit of base
// currency buys. A live feed can implement this; StaticRates is the degraded
// mode used when no feed is wired.
type RateSource interface {
	Rate(base, quote string) (float64, error)
}

// StaticRates serves a single configured base/quote pair.
type StaticRates struct {
	base  string
	quote string
	rate  float64
}

func NewStaticRates(base, quote string, rate float64) *StaticRates {
	return &StaticRates{base: base, quote: quote, rate: rate}
}

func (s *StaticRates) Rate(base, quote string) (float64, error) {
	if base != s.base || quote != s.quote {
		return 0, fmt.Errorf("no rate for %s/%s", base, quote)
	}
	return s.rate, nil
}

// GatewayMinorUnits converts an amount in the base currency into the
// gateway's minor units: convert at the rate, then multiply by 100 for the
// provider's smallest-unit convention.
func GatewayMinorUnits(amount, rate float64) int64 {
	return int64(math.Round(amount*rate)) * 100
}
