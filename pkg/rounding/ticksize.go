package rounding

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TickSize is the minimum price increment a market accepts.
type TickSize string

const (
	Tick01    TickSize = "0.1"
	Tick001   TickSize = "0.01"
	Tick0001  TickSize = "0.001"
	Tick00001 TickSize = "0.0001"
)

// Config is the decimal precision implied by a tick size.
// Price decimals never exceed amount decimals.
type Config struct {
	Price  int32
	Size   int32
	Amount int32
}

var configs = map[TickSize]Config{
	Tick01:    {Price: 1, Size: 2, Amount: 3},
	Tick001:   {Price: 2, Size: 2, Amount: 4},
	Tick0001:  {Price: 3, Size: 2, Amount: 5},
	Tick00001: {Price: 4, Size: 2, Amount: 6},
}

// ParseTickSize normalises s ("0.010" and "0.01" are the same tick) and
// rejects anything outside the supported set.
func ParseTickSize(s string) (TickSize, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid tick size %q: %w", s, err)
	}
	t := TickSize(d.String())
	if _, ok := configs[t]; !ok {
		return "", fmt.Errorf("unsupported tick size %q", s)
	}
	return t, nil
}

// Config returns the rounding precision for t.
func (t TickSize) Config() (Config, error) {
	c, ok := configs[t]
	if !ok {
		return Config{}, fmt.Errorf("unsupported tick size %q", string(t))
	}
	return c, nil
}

// Decimal returns the tick as a number. Unknown ticks yield zero.
func (t TickSize) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(t))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsSmallerThan reports whether t is a finer increment than other.
func (t TickSize) IsSmallerThan(other TickSize) bool {
	return t.Decimal().LessThan(other.Decimal())
}

// PriceInRange reports whether tick <= price <= 1 - tick.
func (t TickSize) PriceInRange(price decimal.Decimal) bool {
	tick := t.Decimal()
	return price.GreaterThanOrEqual(tick) && price.LessThanOrEqual(decimal.NewFromInt(1).Sub(tick))
}

func (t TickSize) String() string { return string(t) }
