package order

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Level is one price level of an order book.
type Level struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// OrderBookSummary is a snapshot of one token's book as the venue reports it.
type OrderBookSummary struct {
	Market       string          `json:"market"`
	AssetID      string          `json:"asset_id"`
	Bids         []Level         `json:"bids"`
	Asks         []Level         `json:"asks"`
	TickSize     string          `json:"tick_size,omitempty"`
	NegRisk      bool            `json:"neg_risk,omitempty"`
	MinOrderSize decimal.Decimal `json:"min_order_size"`
	Hash         string          `json:"hash,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
}

// BestBid returns the highest bid, if any.
func (b *OrderBookSummary) BestBid() (Level, bool) {
	bids := sortedLevels(b.Bids, Sell)
	if len(bids) == 0 {
		return Level{}, false
	}
	return bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (b *OrderBookSummary) BestAsk() (Level, bool) {
	asks := sortedLevels(b.Asks, Buy)
	if len(asks) == 0 {
		return Level{}, false
	}
	return asks[0], true
}

// CalculateMarketPrice walks the side of book a market order would take
// from and returns the price at which amount is fully covered.
//
// BUY consumes asks from the lowest price and measures amount in collateral;
// SELL consumes bids from the highest price and measures amount in tokens.
// FOK fails with ErrNoMatch when the book is too shallow; FAK settles for the
// worst price it reached.
func CalculateMarketPrice(book *OrderBookSummary, side Side, amount decimal.Decimal, orderType OrderType) (decimal.Decimal, error) {
	if !orderType.IsMarket() {
		return decimal.Zero, fmt.Errorf("%w: %q is not a market order type", ErrInvalidOrderType, orderType)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSize, amount)
	}

	var levels []Level
	switch side {
	case Buy:
		levels = book.Asks
	case Sell:
		levels = book.Bids
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidSide, string(side))
	}
	levels = sortedLevels(levels, side)
	if len(levels) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrNoMatch, ErrEmptyBook)
	}

	total := decimal.Zero
	for _, lvl := range levels {
		if side == Buy {
			total = total.Add(lvl.Size.Mul(lvl.Price))
		} else {
			total = total.Add(lvl.Size)
		}
		if total.GreaterThanOrEqual(amount) {
			return lvl.Price, nil
		}
	}

	if orderType == FOK {
		return decimal.Zero, fmt.Errorf("%w: book depth %s below %s", ErrNoMatch, total, amount)
	}
	return levels[len(levels)-1].Price, nil
}

// sortedLevels returns a copy of levels ordered best-first for a taker on side:
// ascending asks for BUY, descending bids for SELL.
func sortedLevels(levels []Level, side Side) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	sort.SliceStable(out, func(i, j int) bool {
		if side == Buy {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return out
}
