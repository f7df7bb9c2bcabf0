package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

const (
	modeOffline = "offline"
	modeSign    = "sign"
	modePost    = "post"
)

var (
	tokenID    = flag.String("token", "", "Outcome token id")
	side       = flag.String("side", "", "Order side: buy or sell")
	price      = flag.String("price", "", "Limit price; derived from the book for market orders when empty")
	size       = flag.String("size", "", "Limit orders: tokens. Market orders: collateral to spend (buy) or tokens to sell (sell)")
	orderType  = flag.String("type", "GTC", "Order type: GTC, GTD, FOK or FAK")
	expiration = flag.Int64("expiration", 0, "Expiration in unix seconds (GTD only)")
	tickSize   = flag.String("tick", "", "Tick size; looked up from the venue when empty")
	negRisk    = flag.String("neg-risk", "", "true or false; looked up from the venue when empty")
	feeRate    = flag.Int64("fee-rate", -1, "Market fee rate in bps (offline mode only)")
	mode       = flag.String("mode", modeSign, "offline (no venue), sign (venue lookups) or post (sign and submit)")
	envFile    = flag.String("env", "", "Path to a .env file; defaults to ./.env")
)

// parsedFlags holds the validated command line flags
type parsedFlags struct {
	tokenID    string
	side       order.Side
	price      *decimal.Decimal
	size       decimal.Decimal
	orderType  order.OrderType
	expiration int64
	tick       rounding.TickSize
	negRisk    *bool
	feeRate    int64
	mode       string
}

func parseAndValidateFlags() (*parsedFlags, error) {
	if *tokenID == "" {
		return nil, fmt.Errorf("--token is required")
	}
	s, err := order.ParseSide(*side)
	if err != nil {
		return nil, fmt.Errorf("--side: %w", err)
	}
	if *size == "" {
		return nil, fmt.Errorf("--size is required")
	}
	sz, err := decimal.NewFromString(*size)
	if err != nil || !sz.IsPositive() {
		return nil, fmt.Errorf("--size must be a positive number, got %q", *size)
	}

	ot := order.OrderType(strings.ToUpper(*orderType))
	if !ot.Valid() {
		return nil, fmt.Errorf("--type: %w: %q", order.ErrInvalidOrderType, *orderType)
	}
	if ot == order.GTD && *expiration <= 0 {
		return nil, fmt.Errorf("--expiration is required for GTD orders")
	}
	if ot != order.GTD && *expiration != 0 {
		return nil, fmt.Errorf("--expiration is only valid for GTD orders")
	}

	p := &parsedFlags{
		tokenID:    *tokenID,
		side:       s,
		size:       sz,
		orderType:  ot,
		expiration: *expiration,
		feeRate:    *feeRate,
		mode:       strings.ToLower(*mode),
	}

	if *price != "" {
		pr, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("--price: %w", err)
		}
		p.price = &pr
	} else if !ot.IsMarket() {
		return nil, fmt.Errorf("--price is required for %s orders", ot)
	}

	if *tickSize != "" {
		t, err := rounding.ParseTickSize(*tickSize)
		if err != nil {
			return nil, fmt.Errorf("--tick: %w", err)
		}
		p.tick = t
	}
	if *negRisk != "" {
		nr, err := strconv.ParseBool(*negRisk)
		if err != nil {
			return nil, fmt.Errorf("--neg-risk must be true or false, got %q", *negRisk)
		}
		p.negRisk = &nr
	}

	switch p.mode {
	case modeOffline:
		if p.tick == "" || p.negRisk == nil || p.price == nil || p.feeRate < 0 {
			return nil, fmt.Errorf("offline mode needs --tick, --neg-risk, --price and --fee-rate")
		}
	case modeSign, modePost:
	default:
		return nil, fmt.Errorf("--mode must be offline, sign or post, got %q", *mode)
	}
	return p, nil
}

func (p *parsedFlags) options() order.CreateOrderOptions {
	return order.CreateOrderOptions{TickSize: p.tick, NegRisk: p.negRisk}
}

func (p *parsedFlags) userOrder() order.UserOrder {
	o := order.UserOrder{TokenID: p.tokenID, Side: p.side, Size: p.size}
	if p.price != nil {
		o.Price = *p.price
	}
	if p.expiration != 0 {
		o.Expiration = &p.expiration
	}
	return o
}

func (p *parsedFlags) userMarketOrder() order.UserMarketOrder {
	return order.UserMarketOrder{TokenID: p.tokenID, Side: p.side, Amount: p.size, Price: p.price, OrderType: p.orderType}
}
