// Package rfq translates one-sided trade intents into request-for-quote swap
// legs and checks whether a quote can satisfy a request.
package rfq

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// CollateralAssetID stands for the collateral token in a leg.
const CollateralAssetID = "0"

// Intent is a one-sided trade: Size outcome tokens of TokenID at Price.
type Intent struct {
	TokenID string
	Price   decimal.Decimal
	Size    decimal.Decimal
	Side    order.Side
}

// Legs describe a swap from the point of view of the party that gives
// AmountIn of AssetIn and receives AmountOut of AssetOut, in base units.
type Legs struct {
	AssetIn   string   `json:"assetIn"`
	AmountIn  *big.Int `json:"amountIn"`
	AssetOut  string   `json:"assetOut"`
	AmountOut *big.Int `json:"amountOut"`
}

// Mirror returns the same swap seen from the counterparty.
func (l Legs) Mirror() Legs {
	return Legs{AssetIn: l.AssetOut, AmountIn: l.AmountOut, AssetOut: l.AssetIn, AmountOut: l.AmountIn}
}

// BuildLegs rounds intent with the limit-order rules for tick. A buyer gives
// collateral for tokens; a seller gives tokens for collateral.
func BuildLegs(intent Intent, tick rounding.TickSize) (Legs, error) {
	if intent.TokenID == "" {
		return Legs{}, fmt.Errorf("%w: empty", order.ErrInvalidTokenID)
	}
	cfg, err := tick.Config()
	if err != nil {
		return Legs{}, fmt.Errorf("%w: %v", order.ErrInvalidTickSize, err)
	}
	if err := order.ValidatePrice(intent.Price, tick); err != nil {
		return Legs{}, err
	}
	if !intent.Size.IsPositive() {
		return Legs{}, fmt.Errorf("%w: size must be positive, got %s", order.ErrInvalidSize, intent.Size)
	}

	amounts, err := order.LimitAmounts(intent.Side, intent.Size, intent.Price, cfg)
	if err != nil {
		return Legs{}, err
	}
	makerAmount, err := rounding.ToBaseUnits(amounts.Maker, order.CollateralDecimals)
	if err != nil {
		return Legs{}, err
	}
	takerAmount, err := rounding.ToBaseUnits(amounts.Taker, order.TokenDecimals)
	if err != nil {
		return Legs{}, err
	}

	if intent.Side == order.Buy {
		return Legs{AssetIn: CollateralAssetID, AmountIn: makerAmount, AssetOut: intent.TokenID, AmountOut: takerAmount}, nil
	}
	return Legs{AssetIn: intent.TokenID, AmountIn: makerAmount, AssetOut: CollateralAssetID, AmountOut: takerAmount}, nil
}

// BuildQuoteLegs sizes the legs a quoter commits to when answering a request
// with the opposite trade on the same token.
func BuildQuoteLegs(request Intent, tick rounding.TickSize) (Legs, error) {
	legs, err := BuildLegs(request, tick)
	if err != nil {
		return Legs{}, err
	}
	return legs.Mirror(), nil
}

// Request is an open RFQ.
type Request struct {
	ID     uuid.UUID
	Intent Intent
	Legs   Legs
}

// NewRequest sizes intent and tags it with a fresh correlation id.
func NewRequest(intent Intent, tick rounding.TickSize) (*Request, error) {
	legs, err := BuildLegs(intent, tick)
	if err != nil {
		return nil, err
	}
	return &Request{ID: uuid.New(), Intent: intent, Legs: legs}, nil
}

// Quote answers a Request.
type Quote struct {
	RequestID uuid.UUID
	Intent    Intent
	Legs      Legs
	Match     Match
}

// NewQuote sizes a quoter's intent against req and classifies the pairing.
func NewQuote(req *Request, intent Intent, tick rounding.TickSize) (*Quote, error) {
	legs, err := BuildLegs(intent, tick)
	if err != nil {
		return nil, err
	}
	return &Quote{
		RequestID: req.ID,
		Intent:    intent,
		Legs:      legs,
		Match:     Classify(req.Intent, intent),
	}, nil
}
