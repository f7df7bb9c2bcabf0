package order

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderIntent is a user order with every optional field settled.
// It is built once by ResolveOrderDefaults or ResolveMarketOrderDefaults and
// only read afterwards.
type OrderIntent struct {
	tokenID    string
	side       Side
	price      decimal.Decimal
	quantity   decimal.Decimal
	priceSet   bool
	feeRateBps int64
	nonce      *big.Int
	expiration int64
	taker      common.Address
	orderType  OrderType
}

func (i OrderIntent) TokenID() string { return i.tokenID }
func (i OrderIntent) Side() Side { return i.side }

// Price is the limit price, or the market order's worst acceptable price.
func (i OrderIntent) Price() decimal.Decimal { return i.price }

// HasPrice is false for market orders whose price still has to come from the book.
func (i OrderIntent) HasPrice() bool { return i.priceSet }

// Quantity is the size of a limit order, or the amount of a market order.
func (i OrderIntent) Quantity() decimal.Decimal { return i.quantity }

func (i OrderIntent) FeeRateBps() int64 { return i.feeRateBps }
func (i OrderIntent) Nonce() *big.Int { return new(big.Int).Set(i.nonce) }
func (i OrderIntent) Expiration() int64 { return i.expiration }
func (i OrderIntent) Taker() common.Address { return i.taker }
func (i OrderIntent) OrderType() OrderType { return i.orderType }
func (i OrderIntent) IsMarket() bool { return i.orderType.IsMarket() }

// WithPrice returns a copy priced at p.
func (i OrderIntent) WithPrice(p decimal.Decimal) OrderIntent {
	i.price = p
	i.priceSet = true
	return i
}

// ResolveOrderDefaults settles a limit order against the market fee rate.
// The result is GTC unless an expiration was given, in which case it is GTD.
func ResolveOrderDefaults(o UserOrder, marketFeeBps int64) (OrderIntent, error) {
	if err := validateCommon(o.TokenID, o.Side); err != nil {
		return OrderIntent{}, err
	}
	if !o.Size.IsPositive() {
		return OrderIntent{}, fmt.Errorf("%w: size must be positive, got %s", ErrInvalidSize, o.Size)
	}
	if !o.Price.IsPositive() {
		return OrderIntent{}, fmt.Errorf("%w: %s", ErrInvalidPrice, o.Price)
	}
	fee, err := ResolveFeeRate(marketFeeBps, o.FeeRateBps)
	if err != nil {
		return OrderIntent{}, err
	}

	intent := OrderIntent{
		tokenID:    o.TokenID,
		side:       o.Side,
		price:      o.Price,
		quantity:   o.Size,
		priceSet:   true,
		feeRateBps: fee,
		nonce:      resolveNonce(o.Nonce),
		taker:      resolveTaker(o.Taker),
		orderType:  GTC,
	}
	if o.Expiration != nil && *o.Expiration != 0 {
		if *o.Expiration < 0 {
			return OrderIntent{}, fmt.Errorf("%w: %d", ErrInvalidExpiration, *o.Expiration)
		}
		intent.expiration = *o.Expiration
		intent.orderType = GTD
	}
	return intent, nil
}

// ResolveMarketOrderDefaults settles a market order. OrderType defaults to FOK;
// only FOK and FAK are accepted.
func ResolveMarketOrderDefaults(o UserMarketOrder, marketFeeBps int64) (OrderIntent, error) {
	if err := validateCommon(o.TokenID, o.Side); err != nil {
		return OrderIntent{}, err
	}
	if !o.Amount.IsPositive() {
		return OrderIntent{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSize, o.Amount)
	}
	orderType := o.OrderType
	if orderType == "" {
		orderType = FOK
	}
	if !orderType.IsMarket() {
		return OrderIntent{}, fmt.Errorf("%w: market orders must be FOK or FAK, got %q", ErrInvalidOrderType, orderType)
	}
	fee, err := ResolveFeeRate(marketFeeBps, o.FeeRateBps)
	if err != nil {
		return OrderIntent{}, err
	}

	intent := OrderIntent{
		tokenID:    o.TokenID,
		side:       o.Side,
		quantity:   o.Amount,
		feeRateBps: fee,
		nonce:      resolveNonce(o.Nonce),
		taker:      resolveTaker(o.Taker),
		orderType:  orderType,
	}
	if o.Price != nil {
		if !o.Price.IsPositive() {
			return OrderIntent{}, fmt.Errorf("%w: %s", ErrInvalidPrice, *o.Price)
		}
		intent = intent.WithPrice(*o.Price)
	}
	return intent, nil
}

// ResolveFeeRate reconciles a user-supplied fee with the market's.
// A nonzero market fee is authoritative and must be matched when the user
// supplies one; a zero market fee accepts whatever the user gave.
func ResolveFeeRate(marketFeeBps int64, userFeeBps *int64) (int64, error) {
	if userFeeBps != nil && *userFeeBps < 0 {
		return 0, fmt.Errorf("%w: negative user fee %d", ErrFeeRateMismatch, *userFeeBps)
	}
	if marketFeeBps > 0 {
		if userFeeBps != nil && *userFeeBps != marketFeeBps {
			return 0, fmt.Errorf("%w: market %d bps, user %d bps", ErrFeeRateMismatch, marketFeeBps, *userFeeBps)
		}
		return marketFeeBps, nil
	}
	if userFeeBps != nil {
		return *userFeeBps, nil
	}
	return 0, nil
}

func validateCommon(tokenID string, side Side) error {
	if tokenID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTokenID)
	}
	if _, ok := new(big.Int).SetString(tokenID, 10); !ok || strings.HasPrefix(tokenID, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidTokenID, tokenID)
	}
	if _, err := side.Uint8(); err != nil {
		return err
	}
	return nil
}

func resolveNonce(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}

func resolveTaker(t *common.Address) common.Address {
	if t == nil {
		return common.Address{}
	}
	return *t
}
