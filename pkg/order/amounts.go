package order

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Both collateral and outcome tokens use 6 decimals on-chain.
const (
	CollateralDecimals int32 = 6
	TokenDecimals      int32 = 6
)

// Amounts are the maker and taker quantities of an order in whole units,
// already rounded to the tick's precision.
type Amounts struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
	Price decimal.Decimal // price after rounding
}

// LimitAmounts sizes a limit order. BUY gives collateral for size tokens,
// SELL gives size tokens for collateral. Rounding always favours the
// counterparty: a buyer never pays below price, a seller never receives above it.
func LimitAmounts(side Side, size, price decimal.Decimal, cfg rounding.Config) (Amounts, error) {
	p := rounding.RoundNormal(price, cfg.Price)

	var a Amounts
	switch side {
	case Buy:
		taker := rounding.RoundDown(size, cfg.Size)
		a = Amounts{Maker: rounding.RoundUp(taker.Mul(p), cfg.Amount), Taker: taker, Price: p}
	case Sell:
		maker := rounding.RoundUp(size, cfg.Size)
		a = Amounts{Maker: maker, Taker: rounding.RoundDown(maker.Mul(p), cfg.Amount), Price: p}
	default:
		return Amounts{}, fmt.Errorf("%w: %q", ErrInvalidSide, string(side))
	}
	return a, a.check()
}

// MarketAmounts sizes a market order. amount is collateral to spend for BUY
// and tokens to sell for SELL; the received leg is always rounded down.
func MarketAmounts(side Side, amount, price decimal.Decimal, cfg rounding.Config) (Amounts, error) {
	p := rounding.RoundNormal(price, cfg.Price)
	if !p.IsPositive() {
		return Amounts{}, fmt.Errorf("%w: %s rounds to zero", ErrInvalidPrice, price)
	}
	maker := rounding.RoundDown(amount, cfg.Size)

	var taker decimal.Decimal
	switch side {
	case Buy:
		// QuoRem truncates at the requested precision, which is floor for positives.
		taker, _ = maker.QuoRem(p, cfg.Amount)
	case Sell:
		taker = rounding.RoundDown(maker.Mul(p), cfg.Amount)
	default:
		return Amounts{}, fmt.Errorf("%w: %q", ErrInvalidSide, string(side))
	}

	a := Amounts{Maker: maker, Taker: taker, Price: p}
	return a, a.check()
}

func (a Amounts) check() error {
	if !a.Maker.IsPositive() || !a.Taker.IsPositive() {
		return fmt.Errorf("%w: maker %s / taker %s after rounding", ErrInvalidSize, a.Maker, a.Taker)
	}
	return nil
}

// ValidatePrice checks tick <= price <= 1 - tick.
func ValidatePrice(price decimal.Decimal, tick rounding.TickSize) error {
	if !tick.PriceInRange(price) {
		return fmt.Errorf("%w: %s outside [%s, %s]", ErrInvalidPrice, price, tick, decimal.NewFromInt(1).Sub(tick.Decimal()))
	}
	return nil
}

// ResolveTickSize picks the tick an order is rounded with. A caller tick may
// be coarser than the market's but never finer.
func ResolveTickSize(market, user rounding.TickSize) (rounding.TickSize, error) {
	if _, err := market.Config(); err != nil {
		return "", fmt.Errorf("%w: market %v", ErrInvalidTickSize, err)
	}
	if user == "" {
		return market, nil
	}
	if _, err := user.Config(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTickSize, err)
	}
	if user.IsSmallerThan(market) {
		return "", fmt.Errorf("%w: %s is finer than market minimum %s", ErrInvalidTickSize, user, market)
	}
	return user, nil
}

// BuildOrderData turns a priced intent into an unsigned order in base units.
func BuildOrderData(intent OrderIntent, tick rounding.TickSize, maker, signer common.Address, sigType SignatureType) (*OrderData, error) {
	if !intent.HasPrice() {
		return nil, fmt.Errorf("%w: order has no price", ErrInvalidPrice)
	}
	if !sigType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignatureType, sigType)
	}
	cfg, err := tick.Config()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTickSize, err)
	}
	if err := ValidatePrice(intent.Price(), tick); err != nil {
		return nil, err
	}

	var amounts Amounts
	if intent.IsMarket() {
		amounts, err = MarketAmounts(intent.Side(), intent.Quantity(), intent.Price(), cfg)
	} else {
		amounts, err = LimitAmounts(intent.Side(), intent.Quantity(), intent.Price(), cfg)
	}
	if err != nil {
		return nil, err
	}

	makerDecimals, takerDecimals := CollateralDecimals, TokenDecimals
	if intent.Side() == Sell {
		makerDecimals, takerDecimals = TokenDecimals, CollateralDecimals
	}
	makerAmount, err := rounding.ToBaseUnits(amounts.Maker, makerDecimals)
	if err != nil {
		return nil, fmt.Errorf("maker amount: %w", err)
	}
	takerAmount, err := rounding.ToBaseUnits(amounts.Taker, takerDecimals)
	if err != nil {
		return nil, fmt.Errorf("taker amount: %w", err)
	}

	return &OrderData{
		Maker:         maker,
		Taker:         intent.Taker(),
		Signer:        signer,
		TokenID:       intent.TokenID(),
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          intent.Side(),
		FeeRateBps:    big.NewInt(intent.FeeRateBps()),
		Nonce:         intent.Nonce(),
		Expiration:    big.NewInt(intent.Expiration()),
		SignatureType: sigType,
	}, nil
}
