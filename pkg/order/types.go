package order

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Side is the direction of an order from the maker's point of view.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts "BUY"/"SELL" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Uint8 returns the on-chain encoding (BUY=0, SELL=1).
func (s Side) Uint8() (uint8, error) {
	switch s {
	case Buy:
		return 0, nil
	case Sell:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSide, string(s))
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func sideFromUint8(v uint8) (Side, error) {
	switch v {
	case 0:
		return Buy, nil
	case 1:
		return Sell, nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidSide, v)
}

// OrderType is the time-in-force an order is posted with.
type OrderType string

const (
	GTC OrderType = "GTC" // good till cancelled
	GTD OrderType = "GTD" // good till date
	FOK OrderType = "FOK" // fill or kill
	FAK OrderType = "FAK" // fill and kill
)

func (t OrderType) Valid() bool {
	switch t {
	case GTC, GTD, FOK, FAK:
		return true
	}
	return false
}

// IsMarket reports whether t is one of the immediate order types.
func (t OrderType) IsMarket() bool {
	return t == FOK || t == FAK
}

// SignatureType says how the exchange validates an order's signature.
type SignatureType uint8

const (
	EOA            SignatureType = 0 // key signs for itself
	PolyProxy      SignatureType = 1 // proxy wallet owned by the key
	PolyGnosisSafe SignatureType = 2 // Gnosis Safe owned by the key
	Poly1271       SignatureType = 3 // any ERC-1271 contract wallet
)

func (s SignatureType) Valid() bool {
	return s <= Poly1271
}

// NeedsFunder reports whether orders of this type are funded by an address
// other than the signing key.
func (s SignatureType) NeedsFunder() bool {
	return s != EOA
}

func (s SignatureType) String() string {
	switch s {
	case EOA:
		return "EOA"
	case PolyProxy:
		return "POLY_PROXY"
	case PolyGnosisSafe:
		return "POLY_GNOSIS_SAFE"
	case Poly1271:
		return "POLY_1271"
	}
	return fmt.Sprintf("SignatureType(%d)", uint8(s))
}

// UserOrder is a limit order as a user describes it.
// Nil optional fields take their defaults during resolution.
type UserOrder struct {
	TokenID    string
	Price      decimal.Decimal
	Size       decimal.Decimal // outcome tokens
	Side       Side
	FeeRateBps *int64
	Nonce      *big.Int
	Expiration *int64 // unix seconds, GTD only
	Taker      *common.Address
}

// UserMarketOrder is an immediate order sized in what the user spends:
// collateral for BUY, tokens for SELL.
type UserMarketOrder struct {
	TokenID    string
	Price      *decimal.Decimal // derived from the book when nil
	Amount     decimal.Decimal
	Side       Side
	FeeRateBps *int64
	Nonce      *big.Int
	Taker      *common.Address
	OrderType  OrderType // FOK when empty
}

// CreateOrderOptions carries per-market facts the caller already knows.
// Zero values are looked up from the venue.
type CreateOrderOptions struct {
	TickSize rounding.TickSize
	NegRisk  *bool
}

// OrderData is the unsigned exchange order, amounts in base units.
type OrderData struct {
	Maker         common.Address
	Taker         common.Address
	Signer        common.Address
	TokenID       string
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Side          Side
	FeeRateBps    *big.Int
	Nonce         *big.Int
	Expiration    *big.Int
	SignatureType SignatureType
}

// SignedOrder is an order ready to post.
type SignedOrder struct {
	OrderData
	Salt      *big.Int
	Signature string // 0x-prefixed, 65 bytes
}

// PostOrderRequest is the body of an order submission.
type PostOrderRequest struct {
	Order     *SignedOrder `json:"order"`
	Owner     string       `json:"owner"` // API key of the poster
	OrderType OrderType    `json:"orderType"`
	DeferExec bool         `json:"deferExec"`
}
