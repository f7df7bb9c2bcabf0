package rfq

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/clobkit/pkg/order"
)

// MatchType is how a quote would settle against a request.
type MatchType string

const (
	MatchNone          MatchType = "NONE"
	MatchComplementary MatchType = "COMPLEMENTARY" // tokens change hands
	MatchMint          MatchType = "MINT"          // two buyers fund a full outcome set
	MatchMerge         MatchType = "MERGE"         // two sellers redeem a full outcome set
)

// Match is an advisory verdict; the venue makes the final call.
type Match struct {
	Type   MatchType
	Valid  bool
	Reason string
}

var one = decimal.NewFromInt(1)

// Classify pairs a request with a quote. Different token ids are taken to be
// the complementary outcomes of one market.
func Classify(request, quote Intent) Match {
	sameToken := request.TokenID == quote.TokenID

	switch {
	case sameToken && request.Side != quote.Side:
		buy, sell := request, quote
		if buy.Side != order.Buy {
			buy, sell = quote, request
		}
		if buy.Price.LessThan(sell.Price) {
			return Match{MatchComplementary, false, fmt.Sprintf("bid %s below ask %s", buy.Price, sell.Price)}
		}
		return Match{Type: MatchComplementary, Valid: true}

	case !sameToken && request.Side == order.Buy && quote.Side == order.Buy:
		sum := request.Price.Add(quote.Price)
		if sum.LessThan(one) {
			return Match{MatchMint, false, fmt.Sprintf("price sum %s below 1", sum)}
		}
		return Match{Type: MatchMint, Valid: true}

	case !sameToken && request.Side == order.Sell && quote.Side == order.Sell:
		sum := request.Price.Add(quote.Price)
		if sum.GreaterThan(one) {
			return Match{MatchMerge, false, fmt.Sprintf("price sum %s above 1", sum)}
		}
		return Match{Type: MatchMerge, Valid: true}
	}

	if sameToken {
		return Match{MatchNone, false, "same side on the same token"}
	}
	return Match{MatchNone, false, "opposite sides on different tokens"}
}
