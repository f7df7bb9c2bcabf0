// Package venue is the client's view of the order-matching venue: per-token
// market facts, order books and order submission.
package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Venue is everything order building needs from the remote side.
type Venue interface {
	TickSize(ctx context.Context, tokenID string) (rounding.TickSize, error)
	NegRisk(ctx context.Context, tokenID string) (bool, error)
	FeeRateBps(ctx context.Context, tokenID string) (int64, error)
	OrderBook(ctx context.Context, tokenID string) (*order.OrderBookSummary, error)
	PostOrder(ctx context.Context, req order.PostOrderRequest, headers http.Header) (*OrderAccepted, error)
}

// OrderAccepted is the venue's acknowledgement of a posted order.
type OrderAccepted struct {
	Success            bool     `json:"success"`
	ErrorMsg           string   `json:"errorMsg,omitempty"`
	OrderID            string   `json:"orderID"`
	Status             string   `json:"status,omitempty"` // e.g. "live", "matched", "delayed"
	TransactionsHashes []string `json:"transactionsHashes,omitempty"`
	MakingAmount       string   `json:"makingAmount,omitempty"`
	TakingAmount       string   `json:"takingAmount,omitempty"`
}

// Error is a rejection reported by the venue itself, as opposed to a
// transport or decoding failure.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("venue error (status %d): %s", e.Status, e.Message)
}

// AsError extracts a venue rejection from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
