package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rounding"
)

// Endpoint paths, relative to the venue host.
const (
	PathTickSize = "/tick-size"
	PathNegRisk  = "/neg-risk"
	PathFeeRate  = "/fee-rate"
	PathBook     = "/book"
	PathOrder    = "/order"
)

// DefaultTimeout bounds each request when the caller supplies no client.
const DefaultTimeout = 10 * time.Second

// HTTPVenue talks to the venue's REST API.
type HTTPVenue struct {
	host   string
	client *http.Client
	log    *zap.SugaredLogger
}

var _ Venue = (*HTTPVenue)(nil)

// NewHTTPVenue creates a venue client for host (e.g. "https://clob.example.com").
func NewHTTPVenue(host string, client *http.Client, log *zap.SugaredLogger) *HTTPVenue {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HTTPVenue{host: strings.TrimRight(host, "/"), client: client, log: log}
}

func (v *HTTPVenue) Host() string { return v.host }

type tickSizeResponse struct {
	MinimumTickSize decimal.Decimal `json:"minimum_tick_size"`
}

type negRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

type feeRateResponse struct {
	BaseFee int64 `json:"base_fee"`
}

// errorResponse is the body the venue sends with a failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (v *HTTPVenue) TickSize(ctx context.Context, tokenID string) (rounding.TickSize, error) {
	var resp tickSizeResponse
	if err := v.get(ctx, PathTickSize, tokenID, &resp); err != nil {
		return "", err
	}
	t, err := rounding.ParseTickSize(resp.MinimumTickSize.String())
	if err != nil {
		return "", fmt.Errorf("venue returned %w", err)
	}
	return t, nil
}

func (v *HTTPVenue) NegRisk(ctx context.Context, tokenID string) (bool, error) {
	var resp negRiskResponse
	if err := v.get(ctx, PathNegRisk, tokenID, &resp); err != nil {
		return false, err
	}
	return resp.NegRisk, nil
}

func (v *HTTPVenue) FeeRateBps(ctx context.Context, tokenID string) (int64, error) {
	var resp feeRateResponse
	if err := v.get(ctx, PathFeeRate, tokenID, &resp); err != nil {
		return 0, err
	}
	return resp.BaseFee, nil
}

func (v *HTTPVenue) OrderBook(ctx context.Context, tokenID string) (*order.OrderBookSummary, error) {
	var book order.OrderBookSummary
	if err := v.get(ctx, PathBook, tokenID, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// PostOrder submits req with the caller's auth headers. The body sent is
// exactly the bytes the headers were signed over when req was marshalled
// with MarshalPostOrder.
func (v *HTTPVenue) PostOrder(ctx context.Context, req order.PostOrderRequest, headers http.Header) (*OrderAccepted, error) {
	body, err := MarshalPostOrder(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.host+PathOrder, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vals := range headers {
		httpReq.Header[k] = vals
	}

	var accepted OrderAccepted
	if err := v.do(httpReq, &accepted); err != nil {
		return nil, err
	}
	if !accepted.Success {
		msg := accepted.ErrorMsg
		if msg == "" {
			msg = "order not accepted"
		}
		return nil, &Error{Status: http.StatusOK, Message: msg}
	}
	return &accepted, nil
}

// MarshalPostOrder is the canonical body encoding for an order submission.
func MarshalPostOrder(req order.PostOrderRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	return body, nil
}

func (v *HTTPVenue) get(ctx context.Context, path, tokenID string, out any) error {
	u := v.host + path + "?" + url.Values{"token_id": {tokenID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return v.do(req, out)
}

func (v *HTTPVenue) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	v.log.Debugw("venue_request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, body)
	}

	// Some failures come back as 200 with an error body
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && (e.Error != "" || e.Message != "") {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		return &Error{Status: status, Message: msg}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}
