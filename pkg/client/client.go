// Package client turns trade intents into signed, authenticated venue orders.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/clobkit/pkg/auth"
	"github.com/uhyunpark/clobkit/pkg/crypto"
	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/rfq"
	"github.com/uhyunpark/clobkit/pkg/rounding"
	"github.com/uhyunpark/clobkit/pkg/util"
	"github.com/uhyunpark/clobkit/pkg/venue"
)

type Config struct {
	Host    string
	ChainID int64

	// Signer is optional; without it only read operations work.
	Signer        crypto.TypedDataSigner
	SignatureType order.SignatureType
	Funder        common.Address

	Credentials *auth.Credentials
	Builder     *auth.BuilderConfig

	// Venue overrides the HTTP venue built from Host.
	Venue      venue.Venue
	HTTPClient *http.Client
	Clock      util.Clock
	Logger     *zap.SugaredLogger
}

// Client is safe for concurrent use once built.
type Client struct {
	chainID int64
	venue   *venue.CachedVenue
	auth    *auth.Authenticator
	orders  *order.Builder // nil without a signer
	creds   *auth.Credentials
	log     *zap.SugaredLogger
}

func New(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	v := cfg.Venue
	if v == nil {
		if cfg.Host == "" {
			return nil, fmt.Errorf("venue host is required")
		}
		v = venue.NewHTTPVenue(cfg.Host, cfg.HTTPClient, log)
	}

	c := &Client{
		chainID: cfg.ChainID,
		venue:   venue.NewCachedVenue(v, venue.NewCache(), log),
		creds:   cfg.Credentials,
		log:     log,
		auth: auth.New(auth.Config{
			ChainID:     cfg.ChainID,
			Signer:      cfg.Signer,
			Credentials: cfg.Credentials,
			Builder:     cfg.Builder,
			Clock:       cfg.Clock,
			Logger:      log,
		}),
	}

	if cfg.Signer != nil {
		b, err := order.NewBuilder(cfg.Signer, cfg.ChainID, cfg.SignatureType, cfg.Funder)
		if err != nil {
			return nil, err
		}
		c.orders = b
	}
	return c, nil
}

// Cache exposes the per-token cache so callers can invalidate stale markets.
func (c *Client) Cache() *venue.Cache { return c.venue.Cache() }

// SetCredentials installs API credentials after construction.
func (c *Client) SetCredentials(creds *auth.Credentials) {
	c.creds = creds
	c.auth.SetCredentials(creds)
}

// Address is the signing key's address.
func (c *Client) Address() (common.Address, error) {
	if c.orders == nil {
		return common.Address{}, auth.ErrSignerRequired
	}
	return c.orders.SignerAddress(), nil
}

func (c *Client) TickSize(ctx context.Context, tokenID string) (rounding.TickSize, error) {
	return c.venue.TickSize(ctx, tokenID)
}

func (c *Client) NegRisk(ctx context.Context, tokenID string) (bool, error) {
	return c.venue.NegRisk(ctx, tokenID)
}

func (c *Client) FeeRateBps(ctx context.Context, tokenID string) (int64, error) {
	return c.venue.FeeRateBps(ctx, tokenID)
}

func (c *Client) OrderBook(ctx context.Context, tokenID string) (*order.OrderBookSummary, error) {
	return c.venue.OrderBook(ctx, tokenID)
}

// CreateOrder builds and signs a limit order. Nothing is posted.
func (c *Client) CreateOrder(ctx context.Context, o order.UserOrder, opts order.CreateOrderOptions) (*order.SignedOrder, error) {
	if c.orders == nil {
		return nil, auth.ErrSignerRequired
	}
	m, err := c.resolveMarket(ctx, o.TokenID, opts)
	if err != nil {
		return nil, err
	}
	intent, err := order.ResolveOrderDefaults(o, m.feeRateBps)
	if err != nil {
		return nil, err
	}
	return c.sign(ctx, intent, m)
}

// CreateMarketOrder builds and signs a FOK/FAK order. Without a price the
// order is priced by walking the current book.
func (c *Client) CreateMarketOrder(ctx context.Context, o order.UserMarketOrder, opts order.CreateOrderOptions) (*order.SignedOrder, error) {
	if c.orders == nil {
		return nil, auth.ErrSignerRequired
	}
	m, err := c.resolveMarket(ctx, o.TokenID, opts)
	if err != nil {
		return nil, err
	}
	intent, err := order.ResolveMarketOrderDefaults(o, m.feeRateBps)
	if err != nil {
		return nil, err
	}
	if !intent.HasPrice() {
		price, err := c.CalculateMarketPrice(ctx, intent.TokenID(), intent.Side(), intent.Quantity(), intent.OrderType())
		if err != nil {
			return nil, err
		}
		intent = intent.WithPrice(price)
	}
	return c.sign(ctx, intent, m)
}

// CalculateMarketPrice fetches the book for tokenID and walks it.
func (c *Client) CalculateMarketPrice(ctx context.Context, tokenID string, side order.Side, amount decimal.Decimal, orderType order.OrderType) (decimal.Decimal, error) {
	book, err := c.venue.OrderBook(ctx, tokenID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.CalculateMarketPrice(book, side, amount, orderType)
}

// PostOptions tune a single submission.
type PostOptions struct {
	DeferExec bool
	Builder   auth.BuilderPolicy
}

// PostOrder submits a signed order with L2 authentication.
func (c *Client) PostOrder(ctx context.Context, signed *order.SignedOrder, orderType order.OrderType, opts PostOptions) (*venue.OrderAccepted, error) {
	if c.orders == nil {
		return nil, auth.ErrSignerRequired
	}
	if !c.creds.Valid() {
		return nil, auth.ErrCredentialsRequired
	}
	if err := validateForPost(signed, orderType); err != nil {
		return nil, err
	}
	if signed.Signer != c.orders.SignerAddress() {
		return nil, fmt.Errorf("%w: order signer %s, client %s", order.ErrSignerMismatch, signed.Signer.Hex(), c.orders.SignerAddress().Hex())
	}

	req := order.PostOrderRequest{
		Order:     signed,
		Owner:     c.creds.Key,
		OrderType: orderType,
		DeferExec: opts.DeferExec,
	}
	body, err := venue.MarshalPostOrder(req)
	if err != nil {
		return nil, err
	}
	headers, err := c.auth.L2HeadersWithBuilder(auth.Request{Method: http.MethodPost, Path: venue.PathOrder, Body: string(body)}, opts.Builder)
	if err != nil {
		return nil, err
	}

	accepted, err := c.venue.PostOrder(ctx, req, headers)
	if err != nil {
		return nil, err
	}
	c.log.Infow("order_posted",
		"order_id", accepted.OrderID,
		"token_id", signed.TokenID,
		"side", signed.Side,
		"order_type", orderType,
		"status", accepted.Status,
	)
	return accepted, nil
}

// CreateAndPostOrder signs a limit order and posts it as GTC, or GTD when
// the order carries an expiration.
func (c *Client) CreateAndPostOrder(ctx context.Context, o order.UserOrder, opts order.CreateOrderOptions, post PostOptions) (*venue.OrderAccepted, error) {
	if !c.creds.Valid() {
		return nil, auth.ErrCredentialsRequired
	}
	signed, err := c.CreateOrder(ctx, o, opts)
	if err != nil {
		return nil, err
	}
	orderType := order.GTC
	if signed.Expiration != nil && signed.Expiration.Sign() != 0 {
		orderType = order.GTD
	}
	return c.PostOrder(ctx, signed, orderType, post)
}

// CreateAndPostMarketOrder signs a market order and posts it with its own order type.
func (c *Client) CreateAndPostMarketOrder(ctx context.Context, o order.UserMarketOrder, opts order.CreateOrderOptions, post PostOptions) (*venue.OrderAccepted, error) {
	if !c.creds.Valid() {
		return nil, auth.ErrCredentialsRequired
	}
	signed, err := c.CreateMarketOrder(ctx, o, opts)
	if err != nil {
		return nil, err
	}
	orderType := o.OrderType
	if orderType == "" {
		orderType = order.FOK
	}
	return c.PostOrder(ctx, signed, orderType, post)
}

// OrderHash is the digest the venue identifies signed by, e.g. for cancels.
func (c *Client) OrderHash(ctx context.Context, signed *order.SignedOrder) (common.Hash, error) {
	if c.orders == nil {
		return common.Hash{}, auth.ErrSignerRequired
	}
	negRisk, err := c.venue.NegRisk(ctx, signed.TokenID)
	if err != nil {
		return common.Hash{}, err
	}
	return c.orders.OrderHash(signed, negRisk)
}

// TypedDataJSON renders signed as the document a wallet would be prompted with.
func (c *Client) TypedDataJSON(ctx context.Context, signed *order.SignedOrder) (string, error) {
	if c.orders == nil {
		return "", auth.ErrSignerRequired
	}
	negRisk, err := c.venue.NegRisk(ctx, signed.TokenID)
	if err != nil {
		return "", err
	}
	return c.orders.TypedDataJSON(signed, negRisk)
}

// L1Headers returns wallet-signed headers for key management endpoints.
func (c *Client) L1Headers(ctx context.Context, nonce uint64) (http.Header, error) {
	return c.auth.L1Headers(ctx, nonce)
}

// L2Headers returns API-key headers for an arbitrary request.
func (c *Client) L2Headers(method, path, body string) (http.Header, error) {
	return c.auth.L2Headers(auth.Request{Method: method, Path: path, Body: body})
}

// NewRFQRequest sizes intent with the token's tick and opens a request.
func (c *Client) NewRFQRequest(ctx context.Context, intent rfq.Intent) (*rfq.Request, error) {
	tick, err := c.venue.TickSize(ctx, intent.TokenID)
	if err != nil {
		return nil, err
	}
	return rfq.NewRequest(intent, tick)
}

// NewRFQQuote answers req with intent and classifies the pairing.
func (c *Client) NewRFQQuote(ctx context.Context, req *rfq.Request, intent rfq.Intent) (*rfq.Quote, error) {
	tick, err := c.venue.TickSize(ctx, intent.TokenID)
	if err != nil {
		return nil, err
	}
	return rfq.NewQuote(req, intent, tick)
}

type market struct {
	tick       rounding.TickSize
	negRisk    bool
	feeRateBps int64
}

func (c *Client) resolveMarket(ctx context.Context, tokenID string, opts order.CreateOrderOptions) (market, error) {
	marketTick, err := c.venue.TickSize(ctx, tokenID)
	if err != nil {
		return market{}, err
	}
	tick, err := order.ResolveTickSize(marketTick, opts.TickSize)
	if err != nil {
		return market{}, err
	}

	var negRisk bool
	if opts.NegRisk != nil {
		negRisk = *opts.NegRisk
	} else if negRisk, err = c.venue.NegRisk(ctx, tokenID); err != nil {
		return market{}, err
	}

	fee, err := c.venue.FeeRateBps(ctx, tokenID)
	if err != nil {
		return market{}, err
	}
	return market{tick: tick, negRisk: negRisk, feeRateBps: fee}, nil
}

func (c *Client) sign(ctx context.Context, intent order.OrderIntent, m market) (*order.SignedOrder, error) {
	signed, err := c.orders.Build(ctx, intent, m.tick, m.negRisk)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("order_signed",
		"token_id", signed.TokenID,
		"side", signed.Side,
		"maker_amount", signed.MakerAmount.String(),
		"taker_amount", signed.TakerAmount.String(),
		"tick_size", m.tick,
		"neg_risk", m.negRisk,
	)
	return signed, nil
}

func validateForPost(signed *order.SignedOrder, orderType order.OrderType) error {
	if signed == nil {
		return fmt.Errorf("%w: nil order", order.ErrInvalidSignature)
	}
	if !orderType.Valid() {
		return fmt.Errorf("%w: %q", order.ErrInvalidOrderType, orderType)
	}
	if _, err := order.DecodeSignature(signed.Signature); err != nil {
		return err
	}
	hasExpiry := signed.Expiration != nil && signed.Expiration.Sign() != 0
	if orderType == order.GTD && !hasExpiry {
		return fmt.Errorf("%w: GTD orders need an expiration", order.ErrInvalidExpiration)
	}
	if orderType != order.GTD && hasExpiry {
		return fmt.Errorf("%w: only GTD orders may expire", order.ErrInvalidExpiration)
	}
	return nil
}
