package auth

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/uhyunpark/clobkit/pkg/crypto"
	"github.com/uhyunpark/clobkit/pkg/util"
)

// Header names as the venue spells them.
const (
	HeaderAddress    = "POLY_ADDRESS"
	HeaderSignature  = "POLY_SIGNATURE"
	HeaderTimestamp  = "POLY_TIMESTAMP"
	HeaderNonce      = "POLY_NONCE"
	HeaderAPIKey     = "POLY_API_KEY"
	HeaderPassphrase = "POLY_PASSPHRASE"

	HeaderBuilderAPIKey     = "POLY_BUILDER_API_KEY"
	HeaderBuilderPassphrase = "POLY_BUILDER_PASSPHRASE"
	HeaderBuilderSignature  = "POLY_BUILDER_SIGNATURE"
	HeaderBuilderTimestamp  = "POLY_BUILDER_TIMESTAMP"
)

// BuilderPolicy decides what happens when builder headers cannot be produced.
type BuilderPolicy int

const (
	// BuilderOptional falls back to the user's headers alone.
	BuilderOptional BuilderPolicy = iota
	// BuilderRequired fails with ErrBuilderRequired.
	BuilderRequired
)

// Request is the part of an HTTP request that L2 signatures cover.
type Request struct {
	Method string
	Path   string // request path without host, e.g. "/order"
	Body   string
}

type Config struct {
	ChainID     int64
	Signer      crypto.TypedDataSigner
	Credentials *Credentials
	Builder     *BuilderConfig
	Clock       util.Clock
	Logger      *zap.SugaredLogger
}

// Authenticator produces request headers for one identity.
type Authenticator struct {
	chainID int64
	signer  crypto.TypedDataSigner
	creds   *Credentials
	builder *BuilderConfig
	clock   util.Clock
	log     *zap.SugaredLogger
}

func New(cfg Config) *Authenticator {
	a := &Authenticator{
		chainID: cfg.ChainID,
		signer:  cfg.Signer,
		creds:   cfg.Credentials,
		builder: cfg.Builder,
		clock:   cfg.Clock,
		log:     cfg.Logger,
	}
	if a.clock == nil {
		a.clock = util.RealClock{}
	}
	if a.log == nil {
		a.log = zap.NewNop().Sugar()
	}
	return a
}

// SetCredentials installs API credentials, e.g. after deriving them with L1 auth.
func (a *Authenticator) SetCredentials(creds *Credentials) {
	a.creds = creds
}

func (a *Authenticator) HasSigner() bool      { return a.signer != nil }
func (a *Authenticator) HasCredentials() bool { return a.creds.Valid() }
func (a *Authenticator) HasBuilder() bool     { return a.builder.Valid() }

// L1Headers proves control of the signing wallet by signing a ClobAuth message.
func (a *Authenticator) L1Headers(ctx context.Context, nonce uint64) (http.Header, error) {
	if a.signer == nil {
		return nil, ErrSignerRequired
	}

	ts := strconv.FormatInt(util.UnixSeconds(a.clock), 10)
	n := new(big.Int).SetUint64(nonce)
	typed := crypto.NewEIP712Signer(crypto.AuthDomain(a.chainID)).ClobAuthTypedData(&crypto.ClobAuthEIP712{
		Address:   a.signer.Address(),
		Timestamp: ts,
		Nonce:     n,
		Message:   crypto.AuthMessage,
	})

	sig, err := a.signer.SignTypedData(ctx, typed)
	if err != nil {
		return nil, fmt.Errorf("failed to sign auth message: %w", err)
	}

	h := http.Header{}
	set(h, HeaderAddress, a.signer.Address().Hex())
	set(h, HeaderSignature, hexutil.Encode(sig))
	set(h, HeaderTimestamp, ts)
	set(h, HeaderNonce, n.String())
	return h, nil
}

// L2Headers authenticates req with the API credentials.
func (a *Authenticator) L2Headers(req Request) (http.Header, error) {
	h, _, err := a.l2(req)
	return h, err
}

// L2HeadersWithBuilder adds the builder overlay to the L2 headers according to policy.
func (a *Authenticator) L2HeadersWithBuilder(req Request, policy BuilderPolicy) (http.Header, error) {
	h, ts, err := a.l2(req)
	if err != nil {
		return nil, err
	}

	if !a.builder.Valid() {
		if policy == BuilderRequired {
			return nil, ErrBuilderRequired
		}
		a.log.Debugw("builder_headers_skipped", "reason", "builder credentials not configured")
		return h, nil
	}

	bc := a.builder.Credentials
	sig, err := BuildHMACSignature(bc.Secret, ts, req.Method, req.Path, req.Body)
	if err != nil {
		if policy == BuilderRequired {
			return nil, fmt.Errorf("%w: %v", ErrBuilderRequired, err)
		}
		a.log.Debugw("builder_headers_skipped", "reason", err.Error())
		return h, nil
	}

	set(h, HeaderBuilderAPIKey, bc.Key)
	set(h, HeaderBuilderPassphrase, bc.Passphrase)
	set(h, HeaderBuilderSignature, sig)
	set(h, HeaderBuilderTimestamp, ts)
	return h, nil
}

func (a *Authenticator) l2(req Request) (http.Header, string, error) {
	if a.signer == nil {
		return nil, "", ErrSignerRequired
	}
	if !a.creds.Valid() {
		return nil, "", ErrCredentialsRequired
	}

	ts := strconv.FormatInt(util.UnixSeconds(a.clock), 10)
	sig, err := BuildHMACSignature(a.creds.Secret, ts, req.Method, req.Path, req.Body)
	if err != nil {
		return nil, "", err
	}

	h := http.Header{}
	set(h, HeaderAddress, a.signer.Address().Hex())
	set(h, HeaderSignature, sig)
	set(h, HeaderTimestamp, ts)
	set(h, HeaderAPIKey, a.creds.Key)
	set(h, HeaderPassphrase, a.creds.Passphrase)
	return h, ts, nil
}

// set keeps the venue's exact header spelling instead of the canonical MIME form.
func set(h http.Header, key, value string) {
	h[key] = []string{value}
}

// Value reads a header set by this package.
func Value(h http.Header, key string) string {
	if v, ok := h[key]; ok && len(v) > 0 {
		return v[0]
	}
	return h.Get(key)
}
