package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uhyunpark/clobkit/params"
	"github.com/uhyunpark/clobkit/pkg/auth"
	"github.com/uhyunpark/clobkit/pkg/client"
	"github.com/uhyunpark/clobkit/pkg/crypto"
	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/util"
	"github.com/uhyunpark/clobkit/pkg/venue"
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// output is printed to stdout as one JSON document.
type output struct {
	Address   string               `json:"address"`
	NegRisk   bool                 `json:"negRisk"`
	OrderHash string               `json:"orderHash"`
	Order     *order.SignedOrder   `json:"order"`
	TypedData json.RawMessage      `json:"typedData"`
	Headers   map[string]string    `json:"headers,omitempty"`
	Result    *venue.OrderAccepted `json:"result,omitempty"`
}

func run() error {
	flags, err := parseAndValidateFlags()
	if err != nil {
		return err
	}

	cfg := params.LoadFromEnv(*envFile)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()
	log.Infow("config_loaded", "config", cfg.String(), "mode", flags.mode)

	signer, err := loadSigner(cfg, log)
	if err != nil {
		return err
	}
	builder, err := order.NewBuilder(signer, cfg.Venue.ChainID, cfg.Wallet.SignatureType, cfg.FunderAddress())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := output{Address: signer.Address().Hex()}

	var c *client.Client
	if flags.mode == modeOffline {
		out.Order, err = signOffline(ctx, builder, flags)
		out.NegRisk = *flags.negRisk
	} else {
		c, err = client.New(client.Config{
			Host:          cfg.Venue.Host,
			ChainID:       cfg.Venue.ChainID,
			Signer:        signer,
			SignatureType: cfg.Wallet.SignatureType,
			Funder:        cfg.FunderAddress(),
			Credentials:   cfg.Credentials(),
			Builder:       cfg.BuilderConfig(),
			HTTPClient:    &http.Client{Timeout: cfg.Venue.HTTPTimeout},
			Logger:        log,
		})
		if err != nil {
			return err
		}
		out.Order, out.NegRisk, err = signWithVenue(ctx, c, flags)
	}
	if err != nil {
		return err
	}

	hash, err := builder.OrderHash(out.Order, out.NegRisk)
	if err != nil {
		return err
	}
	out.OrderHash = hash.Hex()
	typed, err := builder.TypedDataJSON(out.Order, out.NegRisk)
	if err != nil {
		return err
	}
	out.TypedData = json.RawMessage(typed)

	if creds := cfg.Credentials(); creds != nil {
		out.Headers, err = postHeaders(cfg, signer, creds, out.Order, flags.orderType, log)
		if err != nil {
			return err
		}
	}

	if flags.mode == modePost {
		out.Result, err = c.PostOrder(ctx, out.Order, flags.orderType, client.PostOptions{})
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newLogger(cfg params.Log) (*zap.Logger, error) {
	if cfg.File != "" {
		return util.NewLoggerWithFile(cfg.File, cfg.Level)
	}
	return util.NewLogger(cfg.Level)
}

// loadSigner uses PRIVATE_KEY, or a throwaway key when none is configured.
func loadSigner(cfg params.Config, log *zap.SugaredLogger) (*crypto.Signer, error) {
	if cfg.HasSigner() {
		s, err := crypto.FromPrivateKeyHex(cfg.Wallet.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("PRIVATE_KEY: %w", err)
		}
		return s, nil
	}
	s, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	log.Warnw("ephemeral_key_generated", "address", s.Address().Hex())
	return s, nil
}

func signOffline(ctx context.Context, b *order.Builder, flags *parsedFlags) (*order.SignedOrder, error) {
	var (
		intent order.OrderIntent
		err    error
	)
	if flags.orderType.IsMarket() {
		intent, err = order.ResolveMarketOrderDefaults(flags.userMarketOrder(), flags.feeRate)
	} else {
		intent, err = order.ResolveOrderDefaults(flags.userOrder(), flags.feeRate)
	}
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, intent, flags.tick, *flags.negRisk)
}

func signWithVenue(ctx context.Context, c *client.Client, flags *parsedFlags) (*order.SignedOrder, bool, error) {
	var (
		signed *order.SignedOrder
		err    error
	)
	if flags.orderType.IsMarket() {
		signed, err = c.CreateMarketOrder(ctx, flags.userMarketOrder(), flags.options())
	} else {
		signed, err = c.CreateOrder(ctx, flags.userOrder(), flags.options())
	}
	if err != nil {
		return nil, false, err
	}

	if flags.negRisk != nil {
		return signed, *flags.negRisk, nil
	}
	negRisk, err := c.NegRisk(ctx, flags.tokenID)
	if err != nil {
		return nil, false, err
	}
	return signed, negRisk, nil
}

// postHeaders shows the L2 headers a post of signed would carry.
func postHeaders(cfg params.Config, signer crypto.TypedDataSigner, creds *auth.Credentials, signed *order.SignedOrder, orderType order.OrderType, log *zap.SugaredLogger) (map[string]string, error) {
	body, err := venue.MarshalPostOrder(order.PostOrderRequest{Order: signed, Owner: creds.Key, OrderType: orderType})
	if err != nil {
		return nil, err
	}
	a := auth.New(auth.Config{
		ChainID:     cfg.Venue.ChainID,
		Signer:      signer,
		Credentials: creds,
		Builder:     cfg.BuilderConfig(),
		Logger:      log,
	})
	h, err := a.L2HeadersWithBuilder(auth.Request{Method: http.MethodPost, Path: venue.PathOrder, Body: string(body)}, auth.BuilderOptional)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(h))
	for k := range h {
		switch k {
		case auth.HeaderPassphrase, auth.HeaderBuilderPassphrase:
			out[k] = "<redacted>"
		default:
			out[k] = auth.Value(h, k)
		}
	}
	return out, nil
}
