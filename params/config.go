package params

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/uhyunpark/clobkit/pkg/auth"
	"github.com/uhyunpark/clobkit/pkg/contracts"
	"github.com/uhyunpark/clobkit/pkg/order"
)

const DefaultHost = "https://clob.polymarket.com"

type Venue struct {
	Host        string
	ChainID     int64
	HTTPTimeout time.Duration
}

type Wallet struct {
	PrivateKey    string // hex, 0x optional
	Funder        string // address holding the assets for non-EOA schemes
	SignatureType order.SignatureType
}

type Log struct {
	Level string
	File  string // optional; logs are teed here as well as stderr
}

type Config struct {
	Venue   Venue
	Wallet  Wallet
	API     auth.Credentials
	Builder auth.Credentials
	Log     Log
}

func Default() Config {
	return Config{
		Venue: Venue{
			Host:        DefaultHost,
			ChainID:     contracts.Polygon,
			HTTPTimeout: 10 * time.Second,
		},
		Wallet: Wallet{SignatureType: order.EOA},
		Log:    Log{Level: "info"},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Venue.Host = getEnv("CLOB_HOST", cfg.Venue.Host)
	if id := os.Getenv("CHAIN_ID"); id != "" {
		if v, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.Venue.ChainID = v
		}
	}
	if ms := os.Getenv("HTTP_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			cfg.Venue.HTTPTimeout = time.Duration(v) * time.Millisecond
		}
	}

	cfg.Wallet.PrivateKey = getEnv("PRIVATE_KEY", cfg.Wallet.PrivateKey)
	cfg.Wallet.Funder = getEnv("FUNDER_ADDRESS", cfg.Wallet.Funder)
	if st := os.Getenv("SIGNATURE_TYPE"); st != "" {
		if v, err := strconv.ParseUint(st, 10, 8); err == nil {
			cfg.Wallet.SignatureType = order.SignatureType(v)
		}
	}

	cfg.API = auth.Credentials{
		Key:        os.Getenv("CLOB_API_KEY"),
		Secret:     os.Getenv("CLOB_SECRET"),
		Passphrase: os.Getenv("CLOB_PASSPHRASE"),
	}
	cfg.Builder = auth.Credentials{
		Key:        os.Getenv("BUILDER_API_KEY"),
		Secret:     os.Getenv("BUILDER_SECRET"),
		Passphrase: os.Getenv("BUILDER_PASSPHRASE"),
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	return cfg
}

// Validate reports the first setting that would make the client unusable.
// A missing private key is allowed; such a config only reads market data.
func (c Config) Validate() error {
	if c.Venue.Host == "" {
		return errors.New("CLOB_HOST is required")
	}
	if _, err := contracts.ForChain(c.Venue.ChainID); err != nil {
		return fmt.Errorf("CHAIN_ID: %w", err)
	}
	if c.Venue.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_MS must be positive, got %s", c.Venue.HTTPTimeout)
	}

	if !c.Wallet.SignatureType.Valid() {
		return fmt.Errorf("SIGNATURE_TYPE: %w: %d", order.ErrInvalidSignatureType, c.Wallet.SignatureType)
	}
	if c.Wallet.Funder != "" && !common.IsHexAddress(c.Wallet.Funder) {
		return fmt.Errorf("FUNDER_ADDRESS %q is not an address", c.Wallet.Funder)
	}
	if c.Wallet.SignatureType.NeedsFunder() && c.FunderAddress() == (common.Address{}) {
		return fmt.Errorf("FUNDER_ADDRESS: %w for %s", order.ErrFunderRequired, c.Wallet.SignatureType)
	}

	if err := partial("CLOB", c.API); err != nil {
		return err
	}
	return partial("BUILDER", c.Builder)
}

// partial rejects a credential triple that is neither complete nor empty.
func partial(prefix string, creds auth.Credentials) error {
	if creds == (auth.Credentials{}) || creds.Valid() {
		return nil
	}
	return fmt.Errorf("%s credentials are incomplete: key, secret and passphrase must all be set", prefix)
}

func (c Config) HasSigner() bool { return c.Wallet.PrivateKey != "" }

func (c Config) FunderAddress() common.Address {
	return common.HexToAddress(c.Wallet.Funder)
}

// Credentials returns the API credentials, or nil when none are configured.
func (c Config) Credentials() *auth.Credentials {
	if !c.API.Valid() {
		return nil
	}
	creds := c.API
	return &creds
}

func (c Config) BuilderConfig() *auth.BuilderConfig {
	if !c.Builder.Valid() {
		return nil
	}
	return &auth.BuilderConfig{Credentials: c.Builder}
}

// String is safe to log.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "host=%s chain_id=%d timeout=%s", c.Venue.Host, c.Venue.ChainID, c.Venue.HTTPTimeout)
	fmt.Fprintf(&b, " signature_type=%s funder=%s private_key=%s", c.Wallet.SignatureType, c.Wallet.Funder, mask(c.Wallet.PrivateKey))
	fmt.Fprintf(&b, " api=%s builder=%s", c.API, c.Builder)
	fmt.Fprintf(&b, " log_level=%s log_file=%s", c.Log.Level, c.Log.File)
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
