package params

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uhyunpark/clobkit/pkg/auth"
	"github.com/uhyunpark/clobkit/pkg/contracts"
	"github.com/uhyunpark/clobkit/pkg/order"
)

var envKeys = []string{
	"CLOB_HOST", "CHAIN_ID", "PRIVATE_KEY", "FUNDER_ADDRESS", "SIGNATURE_TYPE",
	"CLOB_API_KEY", "CLOB_SECRET", "CLOB_PASSPHRASE",
	"BUILDER_API_KEY", "BUILDER_SECRET", "BUILDER_PASSPHRASE",
	"LOG_LEVEL", "LOG_FILE", "HTTP_TIMEOUT_MS",
}

// clearEnv unsets every key for the test and restores it afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := LoadFromEnv(missingEnvFile(t))

	if cfg.Venue.Host != DefaultHost || cfg.Venue.ChainID != contracts.Polygon {
		t.Errorf("venue = %+v", cfg.Venue)
	}
	if cfg.Venue.HTTPTimeout != 10*time.Second {
		t.Errorf("timeout = %s, want 10s", cfg.Venue.HTTPTimeout)
	}
	if cfg.HasSigner() || cfg.Credentials() != nil || cfg.BuilderConfig() != nil {
		t.Error("defaults should carry no identity")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLOB_HOST", "http://localhost:8080")
	t.Setenv("CHAIN_ID", "80002")
	t.Setenv("HTTP_TIMEOUT_MS", "2500")
	t.Setenv("SIGNATURE_TYPE", "2")
	t.Setenv("FUNDER_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("CLOB_API_KEY", "key")
	t.Setenv("CLOB_SECRET", "c2VjcmV0")
	t.Setenv("CLOB_PASSPHRASE", "pass")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv(missingEnvFile(t))
	if cfg.Venue.Host != "http://localhost:8080" || cfg.Venue.ChainID != contracts.Amoy {
		t.Errorf("venue = %+v", cfg.Venue)
	}
	if cfg.Venue.HTTPTimeout != 2500*time.Millisecond {
		t.Errorf("timeout = %s, want 2.5s", cfg.Venue.HTTPTimeout)
	}
	if cfg.Wallet.SignatureType != order.PolyGnosisSafe {
		t.Errorf("signature type = %s, want POLY_GNOSIS_SAFE", cfg.Wallet.SignatureType)
	}
	creds := cfg.Credentials()
	if creds == nil || creds.Key != "key" {
		t.Errorf("credentials = %v", creds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "CLOB_HOST=http://from-file\nCHAIN_ID=80002\nLOG_LEVEL=warn\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Environment wins over the file
	t.Setenv("LOG_LEVEL", "error")

	cfg := LoadFromEnv(path)
	if cfg.Venue.Host != "http://from-file" || cfg.Venue.ChainID != contracts.Amoy {
		t.Errorf("venue = %+v", cfg.Venue)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log level = %s, want error", cfg.Log.Level)
	}
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAIN_ID", "polygon")
	t.Setenv("HTTP_TIMEOUT_MS", "soon")
	t.Setenv("SIGNATURE_TYPE", "-1")

	cfg := LoadFromEnv(missingEnvFile(t))
	def := Default()
	if cfg.Venue.ChainID != def.Venue.ChainID || cfg.Venue.HTTPTimeout != def.Venue.HTTPTimeout || cfg.Wallet.SignatureType != def.Wallet.SignatureType {
		t.Errorf("malformed values leaked into %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"no host", func(c *Config) { c.Venue.Host = "" }, "CLOB_HOST"},
		{"unknown chain", func(c *Config) { c.Venue.ChainID = 1 }, "CHAIN_ID"},
		{"zero timeout", func(c *Config) { c.Venue.HTTPTimeout = 0 }, "HTTP_TIMEOUT_MS"},
		{"bad signature type", func(c *Config) { c.Wallet.SignatureType = 9 }, "SIGNATURE_TYPE"},
		{"proxy without funder", func(c *Config) { c.Wallet.SignatureType = order.PolyProxy }, "FUNDER_ADDRESS"},
		{"bad funder", func(c *Config) { c.Wallet.Funder = "0x123" }, "FUNDER_ADDRESS"},
		{"partial api creds", func(c *Config) { c.API = auth.Credentials{Key: "k"} }, "CLOB credentials"},
		{"partial builder creds", func(c *Config) { c.Builder = auth.Credentials{Key: "k", Secret: "s"} }, "BUILDER credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Wallet.PrivateKey = "0xdeadbeefcafe"
	cfg.API = auth.Credentials{Key: "key", Secret: "topsecret", Passphrase: "hunter2"}
	cfg.Builder = auth.Credentials{Key: "bkey", Secret: "bsecret", Passphrase: "bpass"}

	s := cfg.String()
	for _, secret := range []string{"deadbeef", "topsecret", "hunter2", "bsecret", "bpass"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
	if !strings.Contains(s, "bkey") || !strings.Contains(s, DefaultHost) {
		t.Errorf("String() = %s", s)
	}
}
