// Package auth builds the headers that authenticate requests to the venue:
// wallet-signed (L1), API-key HMAC (L2) and the optional builder overlay.
package auth

import (
	"errors"
	"fmt"
)

var (
	ErrSignerRequired      = errors.New("signer required for wallet authentication")
	ErrCredentialsRequired = errors.New("api credentials required")
	ErrBuilderRequired     = errors.New("builder credentials required")
	ErrInvalidSecret       = errors.New("api secret is not valid base64")
)

// Credentials are the API key triple issued by the venue.
type Credentials struct {
	Key        string `json:"apiKey"`
	Secret     string `json:"secret"` // base64
	Passphrase string `json:"passphrase"`
}

// Valid reports whether every field is set.
func (c *Credentials) Valid() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// String never prints the secret or passphrase.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Key: %s, Secret: %s, Passphrase: %s}", c.Key, redact(c.Secret), redact(c.Passphrase))
}

// GoString keeps %#v from leaking secrets as well.
func (c Credentials) GoString() string {
	return c.String()
}

// BuilderConfig identifies an order-flow builder attributed on top of the
// user's own credentials.
type BuilderConfig struct {
	Credentials Credentials
}

func (b *BuilderConfig) Valid() bool {
	return b != nil && b.Credentials.Valid()
}

func redact(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<redacted>"
}
