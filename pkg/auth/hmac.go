package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// BuildHMACSignature signs timestamp+method+path+body with the decoded
// secret and returns URL-safe base64 (padding kept).
func BuildHMACSignature(secret, timestamp, method, path, body string) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp + method + path + body))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// decodeSecret accepts both the URL-safe and the standard alphabet.
func decodeSecret(secret string) ([]byte, error) {
	normalised := strings.NewReplacer("-", "+", "_", "/").Replace(secret)
	key, err := base64.StdEncoding.DecodeString(normalised)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return key, nil
}
