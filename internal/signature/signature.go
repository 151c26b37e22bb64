// Package signature implements the v1 request-signing scheme shared with
// tenant callback consumers: HMAC-SHA256 over method, path, body, and a
// unix timestamp, hex-encoded.
package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CanonicalString builds the string that gets signed:
// METHOD\npath\nbody\ntimestamp. Non-string bodies are JSON-encoded.
func CanonicalString(method, path string, body any, timestamp int64) string {
	var bodyString string
	switch b := body.(type) {
	case string:
		bodyString = b
	case nil:
		bodyString = "null"
	default:
		raw, _ := json.Marshal(b)
		bodyString = string(raw)
	}
	return fmt.Sprintf("%s\n%s\n%s\n%d", strings.ToUpper(method), path, bodyString, timestamp)
}

// Sign returns the hex HMAC-SHA256 of canonical under secret.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a provided signature in constant time.
func Verify(secret, canonical, provided string) bool {
	expected := Sign(secret, canonical)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// GenerateSecret returns a random 32-byte hex secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
