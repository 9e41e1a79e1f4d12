package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Secret size constants (in bytes before encoding).
const (
	// SecretSize128 provides 128 bits of entropy (22 chars base64url).
	SecretSize128 = 16
	// SecretSize256 provides 256 bits of entropy (43 chars base64url).
	SecretSize256 = 32
)

// GenerateSecret creates a cryptographically secure random secret of the
// specified byte length, returned as a base64url string (URL-safe, no
// padding). Used for client secrets shown once at creation time.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
