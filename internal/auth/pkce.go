package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierCharset is the RFC 7636 unreserved character set.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// DefaultVerifierLength is the verifier length used when none is requested.
const DefaultVerifierLength = 128

// GenerateVerifier produces a PKCE code verifier of the given length drawn
// uniformly from the unreserved character set. The verifier is a security
// parameter, so the randomness comes from [crypto/rand]; bytes outside the
// largest multiple of the charset size are rejected to avoid modulo bias.
func GenerateVerifier(length int) (string, error) {
	if length <= 0 {
		length = DefaultVerifierLength
	}

	// 198 = floor(256/66) * 66
	const limit = byte(198)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, verifierCharset[int(b)%len(verifierCharset)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier: the
// SHA-256 digest of its UTF-8 bytes, base64url-encoded without padding.
// Deterministic; the token endpoint recomputes it byte-for-byte.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
