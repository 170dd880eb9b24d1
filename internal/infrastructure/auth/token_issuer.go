package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// rawTokenBytes is the entropy of an invitation link token. The wire form
// is 64 lowercase hex characters.
const rawTokenBytes = 32

var rawTokenShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// TokenIssuerImpl implements domain.TokenIssuer.
type TokenIssuerImpl struct {
	ttl time.Duration
}

// NewTokenIssuer creates a token issuer with a fixed link-token TTL.
func NewTokenIssuer(ttl time.Duration) domain.TokenIssuer {
	return &TokenIssuerImpl{ttl: ttl}
}

// CreateInvitationToken implements domain.TokenIssuer. The raw token is
// returned exactly once for embedding in the invitation link; only its
// hash is ever persisted.
func (t *TokenIssuerImpl) CreateInvitationToken() (*domain.IssuedToken, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	raw := hex.EncodeToString(buf)
	return &domain.IssuedToken{
		RawToken:  raw,
		TokenHash: HashSecret(raw),
		ExpiresAt: time.Now().Add(t.ttl),
	}, nil
}

// ValidTokenShape reports whether a presented raw token has the expected
// wire shape. Malformed tokens are rejected before touching the store.
func ValidTokenShape(raw string) bool {
	return rawTokenShape.MatchString(raw)
}
