package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// CookieCodecImpl implements domain.CookieCodec: an HMAC-SHA256 signed
// envelope of the form base64url(payloadJSON) + "." + base64url(sig).
type CookieCodecImpl struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewCookieCodec creates the codec. Construction fails closed when the
// signing secret, issuer, or audience is absent; there is no unsigned or
// default-secret fallback.
func NewCookieCodec(secret, issuer, audience string) (domain.CookieCodec, error) {
	switch {
	case secret == "":
		return nil, domain.ErrMissingSigningSecret
	case issuer == "":
		return nil, domain.ErrMissingIssuer
	case audience == "":
		return nil, domain.ErrMissingAudience
	}
	return &CookieCodecImpl{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// Encode implements domain.CookieCodec.
func (c *CookieCodecImpl) Encode(payload *domain.SessionCookiePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString(c.sign(body)), nil
}

// cookieValidator checks one property of a decoded payload and returns a
// rejection reason, or CookieReasonOK. Validators run in a fixed order so
// adding a claim later cannot accidentally short-circuit an earlier check.
type cookieValidator func(payload *domain.SessionCookiePayload) domain.CookieRejectReason

// Decode implements domain.CookieCodec. The signature comparison is
// constant time; every expected claim is checked independently and a
// mismatch in any single one is a full rejection.
func (c *CookieCodecImpl) Decode(value string) (*domain.SessionCookiePayload, domain.CookieRejectReason) {
	segments := strings.Split(value, ".")
	if len(segments) != 2 {
		return nil, domain.CookieReasonMalformed
	}

	body, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return nil, domain.CookieReasonMalformed
	}
	sig, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil, domain.CookieReasonMalformed
	}

	if !hmac.Equal(sig, c.sign(body)) {
		return nil, domain.CookieReasonBadSignature
	}

	var payload domain.SessionCookiePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.CookieReasonMalformed
	}

	for _, validate := range c.validators() {
		if reason := validate(&payload); reason != domain.CookieReasonOK {
			return nil, reason
		}
	}
	return &payload, domain.CookieReasonOK
}

func (c *CookieCodecImpl) validators() []cookieValidator {
	return []cookieValidator{
		func(p *domain.SessionCookiePayload) domain.CookieRejectReason {
			if !p.ExpiresAt().After(c.now()) {
				return domain.CookieReasonExpired
			}
			return domain.CookieReasonOK
		},
		func(p *domain.SessionCookiePayload) domain.CookieRejectReason {
			if p.Issuer != c.issuer {
				return domain.CookieReasonIssuerMismatch
			}
			return domain.CookieReasonOK
		},
		func(p *domain.SessionCookiePayload) domain.CookieRejectReason {
			if p.Audience != c.audience {
				return domain.CookieReasonAudMismatch
			}
			return domain.CookieReasonOK
		},
		func(p *domain.SessionCookiePayload) domain.CookieRejectReason {
			if p.TokenType != domain.SessionTokenType {
				return domain.CookieReasonTypeMismatch
			}
			return domain.CookieReasonOK
		},
		func(p *domain.SessionCookiePayload) domain.CookieRejectReason {
			if p.TokenContext != domain.SessionTokenContext {
				return domain.CookieReasonContextMismatch
			}
			return domain.CookieReasonOK
		},
	}
}

func (c *CookieCodecImpl) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
