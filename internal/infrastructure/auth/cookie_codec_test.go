package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

const testSecret = "test-signing-secret"

func newTestCodec(t *testing.T) domain.CookieCodec {
	t.Helper()
	codec, err := NewCookieCodec(testSecret, "intake-svc", "intake-patients")
	if err != nil {
		t.Fatalf("NewCookieCodec failed: %v", err)
	}
	return codec
}

func testPayload() *domain.SessionCookiePayload {
	return &domain.SessionCookiePayload{
		InvitationID:     "inv-1",
		SessionTokenHash: HashSecret("opaque-session-token"),
		Issuer:           "intake-svc",
		Audience:         "intake-patients",
		TokenType:        domain.SessionTokenType,
		TokenContext:     domain.SessionTokenContext,
		ExpiresAtMs:      time.Now().Add(time.Hour).UnixMilli(),
	}
}

func TestNewCookieCodec_FailsClosed(t *testing.T) {
	tests := []struct {
		name                     string
		secret, issuer, audience string
		wantErr                  error
	}{
		{"missing secret", "", "iss", "aud", domain.ErrMissingSigningSecret},
		{"missing issuer", "s", "", "aud", domain.ErrMissingIssuer},
		{"missing audience", "s", "iss", "", domain.ErrMissingAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCookieCodec(tt.secret, tt.issuer, tt.audience)
			if err != tt.wantErr {
				t.Errorf("NewCookieCodec error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	payload := testPayload()

	value, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Count(value, ".") != 1 {
		t.Fatalf("cookie value should have exactly two segments, got %q", value)
	}

	decoded, reason := codec.Decode(value)
	if reason != domain.CookieReasonOK {
		t.Fatalf("Decode rejected valid cookie: %q", reason)
	}
	if *decoded != *payload {
		t.Errorf("decoded payload = %+v, want %+v", decoded, payload)
	}
}

func TestCookieCodec_SignatureBitFlip(t *testing.T) {
	codec := newTestCodec(t)

	value, err := codec.Encode(testPayload())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	segments := strings.Split(value, ".")
	sig, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		t.Fatalf("failed to decode signature segment: %v", err)
	}

	// Flipping any single bit of the signature must fail verification.
	for i := 0; i < len(sig)*8; i++ {
		tampered := make([]byte, len(sig))
		copy(tampered, sig)
		tampered[i/8] ^= 1 << (i % 8)

		forged := segments[0] + "." + base64.RawURLEncoding.EncodeToString(tampered)
		if _, reason := codec.Decode(forged); reason != domain.CookieReasonBadSignature {
			t.Fatalf("bit %d: Decode reason = %q, want %q", i, reason, domain.CookieReasonBadSignature)
		}
	}
}

func TestCookieCodec_ExpiredPayload(t *testing.T) {
	codec := newTestCodec(t)

	payload := testPayload()
	payload.ExpiresAtMs = time.Now().Add(-time.Minute).UnixMilli()

	// The signature over the expired payload is perfectly valid; expiry
	// must still reject it.
	value, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, reason := codec.Decode(value); reason != domain.CookieReasonExpired {
		t.Errorf("Decode reason = %q, want %q", reason, domain.CookieReasonExpired)
	}
}

func TestCookieCodec_ClaimMismatch(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name   string
		mutate func(*domain.SessionCookiePayload)
		want   domain.CookieRejectReason
	}{
		{
			name:   "forged issuer",
			mutate: func(p *domain.SessionCookiePayload) { p.Issuer = "someone-else" },
			want:   domain.CookieReasonIssuerMismatch,
		},
		{
			name:   "forged audience",
			mutate: func(p *domain.SessionCookiePayload) { p.Audience = "other-app" },
			want:   domain.CookieReasonAudMismatch,
		},
		{
			name:   "forged type",
			mutate: func(p *domain.SessionCookiePayload) { p.TokenType = "staff_session" },
			want:   domain.CookieReasonTypeMismatch,
		},
		{
			name:   "forged context",
			mutate: func(p *domain.SessionCookiePayload) { p.TokenContext = "password_reset" },
			want:   domain.CookieReasonContextMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Forged from scratch: the altered payload is re-signed with
			// the real secret, so only claim matching can catch it.
			payload := testPayload()
			tt.mutate(payload)

			value, err := codec.Encode(payload)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if _, reason := codec.Decode(value); reason != tt.want {
				t.Errorf("Decode reason = %q, want %q", reason, tt.want)
			}
		})
	}
}

func TestCookieCodec_Malformed(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"too many segments", "a.b.c"},
		{"payload not base64url", "!!!.c2ln"},
		{"signature not base64url", "cGF5bG9hZA.!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, reason := codec.Decode(tt.value); reason != domain.CookieReasonMalformed {
				t.Errorf("Decode(%q) reason = %q, want %q", tt.value, reason, domain.CookieReasonMalformed)
			}
		})
	}
}
