package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

func testIdentity() domain.Identity {
	return domain.Identity{
		ID:           "2",
		Username:     "user",
		Name:         "Regular User",
		Email:        "user@example.com",
		Role:         domain.RoleStandard,
		PasswordHash: "secret-hash",
		CreatedAt:    time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec("secret", time.Hour)

	raw, issued, err := c.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if issued.TokenID == "" {
		t.Fatal("Issue() returned empty token id")
	}

	got, err := c.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Identity.ID != "2" || got.Identity.Role != domain.RoleStandard {
		t.Errorf("Parse() identity = %+v", got.Identity)
	}
	if got.Identity.PasswordHash != "" {
		t.Error("Parse() leaked password hash")
	}
	if got.TokenID != issued.TokenID {
		t.Errorf("TokenID = %q, want %q", got.TokenID, issued.TokenID)
	}
	if !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, issued.ExpiresAt)
	}
}

func TestCodec_RejectsWrongSecret(t *testing.T) {
	raw, _, err := NewCodec("secret", time.Hour).Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := NewCodec("other", time.Hour).Parse(raw); err != ErrInvalidToken {
		t.Fatalf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestCodec_RejectsExpired(t *testing.T) {
	c := NewCodec("secret", time.Minute)
	raw, _, err := c.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := c.Parse(raw); err != ErrInvalidToken {
		t.Fatalf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestCodec_RejectsOtherAlgorithm(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "1", Issuer: issuer},
		Role:             "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewCodec("secret", time.Hour).Parse(raw); err != ErrInvalidToken {
		t.Fatalf("Parse() error = %v, want ErrInvalidToken", err)
	}
}
