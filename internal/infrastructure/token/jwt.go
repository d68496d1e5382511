// Package token encodes session snapshots as HS256 bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

const issuer = "records-dashboard"

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity snapshot inside the token.
type Claims struct {
	jwt.RegisteredClaims
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Codec issues and parses session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *Codec) Issue(identity domain.Identity) (string, domain.Session, error) {
	now := c.now()
	snapshot := identity.Snapshot()
	session := domain.Session{
		Identity:  snapshot,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(c.ttl).Truncate(time.Second),
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.TokenID,
			Subject:   snapshot.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Username:  snapshot.Username,
		Name:      snapshot.Name,
		Email:     snapshot.Email,
		Role:      string(snapshot.Role),
		Avatar:    snapshot.Avatar,
		CreatedAt: snapshot.CreatedAt,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, session, nil
}

// Parse verifies the signature and expiry and rebuilds the session.
func (c *Codec) Parse(raw string) (domain.Session, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tkn.Valid {
		return domain.Session{}, ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Subject == "" || claims.ID == "" {
		return domain.Session{}, ErrInvalidToken
	}

	return domain.Session{
		Identity: domain.Identity{
			ID:        claims.Subject,
			Username:  claims.Username,
			Name:      claims.Name,
			Email:     claims.Email,
			Role:      role,
			Avatar:    claims.Avatar,
			CreatedAt: claims.CreatedAt,
		},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
