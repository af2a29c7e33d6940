package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims carries the user id as subject. IssuedAt is compared against the
// user's last password change.
type Claims struct {
	jwt.RegisteredClaims
}

type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// JWTManager signs and validates HS256 tokens with a shared secret.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &JWTManager{secret: []byte(strings.TrimSpace(secret)), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

func (m *JWTManager) Issue(subject string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: jwt secret not configured", ErrInvalidToken)
	}
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (m *JWTManager) Validate(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithLeeway(5*time.Second), jwt.WithTimeFunc(m.now), jwt.WithIssuedAt())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsedToken.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// IssuedBefore reports whether the token predates t, at second precision.
func (c *Claims) IssuedBefore(t time.Time) bool {
	if c.IssuedAt == nil {
		return true
	}
	return c.IssuedAt.Time.Unix() < t.Unix()
}
