package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/avstrong/studio/internal/booking"
)

const (
	RoleAdmin       = "Admin"
	RoleContributor = "Contributor"

	DefaultTokenTTL = 12 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Actor maps the token holder onto the booking caller. Only admins are privileged.
func (c *Claims) Actor() booking.Actor {
	return booking.Actor{ID: c.Subject, Privileged: c.Role == RoleAdmin}
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleContributor
}

func (i *Issuer) Issue(sub, role string) (string, error) {
	if sub == "" {
		return "", fmt.Errorf("subject is required: %w", ErrInvalidToken)
	}

	if !ValidRole(role) {
		return "", fmt.Errorf("role %q: %w", role, ErrUnknownRole)
	}

	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
