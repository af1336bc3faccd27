// Package identity turns a bearer token into the caller the scheduling engine trusts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
	RoleAdmin     Role = "admin"
	// RoleService is used by the payment collaborator.
	RoleService Role = "service"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClinician, RolePatient, RoleAdmin, RoleService:
		return true
	}
	return false
}

// Caller is an authenticated user id and role. ID is the identity-provider user id,
// not a clinician or patient profile id.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier signs and checks HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue returns a signed token for caller. Used by the seeder, simulator and tests.
func (v *Verifier) Issue(c Caller, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (v *Verifier) Verify(tokenString string) (Caller, error) {
	claims := Claims{}
	opts := []jwt.ParserOption{jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return Caller{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return Caller{ID: id, Role: claims.Role}, nil
}

// FromHeader verifies an "Authorization: Bearer <token>" header value.
func (v *Verifier) FromHeader(header string) (Caller, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return Caller{}, ErrMissingToken
	}
	return v.Verify(strings.TrimPrefix(header, "Bearer "))
}

type contextKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok
}
