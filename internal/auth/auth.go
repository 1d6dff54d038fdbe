// Package auth resolves the calling principal from a bearer token.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balkashynov/listeningroom/internal/apperr"
)

// Roles a principal can carry
const (
	RoleVolunteer = "volunteer"
	RoleSeeker    = "seeker"
)

// Principal is the authenticated caller
type Principal struct {
	UserID string
	Role   string
}

// Authenticator resolves the caller of a request
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

type contextKey string

const principalCtxKey contextKey = "principal"

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// FromContext returns the principal stored by WithPrincipal
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	return p, ok
}

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 bearer tokens whose subject is the user id
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWT creates a JWT authenticator
func NewJWT(secret, issuer string) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue mints a token for userID valid for ttl
func (j *JWT) Issue(userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := j.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token string into a principal
func (j *JWT) Verify(token string) (Principal, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthenticated)
	}
	return Principal{UserID: c.Subject, Role: c.Role}, nil
}

// Authenticate reads the Authorization: Bearer header
func (j *JWT) Authenticate(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Principal{}, fmt.Errorf("%w: missing authorization header", apperr.ErrUnauthenticated)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Principal{}, fmt.Errorf("%w: invalid authorization format", apperr.ErrUnauthenticated)
	}
	return j.Verify(token)
}

// Subject reads the user id from a token without verifying it.
// Only for labelling output on the client; the server always verifies.
func Subject(token string) (string, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	return c.Subject, nil
}
