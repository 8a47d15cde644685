// Package identity resolves caller credentials into a domain.Caller.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// ErrUnauthenticated is returned for missing, malformed or expired
// credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// ParseCaller parses the "role:user" form used by the CLI --as flag and the
// development resolver.
func ParseCaller(s string) (domain.Caller, error) {
	role, user, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || user == "" {
		return domain.Caller{}, fmt.Errorf("%w: caller %q must look like role:user", ErrUnauthenticated, s)
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return domain.Caller{UserID: user, Role: r}, nil
}

// StaticResolver trusts "role:user" credentials as-is. It is meant for local
// use when no signing secret is configured.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, credential string) (domain.Caller, error) {
	return ParseCaller(credential)
}

// Claims are the token claims caseflow reads: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver validates HS256 bearer tokens.
type JWTResolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTResolver(secret, issuer string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (r *JWTResolver) Resolve(_ context.Context, credential string) (domain.Caller, error) {
	if credential == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return domain.Caller{UserID: claims.Subject, Role: role}, nil
}

// Issue signs a token for caller valid for ttl.
func (r *JWTResolver) Issue(caller domain.Caller, ttl time.Duration) (string, error) {
	now := r.now()
	claims := Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
