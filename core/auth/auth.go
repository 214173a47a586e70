package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var ErrMissingToken = errors.New("missing bearer token")

type tokenClaims struct {
	Auth string `json:"auth,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HMAC signed tokens issued by the account service.
type Verifier struct {
	key    []byte
	issuer string
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decoding auth secret: %w", err)
	}
	return &Verifier{key: key, issuer: issuer}, nil
}

func (v *Verifier) Verify(raw string) (claims.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return claims.User{}, fmt.Errorf("parsing token: %w", err)
	}
	if tc.Subject == "" {
		return claims.User{}, errors.New("token has no subject")
	}

	u := claims.User{Login: tc.Subject}
	for _, a := range strings.Split(tc.Auth, ",") {
		if a = strings.TrimSpace(a); a != "" {
			u.Authorities = append(u.Authorities, a)
		}
	}
	return u, nil
}

// Sign issues an HS512 token for u. The service never issues tokens itself;
// this exists for tooling and tests.
func (v *Verifier) Sign(u claims.User, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		Auth: strings.Join(u.Authorities, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Login,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, tc).SignedString(v.key)
}

func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if len(h) <= len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(h[len(bearerPrefix):]), nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func Authenticate(v *Verifier) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			raw, err := BearerToken(r)
			if err != nil {
				return weberr.NotAuthorized(err)
			}

			u, err := v.Verify(raw)
			if err != nil {
				return weberr.NotAuthorized(err)
			}

			return handler(claims.Set(ctx, u), w, r)
		}
		return h
	}
	return m
}
