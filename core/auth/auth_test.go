package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
)

func verifier(t *testing.T, secret, issuer string) *Verifier {
	t.Helper()
	v, err := NewVerifier(base64.StdEncoding.EncodeToString([]byte(secret)), issuer)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestVerify(t *testing.T) {
	v := verifier(t, "first-secret-first-secret-first-secret", "")
	u := claims.User{Login: "hamster", Authorities: []string{claims.RoleAdmin, claims.RoleUser}}

	tok, err := v.Sign(u, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	got, err := v.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Fatalf("unexpected user: %s", diff)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := verifier(t, "first-secret-first-secret-first-secret", "hamster")
	other := verifier(t, "other-secret-other-secret-other-secret", "hamster")
	foreign := verifier(t, "first-secret-first-secret-first-secret", "someone-else")
	u := claims.User{Login: "hamster"}

	expired, _ := v.Sign(u, -time.Minute)
	wrongKey, _ := other.Sign(u, time.Minute)
	wrongIssuer, _ := foreign.Sign(u, time.Minute)
	noSubject, _ := v.Sign(claims.User{}, time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "hamster",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"alg none":     none,
		"garbage":      "a.b.c",
	} {
		if _, err := v.Verify(tok); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	v := verifier(t, "first-secret-first-secret-first-secret", "")
	tok, err := v.Sign(claims.User{Login: "hamster"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var seen claims.User
	h := Authenticate(v)(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		u, err := claims.Get(ctx)
		if err != nil {
			return err
		}
		seen = u
		return nil
	})

	r := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	if err := h(r.Context(), httptest.NewRecorder(), r); err != nil {
		t.Fatal(err)
	}
	if seen.Login != "hamster" {
		t.Fatalf("unexpected user %+v", seen)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	err = h(r.Context(), httptest.NewRecorder(), r)
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
	if _, status, ok := weberr.Response(err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}
