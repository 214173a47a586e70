package test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/background"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/auth"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/claims"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database/dbtest"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
)

const propagation = 5 * time.Second

type TestEnv struct {
	*httptest.Server
	DB    *sqlx.DB
	Index search.Index
	Token string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	db := dbtest.New(t)
	idx := search.NewRedisIndex(dbtest.NewRedis(t), "test")

	v, err := auth.NewVerifier(base64.StdEncoding.EncodeToString([]byte("a-test-secret-of-sufficient-length")), "")
	if err != nil {
		t.Fatal(err)
	}
	token, err := v.Sign(claims.User{Login: "hamster", Authorities: []string{claims.RoleUser}}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	log, _ := test.NewNullLogger()
	bg := background.New(log, 2, 64)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), propagation)
		defer cancel()
		bg.Shutdown(ctx)
	})

	mux := api.APIMux(api.APIConfig{
		Log:      log,
		DB:       db,
		Bridge:   search.NewBridge(idx, bg, log, time.Second),
		Verifier: v,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &TestEnv{Server: srv, DB: db, Index: idx, Token: token}
}

// Do sends body as JSON with the env's bearer token. Pass an empty token to
// send the request anonymously.
func (e *TestEnv) Do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Body.Close() })
	return w
}

// Expect sends the request, checks the status code and decodes the response
// into out when out is not nil.
func (e *TestEnv) Expect(t *testing.T, method, path string, body any, status int, out any) *http.Response {
	t.Helper()

	w := e.Do(t, method, path, body, e.Token)
	if w.StatusCode != status {
		raw, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: expected status %d, got %s: %s", method, path, status, w.Status, raw)
	}
	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return w
}

type errorBody struct {
	Error    string `json:"error"`
	ErrorKey string `json:"errorKey"`
}

func (e *TestEnv) ExpectInvalid(t *testing.T, method, path string, body any, key string) {
	t.Helper()

	var eb errorBody
	e.Expect(t, method, path, body, http.StatusBadRequest, &eb)
	if eb.ErrorKey != key {
		t.Fatalf("%s %s: expected error key %q, got %+v", method, path, key, eb)
	}
}

// eventually polls cond until it holds or the propagation bound passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(propagation)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("%s did not happen within %s", what, propagation)
}
