package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
)

const (
	RequestIDHeader = "X-Request-Id"

	// MaxRequestIDLength bounds ids accepted from the gateway or a client.
	MaxRequestIDLength = 128
)

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

var (
	reqSeq    int64
	reqPrefix = newPrefix()
)

func newPrefix() string {
	var buf [12]byte
	var b64 string
	for len(b64) < 10 {
		_, _ = rand.Read(buf[:])
		b64 = base64.StdEncoding.EncodeToString(buf[:])
		b64 = strings.NewReplacer("+", "", "/", "").Replace(b64)
	}
	return b64[:10]
}

// validRequestID accepts ids made of letters, digits, '-', '_' and '.', so a
// forwarded id can be logged and echoed as is.
func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// RequestID reuses the X-Request-Id set by the gateway, or assigns one. The
// id is echoed to the caller and kept on the request so a proxied call
// carries the same id upstream.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqSeq, 1))
			}
			ctx = context.WithValue(ctx, reqIDKey, id)

			r.Header.Set(RequestIDHeader, id)
			w.Header().Set(RequestIDHeader, id)

			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
