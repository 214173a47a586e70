// Package gateway is the edge in front of the service: it turns the session
// cookie into a bearer header, limits clients and proxies to the service.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/middleware"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/rate"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrUpstream    = errors.New("upstream unavailable")
)

type Config struct {
	Log        logrus.FieldLogger
	Upstream   *url.URL
	Timeout    time.Duration
	CookieName string
	Origins    []string
	Limiter    *rate.Limiter
}

type proxyErrKey int

const errSlot proxyErrKey = 1

// New returns the gateway handler.
func New(cfg Config) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(cfg.Upstream)
			pr.SetXForwarded()
		},
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			ResponseHeaderTimeout: cfg.Timeout,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if slot, ok := r.Context().Value(errSlot).(*error); ok {
				*slot = err
				return
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	mw := []web.Middleware{
		middleware.RequestID(),
		middleware.Logger(cfg.Log),
		middleware.Errors(cfg.Log),
		middleware.Panics(),
		RateLimit(cfg.Limiter),
		CookieToBearer(cfg.CookieName),
	}
	h := web.WrapMiddleware(mw, forward(proxy))

	serve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := h(ctx, w, r); err != nil {
			cfg.Log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	router := mux.NewRouter()
	router.PathPrefix("/api/").Handler(serve)
	router.Path("/health").Handler(serve)

	if len(cfg.Origins) == 0 {
		return router
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Location", "Link", "X-Total-Count", middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// forward proxies the request upstream. Failures to reach the service come
// back as errors so the Errors middleware renders them.
func forward(proxy *httputil.ReverseProxy) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var perr error
		proxy.ServeHTTP(w, r.WithContext(context.WithValue(ctx, errSlot, &perr)))
		if perr != nil {
			return weberr.NewError(
				fmt.Errorf("%w: %v", ErrUpstream, perr),
				"upstream service unavailable",
				http.StatusBadGateway,
			)
		}
		return nil
	}
}

// CookieToBearer copies the token cookie into the Authorization header when
// the request has no Authorization header of its own.
func CookieToBearer(name string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if r.Header.Get("Authorization") == "" {
				if c, err := r.Cookie(name); err == nil && c.Value != "" {
					r.Header.Set("Authorization", "Bearer "+c.Value)
				}
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// RateLimit rejects clients, keyed by remote address, that exceed lim.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !lim.Allow(clientIP(r)) {
				return weberr.NewError(ErrRateLimited, "too many requests", http.StatusTooManyRequests)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
