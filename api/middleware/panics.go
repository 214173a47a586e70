package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
)

// Panics converts a panic into an error so the Errors middleware answers 500.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = weberr.InternalError(
						fmt.Errorf("panic: %v", rec),
						weberr.WithFields(map[string]interface{}{"stack": string(debug.Stack())}),
					)
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
