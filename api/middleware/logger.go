package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger logs every request twice: started at debug level, completed at info
// level (warn for 5xx). The route template groups /api/courses/1 and
// /api/courses/2 under /api/courses/{id}.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			log := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      routeTemplate(r),
				"remoteaddr": r.RemoteAddr,
			})

			log.Debug("started")
			startTime := time.Now().UTC()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			status := lw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"statuscode": status,
				"bytes":      lw.BytesWritten(),
				"since":      time.Since(startTime).String(),
			})
			if err != nil {
				entry = entry.WithError(err)
			}

			if status >= http.StatusInternalServerError {
				entry.Warn("completed")
			} else {
				entry.Info("completed")
			}
			return err
		}
		return h
	}
	return m
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}
