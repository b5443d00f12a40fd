package web

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/domjweb/FastVal/log"
	"github.com/domjweb/FastVal/middleware"
)

// NewStructuredLogger seeds a request-scoped logrus entry into the context
// and writes one completion line per request to the request log.
func NewStructuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.NewCtxLogger(r.Context(), logrus.Fields{
			"request_method": r.Method,
			"request_uri":    r.RequestURI,
			"remote_addr":    r.RemoteAddr,
			"transaction_id": middleware.GetTransactionID(r.Context()),
		})

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.GetCtxLogger(ctx).WithFields(logrus.Fields{
				"resp_status":       ww.Status(),
				"resp_bytes_length": ww.BytesWritten(),
				"resp_elapsed_ms":   float64(time.Since(start).Nanoseconds()) / 1000000.0,
			}).Info("request complete")
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

// ConnectionClose sets Connection: close so load balancers do not pin
// long-lived connections to one instance.
func ConnectionClose(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}
