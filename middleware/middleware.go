package middleware

import (
	"context"
	"net/http"

	"github.com/pborman/uuid"
)

// type to create context.Context key
type CtxTransactionKeyType string

// context.Context key to get the transaction ID from the request context
const CtxTransactionKey CtxTransactionKeyType = "ctxTransaction"

// NewTransactionID adds a transaction ID to the request context. Every log
// line and error response produced while handling the request carries it.
func NewTransactionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(context.WithValue(r.Context(), CtxTransactionKey, uuid.New()))
		next.ServeHTTP(w, r)
	})
}

// GetTransactionID returns the transaction ID seeded by NewTransactionID,
// or "" when the context carries none.
func GetTransactionID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxTransactionKey).(string); ok {
		return id
	}
	return ""
}
