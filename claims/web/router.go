package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/domjweb/FastVal/middleware"
)

// NewRouter mounts the claim lifecycle API.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewTransactionID, NewStructuredLogger, ConnectionClose)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Post("/upload", api.uploadClaim)
			r.Get("/", api.listClaims)
			r.Route("/{claimID}", func(r chi.Router) {
				r.Get("/", api.getClaim)
				r.Post("/adjudicate", api.adjudicateClaim)
				r.Patch("/status", api.updateClaimStatus)
				r.Delete("/", api.deleteClaim)
			})
		})
		r.Route("/remittance/{claimID}", func(r chi.Router) {
			r.Get("/", api.getRemittance)
			r.Get("/835", api.getRemittance835)
		})
	})

	r.Get("/_health", api.healthCheck)
	r.Get("/_version", api.getVersion)

	return r
}
