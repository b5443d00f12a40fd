package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/log"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// respondError maps the service error taxonomy onto HTTP statuses. Malformed
// input and policy violations are 400s, missing records 404s, lifecycle and
// write races 409s.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *customErrors.ParseError
	var adjudicationErr *customErrors.AdjudicationError
	var notFoundErr *customErrors.NotFoundError
	var transitionErr *customErrors.InvalidTransitionError
	var conflictErr *customErrors.ConflictError
	var preconditionErr *customErrors.PreconditionError

	switch {
	case errors.As(err, &parseErr):
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: parseErr.Error(), Reason: parseErr.Reason})
	case errors.As(err, &adjudicationErr):
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: adjudicationErr.Error(), Reason: adjudicationErr.Reason})
	case errors.As(err, &preconditionErr):
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: preconditionErr.Error()})
	case errors.As(err, &notFoundErr):
		writeError(w, r, http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &transitionErr):
		writeError(w, r, http.StatusConflict, ErrorResponse{Error: transitionErr.Error()})
	case errors.As(err, &conflictErr):
		writeError(w, r, http.StatusConflict, ErrorResponse{Error: conflictErr.Error()})
	default:
		log.GetCtxLogger(r.Context()).WithError(err).Error("unhandled error")
		writeError(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
