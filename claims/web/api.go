package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/domjweb/FastVal/claims/constants"
	"github.com/domjweb/FastVal/claims/models"
	"github.com/domjweb/FastVal/claims/service"
)

// maxUploadBytes caps an 837 upload at 10 MB.
const maxUploadBytes = 10 << 20

type API struct {
	service service.Service
	health  func() error
}

// NewAPI wires the handlers to the claim service. The health func reports
// dependency readiness (database ping); nil means always healthy.
func NewAPI(svc service.Service, health func() error) *API {
	return &API{service: svc, health: health}
}

type claimResponse struct {
	Claim *models.Claim `json:"claim"`
}

type claimListResponse struct {
	Claims []*models.Claim `json:"claims"`
	Total  int             `json:"total"`
}

func (a *API) uploadClaim(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: "multipart form field 'file' is required"})
		return
	}
	defer file.Close()

	// The extension is a hint only; content is still fully parsed.
	if !allowedExtension(header.Filename) {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Error: "unsupported file type, expected one of " + strings.Join(constants.ClaimFileExtensions, ", "),
		})
		return
	}

	claim, err := a.service.IngestClaim(r.Context(), file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, claimResponse{Claim: claim})
}

func (a *API) listClaims(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	claims, total, err := a.service.ListClaims(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if claims == nil {
		claims = []*models.Claim{}
	}

	render.JSON(w, r, claimListResponse{Claims: claims, Total: total})
}

func (a *API) getClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := a.service.GetClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, claimResponse{Claim: claim})
}

func (a *API) adjudicateClaim(w http.ResponseWriter, r *http.Request) {
	var decision service.Decision
	if err := render.DecodeJSON(r.Body, &decision); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: "malformed adjudication request: " + err.Error()})
		return
	}

	claim, err := a.service.Adjudicate(r.Context(), chi.URLParam(r, "claimID"), decision)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, claimResponse{Claim: claim})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) updateClaimStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: "malformed status request: " + err.Error()})
		return
	}

	target, err := models.ParseClaimStatus(body.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	claim, err := a.service.UpdateStatus(r.Context(), chi.URLParam(r, "claimID"), target)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, claimResponse{Claim: claim})
}

func (a *API) deleteClaim(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteClaim(r.Context(), chi.URLParam(r, "claimID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getRemittance(w http.ResponseWriter, r *http.Request) {
	advice, err := a.service.GenerateRemittance(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, advice)
}

func (a *API) getRemittance835(w http.ResponseWriter, r *http.Request) {
	document, err := a.service.GetRemittance835(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(document))
}

func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok"}
	if a.health != nil {
		if err := a.health(); err != nil {
			status["database"] = "degraded"
			render.Status(r, http.StatusServiceUnavailable)
		}
	}
	render.JSON(w, r, status)
}

func (a *API) getVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": constants.Version})
}

func allowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range constants.ClaimFileExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func listFilterFromQuery(r *http.Request) (models.ListFilter, error) {
	var filter models.ListFilter

	if status := r.URL.Query().Get("status"); status != "" {
		parsed, err := models.ParseClaimStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = parsed
	}
	filter.PatientID = r.URL.Query().Get("patient_id")
	filter.ProviderID = r.URL.Query().Get("provider_id")

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	filter.Skip, err = queryInt(r, "skip")
	return filter, err
}

func queryInt(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("query parameter %s must be a non-negative integer", key)
	}
	return parsed, nil
}
