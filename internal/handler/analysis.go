package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/codelens/internal/auth"
	"github.com/sakif/codelens/internal/service"
)

// AnalysisHandler owns the analysis endpoints. All of them require an
// authenticated user; reports belong to accounts.
type AnalysisHandler struct {
	svc    *service.AnalysisService
	logger *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc *service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, logger: logger}
}

// analyzeRequest is the body for POST /api/analyses.
type analyzeRequest struct {
	URL string `json:"url"`
}

// HandleAnalyze runs the pipeline on one GitHub file URL.
//
// HTTP: POST /api/analyses
// BODY: {"url": "https://github.com/{owner}/{repo}/blob/{branch}/{path}"}
//
// 201 with the saved report. A URL that isn't a GitHub blob URL is 400; a
// file that can't be fetched is 502.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid analyze JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	report, err := h.svc.Analyze(r.Context(), userID, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// HandleList returns the caller's report history, newest first.
//
// HTTP: GET /api/analyses
func (h *AnalysisHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	reports, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// HandleGetByID returns a single report owned by the caller.
//
// HTTP: GET /api/analyses/{id}
func (h *AnalysisHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	report, err := h.svc.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
