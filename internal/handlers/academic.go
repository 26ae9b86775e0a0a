package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/types"
)

// AcademicHandler provides faculty, academic-year and terms endpoints.
type AcademicHandler struct {
	academicService *services.AcademicService
	logger          *zap.Logger
}

func NewAcademicHandler(academicService *services.AcademicService, logger *zap.Logger) *AcademicHandler {
	return &AcademicHandler{academicService: academicService, logger: logger}
}

// LookupRouter registers the read-only lookups available to any
// authenticated user.
func (h *AcademicHandler) LookupRouter(r chi.Router) {
	r.Get("/faculties", h.ListFaculties)
	r.Get("/faculties/{id}", h.GetFaculty)
	r.Get("/academic-years", h.ListAcademicYears)
	r.Get("/academic-years/{id}", h.GetAcademicYear)
	r.Get("/terms", h.ListTerms)
	r.Get("/terms/{id}", h.GetTerm)
}

// AdminRouter registers the mutations. The caller mounts it behind the admin
// role check.
func (h *AcademicHandler) AdminRouter(r chi.Router) {
	r.Post("/faculties", h.CreateFaculty)
	r.Put("/faculties/{id}", h.UpdateFaculty)
	r.Delete("/faculties/{id}", h.DeleteFaculty)
	r.Post("/academic-years", h.CreateAcademicYear)
	r.Put("/academic-years/{id}", h.UpdateAcademicYear)
	r.Delete("/academic-years/{id}", h.DeleteAcademicYear)
	r.Post("/terms", h.CreateTerm)
	r.Put("/terms/{id}", h.UpdateTerm)
	r.Delete("/terms/{id}", h.DeleteTerm)
}

func (h *AcademicHandler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.academicService.ListFaculties(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if faculties == nil {
		faculties = []types.Faculty{}
	}
	writeJSON(w, http.StatusOK, faculties)
}

func (h *AcademicHandler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.academicService.GetFaculty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, faculty)
}

func (h *AcademicHandler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req FacultyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	faculty, err := h.academicService.CreateFaculty(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, faculty)
}

func (h *AcademicHandler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req FacultyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	faculty, err := h.academicService.UpdateFaculty(r.Context(), chi.URLParam(r, "id"), req.Name, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, faculty)
}

func (h *AcademicHandler) DeleteFaculty(w http.ResponseWriter, r *http.Request) {
	if err := h.academicService.DeleteFaculty(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AcademicHandler) ListAcademicYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.academicService.ListAcademicYears(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if years == nil {
		years = []types.AcademicYear{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (h *AcademicHandler) GetAcademicYear(w http.ResponseWriter, r *http.Request) {
	year, err := h.academicService.GetAcademicYear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, year)
}

func (h *AcademicHandler) CreateAcademicYear(w http.ResponseWriter, r *http.Request) {
	params, err := academicYearParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	year, err := h.academicService.CreateAcademicYear(r.Context(), params)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, year)
}

func (h *AcademicHandler) UpdateAcademicYear(w http.ResponseWriter, r *http.Request) {
	params, err := academicYearParams(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	year, err := h.academicService.UpdateAcademicYear(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, year)
}

func (h *AcademicHandler) DeleteAcademicYear(w http.ResponseWriter, r *http.Request) {
	if err := h.academicService.DeleteAcademicYear(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AcademicHandler) ListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.academicService.ListTerms(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if terms == nil {
		terms = []types.Term{}
	}
	writeJSON(w, http.StatusOK, terms)
}

func (h *AcademicHandler) GetTerm(w http.ResponseWriter, r *http.Request) {
	term, err := h.academicService.GetTerm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, term)
}

func (h *AcademicHandler) CreateTerm(w http.ResponseWriter, r *http.Request) {
	var req TermRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	term, err := h.academicService.CreateTerm(r.Context(), req.Name, req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, term)
}

func (h *AcademicHandler) UpdateTerm(w http.ResponseWriter, r *http.Request) {
	var req TermRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	term, err := h.academicService.UpdateTerm(r.Context(), chi.URLParam(r, "id"), req.Name, req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, term)
}

func (h *AcademicHandler) DeleteTerm(w http.ResponseWriter, r *http.Request) {
	if err := h.academicService.DeleteTerm(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type FacultyRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type TermRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type AcademicYearRequest struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	NewClosureDate   string `json:"new_closure_date"`
	FinalClosureDate string `json:"final_closure_date"`
}

func academicYearParams(r *http.Request) (services.AcademicYearParams, error) {
	var req AcademicYearRequest
	if err := decodeJSON(r, &req); err != nil {
		return services.AcademicYearParams{}, err
	}

	params := services.AcademicYearParams{}
	for _, field := range []struct {
		value  string
		target *time.Time
	}{
		{req.StartDate, &params.StartDate},
		{req.EndDate, &params.EndDate},
		{req.NewClosureDate, &params.NewClosureDate},
		{req.FinalClosureDate, &params.FinalClosureDate},
	} {
		if field.value == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, field.value)
		if err != nil {
			return services.AcademicYearParams{}, apperr.Validation("dates must be RFC 3339 timestamps")
		}
		*field.target = parsed
	}
	return params, nil
}
