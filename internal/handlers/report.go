package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/types"
)

// ReportHandler provides the manager and coordinator report endpoints plus
// the ZIP export.
type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
		logger:        logger,
	}
}

// ReportRouter registers report routes. The caller mounts it behind auth;
// per-route role checks happen here.
func (h *ReportHandler) ReportRouter(r chi.Router) {
	manager := RequireRole(types.RoleMarketingManager, types.RoleAdmin)
	coordinator := RequireRole(types.RoleMarketingCoordinator)

	r.With(manager).Get("/contributions", h.ContributionsReport)
	r.With(manager).Get("/contributors", h.ContributorsReport)
	r.With(manager).Get("/export", h.ExportSelected)
	r.With(manager).Get("/export/{yearID}", h.ExportSelected)

	r.With(coordinator).Get("/faculty", h.FacultyStats)
	r.With(coordinator).Get("/faculty/yearly", h.YearlyStats)
	r.With(coordinator).Get("/faculty/guests", h.FacultyGuests)
	r.With(coordinator).Get("/faculty/uncommented", h.UncommentedReport)
}

// ContributionsReport returns selected counts by faculty per year.
func (h *ReportHandler) ContributionsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.ContributionsReport(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ContributorsReport returns distinct contributor counts by faculty per year.
func (h *ReportHandler) ContributorsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.ContributorsReport(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportSelected streams the ZIP of a year's selected contributions. Without
// a year id in the path the current academic year is exported.
func (h *ReportHandler) ExportSelected(w http.ResponseWriter, r *http.Request) {
	archive, err := h.exportService.ExportSelected(r.Context(), chi.URLParam(r, "yearID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive.Data)
}

// FacultyStats returns the coordinator's faculty rollup.
func (h *ReportHandler) FacultyStats(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.reportService.FacultyStats(r.Context(), user, r.URL.Query().Get("academicYearId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// FacultyGuests lists the faculty's active guest accounts.
func (h *ReportHandler) FacultyGuests(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	guests, err := h.reportService.FacultyGuests(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, guests)
}

// YearlyStats returns the coordinator's per-year trend.
func (h *ReportHandler) YearlyStats(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.reportService.YearlyStats(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if stats == nil {
		stats = []types.YearlyStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// UncommentedReport returns pending contributions still waiting for a first
// comment.
func (h *ReportHandler) UncommentedReport(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.reportService.UncommentedReport(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
