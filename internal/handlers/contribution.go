package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/pagination"
	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/types"
)

// ContributionHandler provides the contribution lifecycle endpoints.
type ContributionHandler struct {
	contributionService *services.ContributionService
	logger              *zap.Logger
}

func NewContributionHandler(contributionService *services.ContributionService, logger *zap.Logger) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService, logger: logger}
}

// ContributionRouter registers contribution routes. The caller mounts it
// behind auth; per-route role checks happen here.
func (h *ContributionHandler) ContributionRouter(r chi.Router) {
	r.With(RequireRole(types.RoleStudent)).Post("/", h.Create)
	r.With(RequireRole(types.RoleStudent)).Get("/mine", h.ListMine)
	r.With(RequireRole(types.RoleMarketingCoordinator)).Get("/faculty", h.ListFaculty)
	r.With(RequireRole(types.RoleGuest)).Get("/selected", h.ListSelected)
	r.With(RequireRole(types.RoleMarketingManager, types.RoleAdmin)).Get("/", h.ListAll)

	r.Get("/{id}", h.Get)
	r.With(RequireRole(types.RoleStudent)).Put("/{id}", h.Update)
	r.With(RequireRole(types.RoleMarketingCoordinator)).Patch("/{id}/status", h.UpdateStatus)
	r.With(RequireRole(types.RoleStudent, types.RoleMarketingCoordinator)).Post("/{id}/comments", h.AddComment)
	r.Post("/{id}/view", h.RecordView)
}

// Create submits a new contribution.
func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ContributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	detail, err := h.contributionService.Create(r.Context(), user, req.Title, req.Description, toAssetInputs(req.Assets))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// Get returns one contribution with assets and comments. An unknown id
// serves a null body rather than a 404.
func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	detail, err := h.contributionService.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update edits a pending contribution owned by the caller.
func (h *ContributionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ContributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	detail, err := h.contributionService.Update(r.Context(), user, chi.URLParam(r, "id"), req.Title, req.Description, toAssetInputs(req.Assets))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateStatus selects or rejects a pending contribution.
func (h *ContributionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	detail, err := h.contributionService.UpdateStatus(r.Context(), user, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// AddComment appends to the feedback thread.
func (h *ContributionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	comment, err := h.contributionService.AddComment(r.Context(), user, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// RecordView bumps the view counter.
func (h *ContributionHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	count, err := h.contributionService.RecordView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"view_count": count})
}

// ListMine pages through the student's own contributions, optionally scoped
// to one academic year.
func (h *ContributionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	academicYearID := r.URL.Query().Get("academicYearId")
	h.listWith(w, r, func(user types.User, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
		return h.contributionService.ListMine(r.Context(), user, academicYearID, cursor, limit, order)
	})
}

// ListFaculty pages through the coordinator's faculty contributions.
func (h *ContributionHandler) ListFaculty(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	h.listWith(w, r, func(user types.User, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
		return h.contributionService.ListFaculty(r.Context(), user, status, cursor, limit, order)
	})
}

// ListSelected pages through the guest's faculty's selected contributions.
func (h *ContributionHandler) ListSelected(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(user types.User, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
		return h.contributionService.ListSelectedForGuest(r.Context(), user, cursor, limit, order)
	})
}

// ListAll pages through every contribution.
func (h *ContributionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	h.listWith(w, r, func(_ types.User, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
		return h.contributionService.ListAll(r.Context(), status, cursor, limit, order)
	})
}

func (h *ContributionHandler) listWith(w http.ResponseWriter, r *http.Request, list func(types.User, string, int, string) (pagination.Page[types.Contribution], error)) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	page, err := list(user, query.Get("cursor"), limit, query.Get("order"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type AssetRequest struct {
	Type     string `json:"type"`
	FilePath string `json:"file_path"`
}

type ContributionRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Assets      []AssetRequest `json:"assets"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

func toAssetInputs(assets []AssetRequest) []services.AssetInput {
	if assets == nil {
		return nil
	}
	inputs := make([]services.AssetInput, len(assets))
	for i, asset := range assets {
		inputs[i] = services.AssetInput{Type: asset.Type, FilePath: asset.FilePath}
	}
	return inputs
}
