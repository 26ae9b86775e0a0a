package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/types"
)

// AdminHandler provides the admin's user-management endpoints.
type AdminHandler struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *services.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// AdminRouter registers admin routes. The caller mounts it behind auth and
// the admin role check.
func (h *AdminHandler) AdminRouter(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Get("/stats/most-active", h.MostActiveUsers)
	r.Get("/stats/browsers", h.BrowserUsage)
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser creates an account with any role.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), services.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      req.Role,
		FacultyID: req.FacultyID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser changes an account's role, faculty, status or password.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), chi.URLParam(r, "id"), services.UpdateUserParams{
		Role:      req.Role,
		FacultyID: req.FacultyID,
		Status:    req.Status,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// MostActiveUsers returns the top accounts by lifetime logins.
func (h *AdminHandler) MostActiveUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.adminService.MostActiveUsers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// BrowserUsage returns per-browser account counts.
func (h *AdminHandler) BrowserUsage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.BrowserUsage(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if stats == nil {
		stats = []types.BrowserUsage{}
	}
	writeJSON(w, http.StatusOK, stats)
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	FacultyID string `json:"faculty_id"`
}

type UpdateUserRequest struct {
	Role      string `json:"role"`
	FacultyID string `json:"faculty_id"`
	Status    string `json:"status"`
	Password  string `json:"password"`
}
