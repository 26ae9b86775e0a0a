package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/types"
)

// UploadHandler hands out presigned upload URLs.
type UploadHandler struct {
	uploadService *services.UploadService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *services.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, logger: logger}
}

// UploadRouter registers upload routes. Students only; they are the only
// role that attaches files.
func (h *UploadHandler) UploadRouter(r chi.Router) {
	r.With(RequireRole(types.RoleStudent)).Post("/", h.NewUploadURL)
}

// NewUploadURL issues one presigned PUT link.
func (h *UploadHandler) NewUploadURL(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ticket, err := h.uploadService.NewUploadURL(r.Context(), user.ID, req.Type, req.Filename)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

type UploadRequest struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
}
