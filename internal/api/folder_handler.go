package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"teamvault/internal/domain"
	"teamvault/internal/service"

	"github.com/go-chi/chi/v5"
)

// FolderHandler holds the dependencies for folder-related HTTP handlers.
type FolderHandler struct {
	service service.FolderService
}

// NewFolderHandler creates a new FolderHandler with its dependencies.
func NewFolderHandler(svc service.FolderService) *FolderHandler {
	return &FolderHandler{service: svc}
}

// --- Request/Response Structs with Validation ---

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent"` // The ID of the parent folder; empty means root.
}

// Validate checks the fields of the createFolderRequest struct.
func (r *createFolderRequest) Validate() error {
	if len(r.Name) < 1 || len(r.Name) > 256 {
		return errors.New("folder name must be between 1 and 256 characters")
	}
	// The parent is optional and defaults to the root, so no further
	// validation is needed here.
	return nil
}

// --- Handlers ---

// List handles the GET /vault/folders endpoint. It returns the direct
// children of the `parent` query parameter, or the root level when omitted.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	query := r.URL.Query()
	parent := query.Get("parent")
	sortBy := query.Get("sortBy")
	if sortBy == "" {
		sortBy = "date_desc" // Default sort order
	}

	folders, err := h.service.ListFolders(r.Context(), p, parent, sortBy)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	// If no folders are found, return an empty array instead of null.
	if folders == nil {
		folders = []*domain.Folder{}
	}

	writeJSON(w, http.StatusOK, folders)
}

// Create handles the POST /vault/folders endpoint.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewBadRequestError("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, NewBadRequestError(err.Error()))
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), p, req.Name, req.ParentID)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

// Delete handles the DELETE /vault/folders/{id} endpoint. Deleting a
// non-empty folder is rejected.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	if err := h.service.DeleteFolder(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
