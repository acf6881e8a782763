package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"teamvault/internal/domain"
	"teamvault/internal/service"

	"github.com/go-chi/chi/v5"
)

// FileHandler holds the dependencies for file-related HTTP handlers.
type FileHandler struct {
	service   service.VaultService
	maxUpload int64
}

// NewFileHandler creates a new FileHandler with its dependencies.
func NewFileHandler(svc service.VaultService, maxUpload int64) *FileHandler {
	return &FileHandler{service: svc, maxUpload: maxUpload}
}

// --- Request/Response Structs ---

type shareRequest struct {
	UserID     string `json:"userId"`
	Permission string `json:"permission"`
}

// --- Handlers ---

// List handles the GET /vault/files endpoint. It returns item metadata only;
// content stays encrypted at rest and is never decrypted for listings.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	query := r.URL.Query()
	folderID := query.Get("folderId")
	sortBy := query.Get("sortBy")
	if sortBy == "" {
		sortBy = "date_desc"
	}
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
	if limit <= 0 {
		limit = 50 // Default limit
	}

	items, err := h.service.List(r.Context(), p, folderID, sortBy, limit)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	// Ensure we return an empty array `[]` instead of `null` if no items are found.
	if items == nil {
		items = []*domain.VaultItem{}
	}

	writeJSON(w, http.StatusOK, items)
}

// Upload handles the POST /vault/upload endpoint (multipart: `file`, optional
// `folderId`). The raw bytes are read fully into memory and handed to the
// pipeline, which encrypts before anything is stored.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20) // form overhead headroom
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, NewBadRequestError("Failed to parse multipart form: "+err.Error()))
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		writeError(w, NewBadRequestError("File upload is required: 'file' field not found"))
		return
	}
	defer file.Close()

	filename := handler.Filename
	if len(filename) == 0 || len(filename) >= 256 {
		writeError(w, NewBadRequestError("Filename is required and must be less than 256 characters"))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, NewBadRequestError("Failed to read uploaded file"))
		return
	}

	mimeType := handler.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	in := service.UploadInput{
		FileName: filename,
		MimeType: mimeType,
		FolderID: r.FormValue("folderId"),
		Content:  content,
		Metadata: domain.ItemMetadata{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
		},
		IP: clientIP(r),
	}

	item, err := h.service.Upload(r.Context(), p, in)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Download handles the GET /vault/files/{id} endpoint. It streams the
// decrypted bytes with the stored MIME type; the caller must be the owner or
// hold a read grant.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	plaintext, item, err := h.service.Download(r.Context(), p, chi.URLParam(r, "id"), clientIP(r))
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	w.Header().Set("Content-Type", item.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+item.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(plaintext)))
	w.WriteHeader(http.StatusOK)
	w.Write(plaintext)
}

// Delete handles the DELETE /vault/files/{id} endpoint (owner only, soft delete).
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "id"), clientIP(r)); err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Share handles the POST /vault/files/{id}/share endpoint (owner only).
// Re-sharing with the same user updates that user's permission in place.
func (h *FileHandler) Share(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewBadRequestError("Invalid request body"))
		return
	}

	err := h.service.Share(r.Context(), p, chi.URLParam(r, "id"), req.UserID,
		domain.Permission(req.Permission), clientIP(r))
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AccessLog handles the GET /vault/files/{id}/access-log endpoint (owner
// only). It works for soft-deleted items too: the audit trail is never destroyed.
func (h *FileHandler) AccessLog(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	entries, err := h.service.GetAccessLog(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	if entries == nil {
		entries = []domain.AccessEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
