package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter builds the vault's HTTP router. Every /vault route sits behind
// bearer-token authentication; the PIN endpoints gate the client's vault
// screens but grant no server-side authority of their own.
func NewRouter(
	auth *AuthMiddleware,
	pinHandler *PinHandler,
	folderHandler *FolderHandler,
	fileHandler *FileHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/vault", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		// --- PIN Gate ---
		r.Get("/has-pin", pinHandler.HasPin)
		r.Post("/set-pin", pinHandler.SetPin)
		r.Post("/verify-pin", pinHandler.VerifyPin)
		r.Post("/update-pin", pinHandler.UpdatePin)

		// --- Folders ---
		r.Post("/folders", folderHandler.Create)
		r.Get("/folders", folderHandler.List)
		r.Delete("/folders/{id}", folderHandler.Delete)

		// --- Files ---
		r.Post("/upload", fileHandler.Upload)
		r.Get("/files", fileHandler.List)
		r.Get("/files/{id}", fileHandler.Download)
		r.Delete("/files/{id}", fileHandler.Delete)
		r.Post("/files/{id}/share", fileHandler.Share)
		r.Get("/files/{id}/access-log", fileHandler.AccessLog)
	})

	return r
}
