package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"teamvault/internal/service"
)

// PinHandler holds the dependencies for PIN-gate HTTP handlers.
type PinHandler struct {
	service service.PinService
}

// NewPinHandler creates a new PinHandler with its dependencies.
func NewPinHandler(svc service.PinService) *PinHandler {
	return &PinHandler{service: svc}
}

// --- Request/Response Structs with Validation ---

type setPinRequest struct {
	Pin string `json:"pin"`
}

func (r *setPinRequest) Validate() error {
	return validatePin(r.Pin)
}

type verifyPinRequest struct {
	Pin string `json:"pin"`
}

type updatePinRequest struct {
	OldPin string `json:"oldPin"`
	NewPin string `json:"newPin"`
}

func (r *updatePinRequest) Validate() error {
	if r.OldPin == "" {
		return errors.New("oldPin is required")
	}
	return validatePin(r.NewPin)
}

// validatePin enforces the PIN shape: 4 to 12 digits.
func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 12 {
		return errors.New("pin must be between 4 and 12 digits")
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return errors.New("pin must contain digits only")
		}
	}
	return nil
}

// --- Handlers ---

// HasPin handles the GET /vault/has-pin endpoint.
func (h *PinHandler) HasPin(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	hasPin, err := h.service.HasPin(r.Context(), p.UserID)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"hasPin": hasPin})
}

// SetPin handles the POST /vault/set-pin endpoint.
func (h *PinHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	var req setPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewBadRequestError("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, NewBadRequestError(err.Error()))
		return
	}

	if err := h.service.SetPin(r.Context(), p.UserID, req.Pin); err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// VerifyPin handles the POST /vault/verify-pin endpoint. It only ever
// discloses a boolean: neither the stored hash nor the reason for a mismatch
// leaves the server.
func (h *PinHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	var req verifyPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewBadRequestError("Invalid request body"))
		return
	}

	valid, err := h.service.VerifyPin(r.Context(), p.UserID, req.Pin)
	if err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// UpdatePin handles the POST /vault/update-pin endpoint.
func (h *PinHandler) UpdatePin(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, NewUnauthorizedError("User not found in token"))
		return
	}

	var req updatePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewBadRequestError("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, NewBadRequestError(err.Error()))
		return
	}

	if err := h.service.UpdatePin(r.Context(), p.UserID, req.OldPin, req.NewPin); err != nil {
		writeError(w, FromServiceError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
