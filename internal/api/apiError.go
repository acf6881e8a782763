package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"teamvault/internal/platform/crypto"
	"teamvault/internal/service"
	"teamvault/internal/store"
)

// APIError represents a structured error response to be sent to the client.
// It implements the standard `error` interface. The wire shape is
// {"success": false, "message": "..."}; the HTTP status travels in the header.
type APIError struct {
	// Status is the HTTP status code that corresponds to this error.
	Status int `json:"-"`
	// Success is always false for errors.
	Success bool `json:"success"`
	// Message is the user-friendly error message.
	Message string `json:"message"`
}

// Error implements the error interface, allowing APIError to be used as a standard error.
func (e *APIError) Error() string {
	return e.Message
}

// --- Error Constructors ---

// NewBadRequestError creates an error representing a 400 Bad Request.
// Useful for validation failures or malformed requests.
func NewBadRequestError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// NewUnauthorizedError creates an error representing a 401 Unauthorized.
// Useful when authentication is required and has failed or has not yet been provided.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

// NewForbiddenError creates an error representing a 403 Forbidden.
// Useful when the user is authenticated but not authorized to perform an action.
func NewForbiddenError(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

// NewNotFoundError creates an error representing a 404 Not Found.
func NewNotFoundError(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

// NewConflictError creates an error representing a 409 Conflict.
func NewConflictError(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: message}
}

// NewTooLargeError creates an error representing a 413 Payload Too Large.
func NewTooLargeError(message string) *APIError {
	return &APIError{Status: http.StatusRequestEntityTooLarge, Message: message}
}

// NewTooManyRequestsError creates an error representing a 429 Too Many Requests.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Message: message}
}

// NewInternalServerError creates an error representing a 500 Internal Server Error.
// This should be used for unexpected server-side issues.
func NewInternalServerError() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: "An unexpected error occurred. Please try again later.",
	}
}

// --- Error Translation ---

// FromServiceError translates errors from the service/store layer into
// specific APIError types. This allows the HTTP handlers to be decoupled from
// the underlying store implementation details.
func FromServiceError(err error) *APIError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewNotFoundError("The requested resource could not be found")
	case errors.Is(err, store.ErrConflict):
		return NewConflictError("A conflict occurred with the current state of the resource")
	case errors.Is(err, service.ErrForbidden):
		return NewForbiddenError("You do not have permission to access this item")
	case errors.Is(err, service.ErrInvalidPin):
		return NewBadRequestError("The PIN you entered is incorrect")
	case errors.Is(err, service.ErrPinLocked):
		return NewTooManyRequestsError("Too many PIN attempts. Please wait before retrying")
	case errors.Is(err, service.ErrFolderNotEmpty):
		return NewBadRequestError("The folder is not empty")
	case errors.Is(err, service.ErrTooLarge):
		return NewTooLargeError("The file exceeds the upload size limit")
	case errors.Is(err, service.ErrInvalidShare):
		return NewBadRequestError("Invalid sharing request")
	case errors.Is(err, crypto.ErrDecrypt):
		// Item-scoped: a corrupted or mis-keyed item must not read as a
		// generic outage to the client.
		return &APIError{Status: http.StatusInternalServerError, Message: "The file could not be decrypted"}
	}

	// For any other untranslatable error, we return a generic internal server
	// error to avoid leaking implementation details to the client.
	return NewInternalServerError()
}

// --- Helper Functions ---

// writeJSON is a utility for sending JSON responses with a given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError sends an APIError with its embedded status code.
func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, apiErr)
}
