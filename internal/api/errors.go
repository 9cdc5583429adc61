package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okeefe/recite-api/internal/api/shared"
	"github.com/okeefe/recite-api/internal/domain"
	"github.com/okeefe/recite-api/internal/domain/srs"
	"github.com/okeefe/recite-api/internal/service/review"
	"github.com/okeefe/recite-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrReviewLogNotFound),
		errors.Is(err, review.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDeckNameExists),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, review.ErrSessionActive),
		errors.Is(err, review.ErrSessionState):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, srs.ErrInvalidDays):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrReviewLogNotFound):
		return "Review log entry not found"

	case errors.Is(err, review.ErrSessionNotFound):
		return "Session not found"

	// Conflict errors
	case errors.Is(err, store.ErrDeckNameExists):
		return "A deck with this name already exists"

	case errors.Is(err, review.ErrSessionActive):
		return "The deck already has an active session"

	case errors.Is(err, review.ErrSessionState):
		return "The session state does not allow this operation"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be between 0 and 3"

	case errors.Is(err, srs.ErrInvalidDays):
		return "Postpone days must be at least 1"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return "Invalid request data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleServiceError maps a service-layer error to an HTTP response: the
// status code comes from MapErrorToStatusCode and the body carries only the
// sanitized message, while the full error goes to the logs. A non-empty
// fallbackMessage replaces the generic message for 5xx responses.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)

	if statusCode == http.StatusInternalServerError && fallbackMessage != "" {
		safeMessage = fallbackMessage
	}

	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'CreateDeckRequest.Name' Error:Field validation for 'Name' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			// Further split to get just the field validation part
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				// Create a cleaner error message
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "gt", "gte":
		return "must be positive"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
