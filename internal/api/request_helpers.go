package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okeefe/recite-api/internal/api/shared"
)

// getPathUUID extracts a UUID from the URL path parameters. It parses and
// validates the UUID, writing a 400 response and returning false when the
// parameter is missing or malformed.
func getPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, bool) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		log.Warn("missing path parameter", slog.String("param_name", paramName))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+paramName+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		log.Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", pathParam))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName+" format")
		return uuid.Nil, false
	}

	return id, true
}

// decodeAndValidate decodes the request body into v and runs struct
// validation on it. On failure it writes the error response and returns
// false; handlers bail out without touching any service.
func decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	v interface{},
	log *slog.Logger,
) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		log.Warn("validation error", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}

	return true
}
