package httpx

import (
	"errors"
	"net/http"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

// RespondError maps store errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConstraintViolation):
		Problem(w, http.StatusConflict, "Constraint Violation", err.Error())
	case errors.Is(err, shared.ErrRestrictedDelete):
		Problem(w, http.StatusConflict, "Restricted Delete", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrPartialFailure):
		Problem(w, http.StatusInternalServerError, "Partial Failure", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
