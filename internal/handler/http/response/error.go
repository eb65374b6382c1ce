package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Ownership is an authorization failure even though the engine raises it
	// as a validation error.
	if errors.Is(err, timetracking.ErrEntryNotOwned) {
		Forbidden(w, err.Error())
		return
	}

	var ttErr *timetracking.Error
	if errors.As(err, &ttErr) {
		switch ttErr.Kind {
		case timetracking.KindValidation:
			Error(w, http.StatusUnprocessableEntity, ttErr.Code, ttErr.Message)
		case timetracking.KindStateConflict:
			Error(w, http.StatusConflict, ttErr.Code, ttErr.Message)
		case timetracking.KindNotFound:
			Error(w, http.StatusNotFound, ttErr.Code, ttErr.Message)
		default:
			InternalServerError(w, "An unexpected error occurred")
		}
		return
	}

	// User domain errors
	switch {
	case errors.Is(err, user.ErrInvalidToken), errors.Is(err, user.ErrPermissionContextAbsent):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions), errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
