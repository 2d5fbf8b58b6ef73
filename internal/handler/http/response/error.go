package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/workforce-core/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Shift constraint violations carry the conflicting shift or the cap
	var violation *schedule.Violation
	if errors.As(err, &violation) {
		Conflict(w, violation.Code(), violation.Message, violationDetails(violation))
		return
	}

	code := apperror.CodeOf(err)
	switch {
	case errors.Is(err, apperror.ErrValidation):
		Error(w, http.StatusUnprocessableEntity, codeOr(code, "VALIDATION_ERROR"), err.Error(), nil)
	case errors.Is(err, apperror.ErrConstraintViolation):
		Conflict(w, codeOr(code, "CONSTRAINT_VIOLATION"), err.Error(), nil)
	case errors.Is(err, apperror.ErrImmutableState):
		Conflict(w, codeOr(code, "IMMUTABLE_STATE"), err.Error(), nil)
	case errors.Is(err, apperror.ErrInsufficientBalance):
		Error(w, http.StatusBadRequest, codeOr(code, "INSUFFICIENT_BALANCE"), err.Error(), nil)
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrIntegrity):
		slog.Error("data integrity error", "error", err)
		Error(w, http.StatusInternalServerError, "INTEGRITY_ERROR", "Stored data is inconsistent", nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func codeOr(code, fallback string) string {
	if code != "" {
		return code
	}
	return fallback
}

func violationDetails(v *schedule.Violation) map[string]string {
	details := map[string]string{"kind": string(v.Kind)}
	if v.ConflictingShiftID != "" {
		details["conflicting_shift_id"] = v.ConflictingShiftID
	}
	if v.Side != "" {
		details["side"] = string(v.Side)
	}
	if v.Kind == schedule.ViolationWeeklyCap {
		details["weekly_hours"] = strconv.FormatFloat(v.WeeklyHours, 'f', -1, 64)
		details["weekly_cap_hours"] = strconv.Itoa(v.WeeklyCapHours)
	}
	return details
}
