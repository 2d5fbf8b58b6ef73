package attendance

import (
	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

// Attendance domain errors
var (
	ErrClockSkew = apperror.Validation("CLOCK_SKEW", "timestamp is too far in the future")
	ErrInvalidEventType = apperror.Validation("INVALID_EVENT_TYPE", "type must be CLOCK_IN or CLOCK_OUT")
	ErrInvalidRange     = apperror.Validation("INVALID_RANGE", "from must not be after to")
)
