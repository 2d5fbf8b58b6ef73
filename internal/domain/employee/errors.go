package employee

import (
	"fmt"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/apperror"
)

var (
	ErrEmployeeNotFound = fmt.Errorf("employee %w", apperror.ErrNotFound)
	ErrNoDaySchedule    = fmt.Errorf("no schedule for this weekday: %w", apperror.ErrNotFound)
)
