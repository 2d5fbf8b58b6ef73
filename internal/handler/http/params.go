package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

func rangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	q := attendance.RangeQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	return q.Parse()
}

// periodFromPath reads the {employeeID}/{year}/{month} path of payroll routes.
func periodFromPath(r *http.Request) (employeeID string, month, year int, err error) {
	var errs validator.ValidationErrors

	employeeID = chi.URLParam(r, "employeeID")
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	year, convErr := strconv.Atoi(chi.URLParam(r, "year"))
	if convErr != nil {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
	}
	month, convErr = strconv.Atoi(chi.URLParam(r, "month"))
	if convErr != nil {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
	}

	if len(errs) > 0 {
		return "", 0, 0, errs
	}
	return employeeID, month, year, nil
}
