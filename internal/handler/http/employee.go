package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/workforce-core/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// ConfigCache drops cached employee configuration after the HR application
// changes it.
type ConfigCache interface {
	Invalidate(ctx context.Context, employeeID string) error
}

type EmployeeHandler interface {
	InvalidateConfig(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	cache ConfigCache
}

func NewEmployeeHandler(cache ConfigCache) EmployeeHandler {
	return &employeeHandlerImpl{cache: cache}
}

// InvalidateConfig implements EmployeeHandler.
func (h *employeeHandlerImpl) InvalidateConfig(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	if err := h.cache.Invalidate(r.Context(), employeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee config cache invalidated", nil)
}
