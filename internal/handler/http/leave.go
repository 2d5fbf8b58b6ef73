package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/workforce-core/internal/domain/leave"
	"github.com/cmlabs-hris/workforce-core/internal/handler/http/response"
)

type LeaveHandler interface {
	Adjust(w http.ResponseWriter, r *http.Request)
	ApplyTransition(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveBudgetService
}

func NewLeaveHandler(leaveService leave.LeaveBudgetService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// Adjust implements LeaveHandler.
func (h *leaveHandlerImpl) Adjust(w http.ResponseWriter, r *http.Request) {
	var body leave.AdjustLeaveBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	req, err := body.ToAdjustRequest()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.Adjust(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Applied {
		response.SuccessWithMessage(w, "Adjustment already applied", leave.NewAdjustResponse(result))
		return
	}
	response.Success(w, leave.NewAdjustResponse(result))
}

// ApplyTransition implements LeaveHandler.
func (h *leaveHandlerImpl) ApplyTransition(w http.ResponseWriter, r *http.Request) {
	var body leave.LeaveTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	req, err := body.ToTransitionRequest()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.ApplyTransition(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result == nil {
		response.SuccessWithMessage(w, "Transition does not affect the leave budget", nil)
		return
	}
	response.Success(w, leave.NewAdjustResponse(*result))
}
