package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/workforce-core/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-core/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	AppendEvent(w http.ResponseWriter, r *http.Request)
	ListIntervals(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// AppendEvent implements AttendanceHandler.
func (h *attendanceHandlerImpl) AppendEvent(w http.ResponseWriter, r *http.Request) {
	var req attendance.AppendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	event, err := h.attendanceService.Append(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance event recorded", attendance.NewEventResponse(event))
}

// ListIntervals implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListIntervals(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	from, to, err := rangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	intervals, err := h.attendanceService.DeriveWorkedIntervals(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]attendance.IntervalResponse, 0)
	for interval := range intervals {
		result = append(result, attendance.NewIntervalResponse(interval))
	}

	response.Success(w, result)
}

// GetSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	from, to, err := rangeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.attendanceService.Summarize(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewSummaryResponse(summary))
}
