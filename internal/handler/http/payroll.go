package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/workforce-core/internal/domain/payroll"
	"github.com/cmlabs-hris/workforce-core/internal/handler/http/response"
)

type PayrollHandler interface {
	Reconcile(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SetAdjustments(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// Reconcile implements PayrollHandler. Without employee_id every active
// employee is reconciled.
func (h *payrollHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req payroll.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if req.EmployeeID == "" {
		report, err := h.payrollService.ReconcileAll(r.Context(), req.Month, req.Year)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, payroll.NewReconcileReportResponse(report))
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.payrollService.Reconcile(r.Context(), req.EmployeeID, req.Month, req.Year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewPayrollResponse(record))
}

// Get implements PayrollHandler.
func (h *payrollHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, month, year, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.payrollService.Get(r.Context(), employeeID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewPayrollResponse(record))
}

// SetAdjustments implements PayrollHandler.
func (h *payrollHandlerImpl) SetAdjustments(w http.ResponseWriter, r *http.Request) {
	employeeID, month, year, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.SetAdjustmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID, req.Month, req.Year = employeeID, month, year

	record, err := h.payrollService.SetAdjustments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll adjustments updated", payroll.NewPayrollResponse(record))
}

// MarkPaid implements PayrollHandler.
func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	employeeID, month, year, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID, req.Month, req.Year = employeeID, month, year

	record, err := h.payrollService.MarkPaid(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll marked as paid", payroll.NewPayrollResponse(record))
}
