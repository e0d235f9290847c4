package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfee "github.com/tuition/backend/internal/application/fee"
	"github.com/tuition/backend/internal/interfaces/http/dto"
	"github.com/tuition/backend/internal/interfaces/http/middleware"
)

// FeeHandler serves schedule generation, payments, manual edits and the
// ledger views of one student, plus the portfolio summary.
type FeeHandler struct {
	BaseHandler
	schedules *appfee.ScheduleService
	payments  *appfee.PaymentService
	editor    *appfee.LedgerEditorService
	reports   *appfee.ReportService
	currency  string
}

// NewFeeHandler creates a new FeeHandler
func NewFeeHandler(
	schedules *appfee.ScheduleService,
	payments *appfee.PaymentService,
	editor *appfee.LedgerEditorService,
	reports *appfee.ReportService,
	currency string,
) *FeeHandler {
	return &FeeHandler{
		schedules: schedules,
		payments:  payments,
		editor:    editor,
		reports:   reports,
		currency:  currency,
	}
}

// GenerateSchedule handles POST /students/:id/fee-schedule
//
//	@Summary		Generate the next fee cycle
//	@Tags			fees
//	@Produce		json
//	@Param			id	path		string	true	"Student ID"	format(uuid)
//	@Success		201	{object}	dto.Response{data=appfee.ScheduleResult}
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/students/{id}/fee-schedule [post]
func (h *FeeHandler) GenerateSchedule(c *gin.Context) {
	withInbox(c)
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	result, err := h.schedules.GenerateSchedule(c.Request.Context(), session(c), studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// DeleteCycle handles DELETE /students/:id/fee-cycles/:cycle
func (h *FeeHandler) DeleteCycle(c *gin.Context) {
	withInbox(c)
	var req dto.CycleRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	studentID := uuid.MustParse(req.ID)
	if err := h.schedules.DeleteCycle(c.Request.Context(), session(c), studentID, req.Cycle); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"student_id": studentID, "cycle_number": req.Cycle})
}

// DeleteLedger handles DELETE /students/:id/ledger
func (h *FeeHandler) DeleteLedger(c *gin.Context) {
	withInbox(c)
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	if err := h.schedules.RemoveStudentLedger(c.Request.Context(), session(c), studentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"student_id": studentID})
}

// GetLedger handles GET /students/:id/ledger
func (h *FeeHandler) GetLedger(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	ledger, err := h.reports.StudentLedger(c.Request.Context(), session(c), studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}

// EditLedger handles PUT /students/:id/ledger.
// Edits that failed are listed in the 422 body next to the ones that applied.
//
//	@Summary		Edit paid totals of ledger terms
//	@Tags			fees
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Student ID"	format(uuid)
//	@Param			request	body		dto.EditLedgerRequest	true	"Term edits"
//	@Success		200		{object}	dto.Response{data=appfee.EditTermsResult}
//	@Failure		422		{object}	dto.Response{data=appfee.EditTermsResult}
//	@Security		BearerAuth
//	@Router			/students/{id}/ledger [put]
func (h *FeeHandler) EditLedger(c *gin.Context) {
	withInbox(c)
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	var req dto.EditLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	cmd, err := req.ToCommand(studentID)
	if err != nil {
		h.CommandError(c, err)
		return
	}

	result, err := h.editor.EditTerms(c.Request.Context(), session(c), cmd)
	if err != nil {
		if result == nil {
			h.HandleError(c, err)
			return
		}
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeEditFailed,
			"Some ledger edits could not be applied", middleware.GetRequestID(c))
		resp.Data = result
		h.respond(c, http.StatusUnprocessableEntity, resp)
		return
	}
	h.Success(c, result)
}

// RecordPayment handles POST /students/:id/payments
//
//	@Summary		Record a payment against the open terms
//	@Tags			fees
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string						true	"Student ID"	format(uuid)
//	@Param			Idempotency-Key	header		string						false	"Replay guard"
//	@Param			request			body		dto.RecordPaymentRequest	true	"Payment"
//	@Success		201				{object}	dto.Response{data=appfee.PaymentResult}
//	@Failure		409				{object}	dto.Response
//	@Failure		422				{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/students/{id}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	withInbox(c)
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	cmd, err := req.ToCommand(studentID)
	if err != nil {
		h.CommandError(c, err)
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), session(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListPayments handles GET /students/:id/payments
func (h *FeeHandler) ListPayments(c *gin.Context) {
	studentID, ok := h.studentID(c)
	if !ok {
		return
	}

	records, err := h.payments.ListPayments(c.Request.Context(), session(c), studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// Summary handles GET /fees/summary
//
//	@Summary		Portfolio fee summary
//	@Description	Totals and per-student balances, optionally narrowed to part of the roster
//	@Tags			fees
//	@Produce		json
//	@Param			class_name	query		string	false	"Class name"
//	@Param			board		query		string	false	"Board"
//	@Param			active		query		bool	false	"Active students only"
//	@Param			search		query		string	false	"Student name contains"
//	@Success		200			{object}	dto.Response{data=appfee.SummaryResponse}
//	@Failure		403			{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/fees/summary [get]
func (h *FeeHandler) Summary(c *gin.Context) {
	var req dto.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), session(c), h.currency, req.ToQuery())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
