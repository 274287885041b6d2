package handler

import (
	"context"
	"strings"
	"time"

	apfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentRegistry creates and reads payments
type PaymentRegistry interface {
	Create(ctx context.Context, input apfinance.CreatePaymentInput, actor finance.Actor, idempotencyKey string) (*finance.Payment, error)
	Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.Payment, error)
}

// PaymentApprover approves payments and lists their approvals
type PaymentApprover interface {
	Approve(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int, comment string) (*finance.Payment, error)
	History(ctx context.Context, actor finance.Actor, paymentID uuid.UUID) ([]finance.PaymentApproval, error)
}

// PaymentExecutor drives the remaining lifecycle steps
type PaymentExecutor interface {
	Submit(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error)
	Execute(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error)
	Complete(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error)
	Fail(ctx context.Context, paymentID uuid.UUID, reason string, actor finance.Actor, expectedVersion int) (*finance.Payment, error)
	Retry(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error)
}

// PaymentHandler handles payment execution endpoints
type PaymentHandler struct {
	BaseHandler
	payments  PaymentRegistry
	approvals PaymentApprover
	execution PaymentExecutor
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentRegistry, approvals PaymentApprover, execution PaymentExecutor) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		approvals: approvals,
		execution: execution,
	}
}

// Create godoc
// @Summary      Create a payment
// @Description  Creates a draft payment. Repeating an Idempotency-Key returns the payment created first.
// @Tags         ap-payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string true "Client-generated idempotency key"
// @Param        request body CreatePaymentRequest true "Payment data"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /ap/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if !h.bind(c, &req) {
		return
	}

	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor_id")
		return
	}
	paymentDate, err := time.Parse(paymentDateLayout, req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment_date: expected YYYY-MM-DD")
		return
	}
	input := apfinance.CreatePaymentInput{
		VendorID:    vendorID,
		VendorName:  req.VendorName,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PaymentDate: paymentDate,
		Memo:        req.Memo,
	}
	if req.SourceDocumentID != nil && *req.SourceDocumentID != "" {
		docID, err := uuid.Parse(*req.SourceDocumentID)
		if err != nil {
			h.BadRequest(c, "Invalid source_document_id")
			return
		}
		input.SourceDocumentID = &docID
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	payment, err := h.payments.Create(c.Request.Context(), input, actor, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewPaymentResponse(payment))
}

// Get godoc
// @Summary      Get a payment
// @Tags         ap-payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /ap/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	payment, err := h.payments.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewPaymentResponse(payment))
}

// Approvals godoc
// @Summary      List payment approvals
// @Tags         ap-payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /ap/payments/{id}/approvals [get]
func (h *PaymentHandler) Approvals(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	approvals, err := h.approvals.History(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]PaymentApprovalResponse, 0, len(approvals))
	for i := range approvals {
		items = append(items, NewPaymentApprovalResponse(&approvals[i]))
	}
	h.Success(c, items)
}

// Approve godoc
// @Summary      Approve a payment
// @Description  Approves a pending_approval payment. The creator cannot approve their own payment.
// @Tags         ap-payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body ApprovePaymentRequest true "Expected version and optional comment"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /ap/payments/{id}/approve [post]
func (h *PaymentHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ApprovePaymentRequest
	if !h.bind(c, &req) {
		return
	}

	payment, err := h.approvals.Approve(c.Request.Context(), id, actor, req.ExpectedVersion, req.Comment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewPaymentResponse(payment))
}

// Fail godoc
// @Summary      Fail a processing payment
// @Tags         ap-payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body FailPaymentRequest true "Expected version and failure reason"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /ap/payments/{id}/fail [post]
func (h *PaymentHandler) Fail(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req FailPaymentRequest
	if !h.bind(c, &req) {
		return
	}

	payment, err := h.execution.Fail(c.Request.Context(), id, req.Reason, actor, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewPaymentResponse(payment))
}

// transitionFunc is one version-checked lifecycle step
type transitionFunc func(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error)

// transition builds a handler for a lifecycle step whose body is only the expected version
func (h *PaymentHandler) transition(step transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.actor(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		var req PaymentTransitionRequest
		if !h.bind(c, &req) {
			return
		}

		payment, err := step(c.Request.Context(), id, actor, req.ExpectedVersion)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, NewPaymentResponse(payment))
	}
}

// Submit godoc
// @Summary      Submit a draft payment for approval
// @Tags         ap-payments
// @Param        id path string true "Payment ID"
// @Param        request body PaymentTransitionRequest true "Expected version"
// @Success      200 {object} dto.Response
// @Router       /ap/payments/{id}/submit [post]
func (h *PaymentHandler) Submit() gin.HandlerFunc { return h.transition(h.execution.Submit) }

// Execute godoc
// @Summary      Start processing an approved payment
// @Tags         ap-payments
// @Param        id path string true "Payment ID"
// @Param        request body PaymentTransitionRequest true "Expected version"
// @Success      200 {object} dto.Response
// @Router       /ap/payments/{id}/execute [post]
func (h *PaymentHandler) Execute() gin.HandlerFunc { return h.transition(h.execution.Execute) }

// Complete godoc
// @Summary      Complete a processing payment
// @Description  Completes the payment and posts it to the general ledger. A posting failure returns 502 with the completed payment.
// @Tags         ap-payments
// @Param        id path string true "Payment ID"
// @Param        request body PaymentTransitionRequest true "Expected version"
// @Success      200 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /ap/payments/{id}/complete [post]
func (h *PaymentHandler) Complete() gin.HandlerFunc { return h.transition(h.execution.Complete) }

// Retry godoc
// @Summary      Return a failed payment to approval
// @Tags         ap-payments
// @Param        id path string true "Payment ID"
// @Param        request body PaymentTransitionRequest true "Expected version"
// @Success      200 {object} dto.Response
// @Router       /ap/payments/{id}/retry [post]
func (h *PaymentHandler) Retry() gin.HandlerFunc { return h.transition(h.execution.Retry) }
