package handler

import (
	"context"
	"net/http"
	"strings"

	apfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExceptionQueue lists and resolves match exceptions
type ExceptionQueue interface {
	List(ctx context.Context, actor finance.Actor, filter finance.ExceptionFilter) (*shared.Paginated[finance.MatchException], error)
	Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchException, error)
	Resolve(ctx context.Context, id uuid.UUID, input apfinance.ResolveExceptionInput, actor finance.Actor, expectedVersion int) (*finance.MatchException, error)
}

// ExceptionHandler handles the match exception queue endpoints
type ExceptionHandler struct {
	BaseHandler
	exceptions ExceptionQueue
}

// NewExceptionHandler creates a new ExceptionHandler
func NewExceptionHandler(exceptions ExceptionQueue) *ExceptionHandler {
	return &ExceptionHandler{exceptions: exceptions}
}

// List godoc
// @Summary      List match exceptions
// @Description  Lists the exception queue. Without a status filter only open exceptions are returned.
// @Tags         ap-exceptions
// @Produce      json
// @Param        page           query int    false "Page number"
// @Param        page_size      query int    false "Page size (max 100)"
// @Param        order_by       query string false "created_at, updated_at, severity or exception_code"
// @Param        order_dir      query string false "asc or desc"
// @Param        severity       query string false "high, medium or low"
// @Param        status         query string false "open or resolved"
// @Param        vendor_id      query string false "Vendor ID"
// @Param        exception_code query string false "Exception code"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /ap/exceptions [get]
func (h *ExceptionHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListExceptionsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := finance.ExceptionFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
		},
	}
	if q.Severity != "" {
		severity := finance.ExceptionSeverity(strings.ToLower(q.Severity))
		filter.Severity = &severity
	}
	if q.Status != "" {
		status := finance.ResolutionStatus(q.Status)
		filter.ResolutionStatus = &status
	}
	if q.VendorID != "" {
		vendorID, err := uuid.Parse(q.VendorID)
		if err != nil {
			h.BadRequest(c, "Invalid vendor_id")
			return
		}
		filter.VendorID = &vendorID
	}
	if q.ExceptionCode != "" {
		code := finance.ExceptionCode(strings.ToLower(q.ExceptionCode))
		filter.ExceptionCode = &code
	}

	page, err := h.exceptions.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page, NewMatchExceptionResponse))
}

// Get godoc
// @Summary      Get a match exception
// @Tags         ap-exceptions
// @Produce      json
// @Param        id path string true "Exception ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /ap/exceptions/{id} [get]
func (h *ExceptionHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	exception, err := h.exceptions.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewMatchExceptionResponse(exception))
}

// Resolve godoc
// @Summary      Resolve a match exception
// @Description  Closes an open exception with one of invoice_corrected, po_amended, receipt_posted, invoice_rejected or duplicate_closed
// @Tags         ap-exceptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Exception ID"
// @Param        request body ResolveExceptionRequest true "Resolution"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /ap/exceptions/{id}/resolve [post]
func (h *ExceptionHandler) Resolve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ResolveExceptionRequest
	if !h.bind(c, &req) {
		return
	}

	input := apfinance.ResolveExceptionInput{Action: req.Action, Note: req.Note}
	exception, err := h.exceptions.Resolve(c.Request.Context(), id, input, actor, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewMatchExceptionResponse(exception))
}
