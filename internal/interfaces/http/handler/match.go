package handler

import (
	"context"

	apfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatchEvaluator evaluates and reads match results
type MatchEvaluator interface {
	Evaluate(ctx context.Context, invoiceID uuid.UUID, actor finance.Actor) (*finance.MatchResult, error)
	GetByID(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchResult, error)
	GetByInvoice(ctx context.Context, actor finance.Actor, invoiceID uuid.UUID) (*finance.MatchResult, error)
}

// MatchOverrider manually passes exception-status match results
type MatchOverrider interface {
	Override(ctx context.Context, matchID uuid.UUID, input apfinance.OverrideInput, actor finance.Actor, expectedVersion int) (*finance.MatchResult, error)
}

// MatchHandler handles invoice match endpoints
type MatchHandler struct {
	BaseHandler
	matches   MatchEvaluator
	overrides MatchOverrider
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matches MatchEvaluator, overrides MatchOverrider) *MatchHandler {
	return &MatchHandler{matches: matches, overrides: overrides}
}

// Evaluate godoc
// @Summary      Evaluate an invoice match
// @Description  Compares a submitted invoice with its purchase order and goods receipts under the vendor's match mode
// @Tags         ap-matches
// @Accept       json
// @Produce      json
// @Param        request body EvaluateMatchRequest true "Invoice to evaluate"
// @Success      201 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /ap/matches [post]
func (h *MatchHandler) Evaluate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req EvaluateMatchRequest
	if !h.bind(c, &req) {
		return
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice_id")
		return
	}

	result, err := h.matches.Evaluate(c.Request.Context(), invoiceID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewMatchResultResponse(result))
}

// Get godoc
// @Summary      Get a match result
// @Tags         ap-matches
// @Produce      json
// @Param        id path string true "Match result ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /ap/matches/{id} [get]
func (h *MatchHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.matches.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewMatchResultResponse(result))
}

// GetByInvoice godoc
// @Summary      Get the match result of an invoice
// @Tags         ap-matches
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /ap/invoices/{id}/match [get]
func (h *MatchHandler) GetByInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.matches.GetByInvoice(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewMatchResultResponse(result))
}

// Override godoc
// @Summary      Override an exception match
// @Description  Passes an exception-status match with a documented reason. The evaluator cannot override their own match.
// @Tags         ap-matches
// @Accept       json
// @Produce      json
// @Param        id path string true "Match result ID"
// @Param        request body OverrideMatchRequest true "Override reason and expected version"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /ap/matches/{id}/override [post]
func (h *MatchHandler) Override(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req OverrideMatchRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.overrides.Override(c.Request.Context(), id, apfinance.OverrideInput{Reason: req.Reason}, actor, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewMatchResultResponse(result))
}
