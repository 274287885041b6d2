package finance

import (
	"context"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatchService evaluates submitted invoices against their purchase orders and receipts
type MatchService struct {
	invoices       finance.InvoiceReader
	purchaseOrders finance.PurchaseOrderReader
	goodsReceipts  finance.GoodsReceiptReader
	policies       finance.MatchPolicyProvider
	matchRepo      finance.MatchResultRepository
	txScope        TransactionScope
	matcher        *finance.Matcher
	metrics        *telemetry.ControlMetrics
	events         eventDispatcher
	logger         *zap.Logger
}

// MatchServiceConfig holds the collaborators of MatchService
type MatchServiceConfig struct {
	Invoices       finance.InvoiceReader
	PurchaseOrders finance.PurchaseOrderReader
	GoodsReceipts  finance.GoodsReceiptReader
	Policies       finance.MatchPolicyProvider
	MatchRepo      finance.MatchResultRepository
	TxScope        TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewMatchService creates a new MatchService
func NewMatchService(cfg MatchServiceConfig) *MatchService {
	logger := loggerOrNop(cfg.Logger)
	return &MatchService{
		invoices:       cfg.Invoices,
		purchaseOrders: cfg.PurchaseOrders,
		goodsReceipts:  cfg.GoodsReceipts,
		policies:       cfg.Policies,
		matchRepo:      cfg.MatchRepo,
		txScope:        cfg.TxScope,
		matcher:        finance.NewMatcher(),
		metrics:        cfg.Metrics,
		events:         eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:         logger,
	}
}

// Evaluate matches a submitted invoice under its vendor's policy and records the result.
// The match result, its exception entry and the audit event are written in one transaction.
func (s *MatchService) Evaluate(ctx context.Context, invoiceID uuid.UUID, actor finance.Actor) (*finance.MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "match", "evaluate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoice, err := s.invoices.FindForMatch(ctx, actor.TenantID, invoiceID)
	if err != nil {
		if isNotFound(err) {
			err = finance.ErrInvoiceNotFoundForMatch.WithDetails("invoice_id", invoiceID.String())
			telemetry.RecordError(span, err)
			return nil, err
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if !invoice.IsSubmitted() {
		err := finance.ErrInvoiceNotSubmitted.WithDetails("invoice_id", invoiceID.String(), "status", invoice.Status)
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Fast-fail only; the unique index on (tenant_id, invoice_id) is authoritative.
	exists, err := s.matchRepo.ExistsForInvoice(ctx, actor.TenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check existing match: %w", err)
	}
	if exists {
		err := finance.NewMatchAlreadyExistsError(invoiceID)
		telemetry.RecordError(span, err)
		return nil, err
	}

	policy, err := s.policies.PolicyForVendor(ctx, actor.TenantID, invoice.VendorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if policy == nil || !policy.Mode.IsValid() {
		err := finance.ErrMatchModeNotConfigured.WithDetails("vendor_id", invoice.VendorID.String())
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrMatchMode, policy.Mode.String())

	po, grns, err := s.loadReferences(ctx, actor.TenantID, invoice, policy.Mode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outcome := s.matcher.Evaluate(invoice, po, grns, *policy)
	result, err := finance.NewMatchResult(invoice, outcome, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var exception *finance.MatchException
	if result.IsException() {
		exception, err = finance.NewMatchException(result)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.MatchResults().Create(ctx, result); err != nil {
			return err
		}
		if exception != nil {
			if err := repos.MatchExceptions().Create(ctx, exception); err != nil {
				return fmt.Errorf("failed to open match exception: %w", err)
			}
		}
		return repos.Audit().Record(ctx, finance.NewAuditEvent(
			finance.AuditMatchEvaluated,
			actor,
			finance.AuditResourceMatch,
			result.ID,
			matchAuditPayload(result),
		))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMatchID, result.ID.String(),
		telemetry.SpanAttrMatchStatus, result.Status.String(),
	)
	s.metrics.RecordMatchEvaluated(ctx, result.MatchMode.String(), result.Status.String(), exceptionCodeLabel(result.ExceptionCode))

	s.logger.Info("Invoice match evaluated",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("match_id", result.ID.String()),
		zap.String("match_mode", result.MatchMode.String()),
		zap.String("status", result.Status.String()),
		zap.String("exception_code", exceptionCodeLabel(result.ExceptionCode)))

	s.events.dispatch(ctx, result.PullDomainEvents()...)

	return result, nil
}

// loadReferences fetches the PO and receipts the match mode needs.
// A PO that cannot be found is passed to the matcher as nil so it reports missing_po.
func (s *MatchService) loadReferences(
	ctx context.Context,
	tenantID uuid.UUID,
	invoice *finance.InvoiceForMatch,
	mode finance.MatchMode,
) (*finance.PurchaseOrderData, []finance.GoodsReceiptData, error) {
	if !mode.RequiresPurchaseOrder() || !invoice.HasPurchaseOrder() {
		return nil, nil, nil
	}

	po, err := s.purchaseOrders.FindByNumber(ctx, tenantID, *invoice.PONumber)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load purchase order: %w", err)
	}

	if !mode.RequiresGoodsReceipt() {
		return po, nil, nil
	}
	grns, err := s.goodsReceipts.FindByPONumber(ctx, tenantID, po.PONumber)
	if err != nil && !isNotFound(err) {
		return nil, nil, fmt.Errorf("failed to load goods receipts: %w", err)
	}
	return po, grns, nil
}

// GetByID returns a match result for the actor's tenant
func (s *MatchService) GetByID(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "match", "get")
	defer span.End()

	result, err := s.matchRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		if isNotFound(err) {
			return nil, finance.ErrMatchResultNotFound.WithDetails("match_id", id.String())
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return result, nil
}

// GetByInvoice returns the match result recorded for an invoice
func (s *MatchService) GetByInvoice(ctx context.Context, actor finance.Actor, invoiceID uuid.UUID) (*finance.MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "match", "get_by_invoice")
	defer span.End()

	result, err := s.matchRepo.FindByInvoice(ctx, actor.TenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		if isNotFound(err) {
			return nil, finance.ErrMatchResultNotFound.WithDetails("invoice_id", invoiceID.String())
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return result, nil
}

func matchAuditPayload(result *finance.MatchResult) map[string]any {
	payload := map[string]any{
		"invoice_id":       result.InvoiceID.String(),
		"vendor_id":        result.VendorID.String(),
		"match_mode":       result.MatchMode.String(),
		"outcome":          result.Status.String(),
		"within_tolerance": result.WithinTolerance,
	}
	if result.ExceptionCode != nil {
		payload["exception_code"] = result.ExceptionCode.String()
	}
	if len(result.Detail.Codes) > 1 {
		codes := make([]string, 0, len(result.Detail.Codes))
		for _, code := range result.Detail.Codes {
			codes = append(codes, code.String())
		}
		payload["all_codes"] = codes
	}
	return payload
}

func exceptionCodeLabel(code *finance.ExceptionCode) string {
	if code == nil {
		return ""
	}
	return code.String()
}
