package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Attribute keys used by the AP control counters.
var (
	AttrMatchMode        = attribute.Key("match_mode")
	AttrMatchStatus      = attribute.Key("match_status")
	AttrExceptionCode    = attribute.Key("exception_code")
	AttrResolutionAction = attribute.Key("resolution_action")
	AttrCurrency         = attribute.Key("currency")
	AttrReplay           = attribute.Key("idempotent_replay")
	AttrFromStatus       = attribute.Key("from_status")
	AttrToStatus         = attribute.Key("to_status")
	AttrResource         = attribute.Key("resource")
)

// ControlMetrics counts the outcomes of the match and payment controls.
// A nil *ControlMetrics is valid and records nothing.
type ControlMetrics struct {
	logger *zap.Logger

	matchEvaluatedTotal    *Counter
	overrideTotal          *Counter
	exceptionResolvedTotal *Counter
	paymentCreatedTotal    *Counter
	paymentTransitionTotal *Counter
	conflictTotal          *Counter
	glPostingFailureTotal  *Counter
}

// ControlMetricsConfig holds configuration for control metrics.
type ControlMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewControlMetrics creates the control counters on the given meter.
func NewControlMetrics(cfg ControlMetricsConfig) (*ControlMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &ControlMetrics{logger: logger}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&cm.matchEvaluatedTotal, "apc_match_evaluated_total", "Match evaluations by mode and outcome", "{matches}"},
		{&cm.overrideTotal, "apc_match_override_total", "Exception matches manually overridden", "{overrides}"},
		{&cm.exceptionResolvedTotal, "apc_exception_resolved_total", "Match exceptions resolved by action", "{exceptions}"},
		{&cm.paymentCreatedTotal, "apc_payment_created_total", "Payment create requests, including idempotent replays", "{payments}"},
		{&cm.paymentTransitionTotal, "apc_payment_transition_total", "Payment lifecycle transitions", "{transitions}"},
		{&cm.conflictTotal, "apc_concurrency_conflict_total", "Writes rejected by optimistic locking", "{conflicts}"},
		{&cm.glPostingFailureTotal, "apc_gl_posting_failure_total", "Completed payments whose GL posting failed", "{payments}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	return cm, nil
}

// RecordMatchEvaluated counts one persisted match result.
func (cm *ControlMetrics) RecordMatchEvaluated(ctx context.Context, mode, status, exceptionCode string) {
	if cm == nil {
		return
	}
	cm.matchEvaluatedTotal.Inc(ctx,
		AttrMatchMode.String(mode),
		AttrMatchStatus.String(status),
		AttrExceptionCode.String(exceptionCode),
	)
}

// RecordOverride counts one applied override, labelled by the exception it cleared.
func (cm *ControlMetrics) RecordOverride(ctx context.Context, exceptionCode string) {
	if cm == nil {
		return
	}
	cm.overrideTotal.Inc(ctx, AttrExceptionCode.String(exceptionCode))
}

func (cm *ControlMetrics) RecordExceptionResolved(ctx context.Context, action string) {
	if cm == nil {
		return
	}
	cm.exceptionResolvedTotal.Inc(ctx, AttrResolutionAction.String(action))
}

func (cm *ControlMetrics) RecordPaymentCreated(ctx context.Context, currency string, replay bool) {
	if cm == nil {
		return
	}
	cm.paymentCreatedTotal.Inc(ctx,
		AttrCurrency.String(currency),
		AttrReplay.Bool(replay),
	)
}

func (cm *ControlMetrics) RecordPaymentTransition(ctx context.Context, from, to string) {
	if cm == nil {
		return
	}
	cm.paymentTransitionTotal.Inc(ctx,
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordConcurrencyConflict counts a stale-version rejection on the named resource.
func (cm *ControlMetrics) RecordConcurrencyConflict(ctx context.Context, resource string) {
	if cm == nil {
		return
	}
	cm.conflictTotal.Inc(ctx, AttrResource.String(resource))
}

func (cm *ControlMetrics) RecordGLPostingFailure(ctx context.Context) {
	if cm == nil {
		return
	}
	cm.glPostingFailureTotal.Inc(ctx)
	cm.logger.Debug("Recorded GL posting failure")
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewControlMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
