package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l, _ := observed()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestWithRequestFields_Merges(t *testing.T) {
	ctx := WithRequestFields(context.Background(), RequestFields{RequestID: "req-1"})
	ctx = WithRequestFields(ctx, RequestFields{TenantID: "t-1", UserID: "u-1"})

	assert.Equal(t, RequestFields{RequestID: "req-1", TenantID: "t-1", UserID: "u-1"}, RequestFieldsFrom(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestForContext_AddsRequestAndTraceFields(t *testing.T) {
	base, logs := observed()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestFields(ctx, RequestFields{RequestID: "req-9", TenantID: "tenant-a"})

	ForContext(ctx, base).Info("evaluated")

	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "tenant-a", fields["tenant_id"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.NotContains(t, fields, "user_id")
}

func TestForContext_NilBaseUsesContextLogger(t *testing.T) {
	l, logs := observed()
	ctx := WithContext(context.Background(), l)

	ForContext(ctx, nil).Warn("fallback")
	assert.Equal(t, 1, logs.FilterMessage("fallback").Len())
}
