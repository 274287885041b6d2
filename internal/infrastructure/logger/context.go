package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestKey
)

// RequestFields identify the request and caller a log entry belongs to
type RequestFields struct {
	RequestID string
	TenantID  string
	UserID    string
}

func (f RequestFields) zapFields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if f.RequestID != "" {
		fields = append(fields, zap.String("request_id", f.RequestID))
	}
	if f.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", f.TenantID))
	}
	if f.UserID != "" {
		fields = append(fields, zap.String("user_id", f.UserID))
	}
	return fields
}

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestFields stores fields on ctx. Non-empty values replace the ones
// already stored, so identity can be added after the request ID.
func WithRequestFields(ctx context.Context, fields RequestFields) context.Context {
	current := RequestFieldsFrom(ctx)
	if fields.RequestID != "" {
		current.RequestID = fields.RequestID
	}
	if fields.TenantID != "" {
		current.TenantID = fields.TenantID
	}
	if fields.UserID != "" {
		current.UserID = fields.UserID
	}
	return context.WithValue(ctx, requestKey, current)
}

// RequestFieldsFrom returns the request fields stored on ctx
func RequestFieldsFrom(ctx context.Context) RequestFields {
	f, _ := ctx.Value(requestKey).(RequestFields)
	return f
}

// RequestID returns the request ID stored on ctx, if any
func RequestID(ctx context.Context) string {
	return RequestFieldsFrom(ctx).RequestID
}

// ForContext returns base enriched with the request fields and the active
// span's trace and span IDs. A nil base falls back to the context's logger.
func ForContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = FromContext(ctx)
	}
	fields := RequestFieldsFrom(ctx).zapFields()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
