package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldServer     = "server"
	FieldOperation  = "operation"
	FieldEndpoint   = "endpoint"
	FieldTransport  = "transport"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

func ServerField(name string) zap.Field {
	return zap.String(FieldServer, name)
}

func OperationField(operation string) zap.Field {
	return zap.String(FieldOperation, operation)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
