package xspan

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xspan/pkg/context/xctx"
)

const instrumentationName = "github.com/omeyang/xspan/xspan"

// OTel 返回基于 OpenTelemetry 的跨度后端。
//
// tp 为 nil 时使用全局 TracerProvider。ctx 中的远端 SpanContext 作为父跨度。
func OTel(tp trace.TracerProvider) Backend {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &otelBackend{tracer: tp.Tracer(instrumentationName)}
}

type otelBackend struct {
	tracer trace.Tracer
}

func (b *otelBackend) Start(ctx context.Context, schema *Schema) Span {
	attrs := make([]attribute.KeyValue, 0, 1)
	for _, f := range schema.fields {
		if f.Value != nil {
			attrs = append(attrs, toKeyValue(f.Name, f.Value))
		}
	}

	_, span := b.tracer.Start(ctx, schema.Name(),
		trace.WithSpanKind(mapSpanKind(schema.kind())),
		trace.WithAttributes(attrs...),
	)
	return &otelSpan{span: span, schema: schema}
}

type otelSpan struct {
	span   trace.Span
	schema *Schema

	mu        sync.Mutex
	protocol  string
	status    int64
	hasStatus bool
	errType   string
	errMsg    string

	endOnce sync.Once
}

// Enter 将跨度放入 ctx，并同步 trace_id/span_id 到 xctx 供日志注入。
func (s *otelSpan) Enter(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = trace.ContextWithSpan(ctx, s.span)
	sc := s.span.SpanContext()
	if !sc.IsValid() {
		return ctx
	}
	if next, err := xctx.WithTraceID(ctx, sc.TraceID().String()); err == nil {
		ctx = next
	}
	if next, err := xctx.WithSpanID(ctx, sc.SpanID().String()); err == nil {
		ctx = next
	}
	return ctx
}

// Exit 作用域由 ctx 承载，退出时无需额外操作。
func (s *otelSpan) Exit() {}

func (s *otelSpan) Record(name string, value any) bool {
	if !s.schema.Has(name) || value == nil {
		return false
	}
	kv := toKeyValue(name, value)
	s.span.SetAttributes(kv)

	s.mu.Lock()
	switch name {
	case FieldProtocolName:
		s.protocol = kv.Value.Emit()
	case FieldStatusCode:
		if kv.Value.Type() == attribute.INT64 {
			s.status, s.hasStatus = kv.Value.AsInt64(), true
		}
	case FieldErrorType:
		s.errType = kv.Value.Emit()
	case FieldErrorMessage:
		s.errMsg = kv.Value.Emit()
	}
	s.mu.Unlock()
	return true
}

// End 根据已记录的状态设置跨度状态并结束跨度。
//
// 记录了 error.message 时标记为 Error 并附加 exception 事件；
// 只记录了状态码时按协议判断；什么都没记录（取消）时保持 Unset。
func (s *otelSpan) End() {
	s.endOnce.Do(func() {
		s.mu.Lock()
		protocol, status, hasStatus := s.protocol, s.status, s.hasStatus
		errType, errMsg := s.errType, s.errMsg
		s.mu.Unlock()

		switch {
		case errMsg != "" || errType != "":
			s.span.AddEvent("exception", trace.WithAttributes(
				attribute.String("exception.type", errType),
				attribute.String("exception.message", errMsg),
			))
			s.span.SetStatus(codes.Error, errMsg)
		case hasStatus && isServerError(protocol, status):
			s.span.SetStatus(codes.Error, "")
		case hasStatus:
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()
	})
}

// isServerError 服务端视角下状态码是否表示失败。
//
// HTTP 仅 5xx 为失败；gRPC 按服务端约定 Unknown、DeadlineExceeded、
// Unimplemented、Internal、Unavailable、DataLoss 为失败。
func isServerError(protocol string, status int64) bool {
	if protocol == "grpc" {
		switch status {
		case 2, 4, 12, 13, 14, 15:
			return true
		}
		return false
	}
	return status >= 500
}

func mapSpanKind(kind string) trace.SpanKind {
	switch kind {
	case "server":
		return trace.SpanKindServer
	case "client":
		return trace.SpanKindClient
	case "producer":
		return trace.SpanKindProducer
	case "consumer":
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func toKeyValue(name string, value any) attribute.KeyValue {
	switch v := normalize(value).(type) {
	case bool:
		return attribute.Bool(name, v)
	case int64:
		return attribute.Int64(name, v)
	case float64:
		return attribute.Float64(name, v)
	case string:
		return attribute.String(name, v)
	default:
		return attribute.String(name, "")
	}
}
