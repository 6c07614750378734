package xtrace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

// =============================================================================
// traceparent 传播
// =============================================================================

// Traceparent 基于 traceparent 头的传播。
//
// 只接受已采样的入站上下文；注入时始终标记为已采样，
// 采样决策由上游负责。
type Traceparent struct{}

// NewTraceparent 创建 traceparent 传播。
func NewTraceparent() Traceparent { return Traceparent{} }

// Extract 解析入站头，有效时将远端上下文放入 ctx。
//
// parent id 为 0 时解码结果仍带 trace id，但无法构成有效的 SpanContext，
// 此时不设置远端父上下文，新跨度开启新的 trace。
func (Traceparent) Extract(ctx context.Context, h http.Header) context.Context {
	tc := Extract(h)
	if tc.IsZero() || !tc.ParentID.IsValid() {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, tc.SpanContext())
}

// Inject 将 ctx 中当前跨度写入出站头，parent id 为当前跨度的 span id。
func (Traceparent) Inject(ctx context.Context, h http.Header) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	Inject(h, FromSpanContext(sc))
}

// =============================================================================
// 通用键值传播
// =============================================================================

// TextMap 将任意 OpenTelemetry TextMapPropagator 接到 HTTP 头上。
type TextMap struct {
	propagator propagation.TextMapPropagator
}

// NewTextMap 创建键值传播，p 为 nil 时使用 W3C TraceContext 与 Baggage 的组合。
func NewTextMap(p propagation.TextMapPropagator) TextMap {
	if p == nil {
		p = DefaultPropagator()
	}
	return TextMap{propagator: p}
}

// DefaultPropagator 返回 W3C TraceContext 与 Baggage 的组合传播器。
func DefaultPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// Extract 从入站头提取上下文。
func (t TextMap) Extract(ctx context.Context, h http.Header) context.Context {
	return t.propagator.Extract(ctx, HeaderCarrier(h))
}

// Inject 将 ctx 中的上下文写入出站头。
func (t TextMap) Inject(ctx context.Context, h http.Header) {
	t.propagator.Inject(ctx, HeaderCarrier(h))
}

// Fields 返回传播器使用的头名称。
func (t TextMap) Fields() []string {
	return t.propagator.Fields()
}

// =============================================================================
// gRPC metadata
// =============================================================================

// InjectToOutgoingContext 将 ctx 中的上下文写入出站 gRPC metadata，用于客户端调用。
//
// 服务端不需要对应的提取函数：拦截器把入站 metadata 转为 http.Header 后
// 与 HTTP 请求走同一条传播路径。
func InjectToOutgoingContext(ctx context.Context, p propagation.TextMapPropagator) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	p.Inject(ctx, MetadataCarrier(md))
	return metadata.NewOutgoingContext(ctx, md)
}
