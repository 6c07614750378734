package xreqspan

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xspan/pkg/context/xctx"
	"github.com/omeyang/xspan/pkg/observability/xlog"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

// Handler 被包装的请求处理计算。
type Handler interface {
	Serve(r *http.Request) (*http.Response, error)
}

// HandlerFunc 函数适配器。
type HandlerFunc func(r *http.Request) (*http.Response, error)

// Serve 调用 f(r)。
func (f HandlerFunc) Serve(r *http.Request) (*http.Response, error) { return f(r) }

// Readier 可选的就绪检查。包装后的处理器原样透传。
type Readier interface {
	Ready(ctx context.Context) error
}

// Propagation 跨进程传播钩子。
//
// Extract 在创建跨度前执行，使新跨度以远端上下文为父；
// Inject 在成功响应时执行，ctx 为跨度作用域内的 ctx。
// xtrace.Traceparent 与 xtrace.TextMap 均满足此接口。
type Propagation interface {
	Extract(ctx context.Context, h http.Header) context.Context
	Inject(ctx context.Context, h http.Header)
}

// =============================================================================
// 选项
// =============================================================================

type options struct {
	inspect       []string
	clientIP      ClientIPFunc
	propagation   Propagation
	meterProvider metric.MeterProvider
	logger        xlog.Logger
}

// Option Layer 配置选项。
type Option func(*options)

// WithInspectHeaders 设置需要记录到 http.headers 字段的头名称，默认不记录任何头。
func WithInspectHeaders(names ...string) Option {
	return func(o *options) {
		o.inspect = append([]string(nil), names...)
	}
}

// WithExtractClientIP 设置客户端地址提取函数，默认不提取。
func WithExtractClientIP(fn ClientIPFunc) Option {
	return func(o *options) {
		o.clientIP = fn
	}
}

// WithPropagation 设置跨进程传播，默认不传播。
func WithPropagation(p Propagation) Option {
	return func(o *options) {
		o.propagation = p
	}
}

// WithMeterProvider 启用请求指标。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithLogger 设置内部诊断日志使用的 Logger，默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// =============================================================================
// Layer
// =============================================================================

// Layer 请求跨度中间件，可以包装任意数量的处理器。创建后只读，可并发使用。
type Layer struct {
	spanner     xspan.Spanner
	inspect     []string
	clientIP    ClientIPFunc
	propagation Propagation
	metrics     *metrics
	logger      xlog.Logger
}

// New 创建 Layer。
func New(spanner xspan.Spanner, opts ...Option) (*Layer, error) {
	if spanner == nil {
		return nil, ErrNilSpanner
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	l := &Layer{
		spanner:     spanner,
		inspect:     o.inspect,
		clientIP:    o.clientIP,
		propagation: o.propagation,
		logger:      o.logger,
	}
	if o.meterProvider != nil {
		m, err := newMetrics(o.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("xreqspan: %w", err)
		}
		l.metrics = m
	}
	return l, nil
}

// start 完成调用时刻的全部准备：提取远端上下文、创建并填充跨度、
// 记录被检查的头、把 RequestInfo 放入请求 ctx。
func (l *Layer) start(r *http.Request) (*completion, *http.Request) {
	ctx := r.Context()
	if l.propagation != nil {
		ctx = l.propagation.Extract(ctx, r.Header)
	}

	rs := NewRequestSpan(l.spanner(ctx), l.clientIP, r.WithContext(ctx))
	if len(l.inspect) > 0 {
		rs.Span.Record(xspan.FieldHeaders, InspectHeaders(l.inspect, r.Header))
	}

	ctx = WithRequestInfo(ctx, rs.Info)
	if text, ok := rs.Info.RequestID.Text(); ok {
		if next, err := xctx.WithRequestID(ctx, text); err == nil {
			ctx = next
		}
	}

	c := &completion{
		layer:     l,
		span:      rs.Span,
		protocol:  rs.Info.Protocol,
		requestID: rs.Info.RequestID,
		ctx:       ctx,
		start:     time.Now(),
	}
	return c, r.WithContext(ctx)
}

// Wrap 包装处理器。
func (l *Layer) Wrap(next Handler) *Service {
	return &Service{layer: l, next: next}
}

// Service 被 Layer 包装后的处理器。
type Service struct {
	layer *Layer
	next  Handler
}

var (
	_ Handler = (*Service)(nil)
	_ Readier = (*Service)(nil)
)

// Serve 处理一个请求。
//
// 内部计算的错误原样返回；成功响应原样返回，只追加请求 ID 头与传播头。
// 内部计算 panic 时跨度照常释放，但不记录状态与错误字段。
func (s *Service) Serve(r *http.Request) (*http.Response, error) {
	c, r := s.layer.start(r)
	defer c.release()

	var (
		resp *http.Response
		err  error
	)
	c.advance(func(ctx context.Context) {
		resp, err = s.next.Serve(r.WithContext(ctx))
	})
	if err != nil {
		c.fail(err)
		return resp, err
	}

	if resp != nil {
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}
		c.attach(resp.Header)
	}
	c.succeed(c.protocol.successStatus(resp))
	return resp, nil
}

// Ready 透传到内部处理器，未实现 Readier 时始终就绪。
func (s *Service) Ready(ctx context.Context) error {
	if r, ok := s.next.(Readier); ok {
		return r.Ready(ctx)
	}
	return nil
}
