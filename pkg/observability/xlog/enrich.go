package xlog

import (
	"context"
	"log/slog"

	"github.com/omeyang/xspan/pkg/context/xctx"
)

// EnrichHandler 自动从 context 提取请求与追踪信息并注入日志
//
// 装饰模式实现，包装底层 slog.Handler，在 Handle() 时自动添加：
//   - trace: request_id, trace_id, span_id
//   - span: 通过 WithAttrSource 挂载的活跃跨度字段
//
// Best-effort 策略：即使 context 中缺少某些字段，也不会影响日志记录。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler
//
// 设计决策: 调用 WithGroup 后，enrich 属性会被归入 group 下，
// 这是 slog handler 架构的固有限制。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// maxEnrichAttrs 栈上预留的属性数量（trace 3 + 跨度分组 1）
const maxEnrichAttrs = 4

// Handle 在调用底层 handler 前，从 context 提取追踪信息与跨度字段
//
// 根据 slog 契约，必须 Clone record 后再修改。
// ctx 为 nil 时安全退化为无注入。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := buf[:0]
	attrs = xctx.AppendTraceAttrs(attrs, ctx)
	if src := AttrSourceFrom(ctx); src != nil {
		attrs = append(attrs, src.LogAttrs()...)
	}

	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}

	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
