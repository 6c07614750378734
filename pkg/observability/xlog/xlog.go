// xlog.go 定义核心接口：Logger、LoggerWithLevel
//
// 设计理念：
//   - 强制 context 传递，确保请求 ID 与追踪信息随日志传播
//   - 动态级别控制，支持运行时调整
//   - Handler 装饰链，自动注入 xctx 字段和活跃跨度字段
//   - 类型安全，方法签名只接受 slog.Attr
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 所有方法都需要 context.Context 参数，确保追踪信息正确传播。
type Logger interface {
	// Debug 记录 Debug 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以指定级别记录日志，级别由调用方在运行时决定时使用
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr)

	// Enabled 检查指定级别是否启用
	// 用于在构造昂贵的日志参数前先检查级别
	Enabled(ctx context.Context, level Level) bool

	// With 返回带额外属性的派生 Logger
	// 派生 logger 共享父级的 LevelVar，动态级别变更会同步生效。
	With(attrs ...slog.Attr) Logger
}

// LoggerWithLevel 组合接口：Logger + 动态级别控制
//
// Build() 返回此接口，避免业务代码频繁类型断言。
type LoggerWithLevel interface {
	Logger

	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level
}

// AttrSource 为日志提供上下文相关的附加属性。
//
// 通过 WithAttrSource 挂到 context 上后，EnrichHandler 会在每条日志里
// 追加 LogAttrs() 的结果。xspan 的日志后端用它让跨度内的日志带上跨度字段。
type AttrSource interface {
	LogAttrs() []slog.Attr
}

type attrSourceKey struct{}

// WithAttrSource 将属性来源挂到 context 上，后挂载的覆盖先挂载的。
func WithAttrSource(ctx context.Context, src AttrSource) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, attrSourceKey{}, src)
}

// AttrSourceFrom 返回 context 上的属性来源，不存在时返回 nil。
func AttrSourceFrom(ctx context.Context) AttrSource {
	if ctx == nil {
		return nil
	}
	src, _ := ctx.Value(attrSourceKey{}).(AttrSource)
	return src
}
