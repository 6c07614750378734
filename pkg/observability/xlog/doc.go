// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 自动从 context 注入 request_id、trace_id、span_id（EnrichHandler，默认启用）
//   - 活跃跨度字段注入（[WithAttrSource]）
//   - 动态级别调整（运行时热更新）
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// 使用 Builder 模式，遇到第一个配置错误后由 [Builder.Build] 返回：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/app.log", 100, 7).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// 文件轮转由 lumberjack 完成。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// 可通过 [ParseLevel] 从字符串解析。Level 实现 encoding.TextMarshaler/TextUnmarshaler，
// 支持配置文件直接反序列化。
//
// # EnrichHandler 注意事项
//
// 当对启用了 enrich 的 logger 调用 WithGroup 时，注入字段会被归入 group 下
// （slog handler 架构的固有限制）。
package xlog
