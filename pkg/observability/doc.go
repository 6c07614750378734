// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xspan: 跨度抽象与 OpenTelemetry、日志两种后端
//   - xtrace: traceparent 编解码与跨进程上下文传播
//   - xreqspan: HTTP/gRPC 请求跨度中间件
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范命名字段
//   - 自动从 context 中提取追踪信息注入日志
//   - 请求路径不产生自己的错误，配置错误在启动阶段返回
package observability
