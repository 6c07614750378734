// Package xspan 提供封闭字段集合的结构化跨度。
//
// 跨度在创建时通过 [Schema] 声明全部字段：内置的请求/响应字段加调用方的扩展字段。
// [NewSpanner] 在启动时校验一次字段集合，返回每个请求调用的跨度工厂。
//
// # 后端
//
//   - [OTel]: OpenTelemetry 跨度，span.kind 映射为 SpanKind，字段写为属性，
//     记录了 error.message 时状态为 Error
//   - [Log]: 基于 xlog 的跨度，作用域内的日志自动带上跨度字段，End 时输出汇总日志
//
// # 作用域
//
// 作用域通过 context 承载，[Span.Enter] 返回跨度活跃的 ctx。
// 同一跨度可反复进入，恢复到其他 goroutine 上执行时归属仍然正确。
package xspan
