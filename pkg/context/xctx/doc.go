// Package xctx 提供请求级标识在 context.Context 中的存取。
//
// 存储的字段：
//   - request_id: 请求关联 ID（由 xreqspan 中间件在每次请求时写入）
//   - trace_id / span_id: 当前活跃跨度的 W3C 标识（OTel 后端写入）
//
// 所有写入函数在 ctx 为 nil 时返回 ErrNilContext，读取函数返回空字符串。
// xlog 的 EnrichHandler 通过 AppendTraceAttrs 把这些字段注入每条日志。
package xctx
