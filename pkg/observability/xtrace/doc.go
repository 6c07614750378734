// Package xtrace 提供分布式追踪上下文的两种头部编解码。
//
// # traceparent
//
// 固定宽度的十六进制格式：00-{trace-id}-{parent-id}-{flags}。
//
//   - [DecodeTraceparent]: 任何不合法（段数、版本、未采样、宽度）的输入都得到零值 [TraceContext]
//   - [EncodeTraceparent]: 始终输出版本 00、小写十六进制、flags 01；零值不输出
//   - [Extract]/[Inject]: 直接在 http.Header 上读写
//
// # 通用键值
//
// [HeaderCarrier] 与 [MetadataCarrier] 将 http.Header、gRPC metadata 适配为
// OpenTelemetry 的 TextMapCarrier，任意 TextMapPropagator 都可以在其上运行。
// 读取方向容忍任意入站字节；写入方向的非法键值视为传播器缺陷并 panic。
//
// # 传播
//
// [Traceparent] 与 [TextMap] 都提供 Extract(ctx, http.Header) 与 Inject(ctx, http.Header)，
// 可直接作为 xreqspan 的传播钩子。
package xtrace
