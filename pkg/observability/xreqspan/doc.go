// Package xreqspan 为入站请求创建结构化跨度，并在请求完成时恰好结束一次。
//
// # 流程
//
// 请求到达后，[Layer] 依次：
//
//   - 通过 [Propagation] 提取远端追踪上下文（可选）
//   - 创建跨度并由 [NewRequestSpan] 填充请求字段：协议、请求 ID、method、path 等
//   - 按 [WithInspectHeaders] 记录指定头
//   - 将 [RequestInfo] 放入请求 ctx，处理器通过 [RequestInfoFromContext] 读取
//   - 在跨度作用域内调用内部处理器
//
// 内部处理器成功时，响应追加 X-Request-Id 头与传播头，记录协议状态码：
// HTTP 为响应状态码，gRPC 为 grpc-status（缺失或无法识别时为 2）。
// 失败时记录兜底状态码（HTTP 500，gRPC 13）、错误类型与错误文本，错误原样返回。
// 未到达终态即被释放（panic、http.ErrAbortHandler）时只保留请求前字段。
//
// # 接入方式
//
//   - [Layer.Wrap]: 包装返回 (*http.Response, error) 的 [Handler]
//   - [Layer.HTTP]: 包装 net/http 处理器
//   - [Layer.UnaryServerInterceptor]、[Layer.StreamServerInterceptor]: gRPC 服务端
//
// # 配置
//
// [Config] 可通过 xconf 从 YAML/JSON 加载：
//
//	xspan:
//	  span_name: request
//	  level: info
//	  inspect_headers: [accept, content-type]
//	  propagation: traceparent
//	  client_ip: forwarded
//	  trusted_proxies: [10.0.0.0/8]
package xreqspan
