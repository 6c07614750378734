// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取请求 ID 与追踪标识
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
//   - 写入函数校验 nil context 并返回错误，读取函数对 nil context 返回零值
package context
