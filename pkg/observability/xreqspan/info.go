package xreqspan

import (
	"context"
	"net/netip"
)

// RequestInfo 每个请求创建一次的元数据，创建后不再修改。
//
// 通过 context 传给被包装的处理器，处理器无需重新解析请求头。
type RequestInfo struct {
	Protocol  Protocol
	RequestID RequestID
	// ClientIP 未提取到客户端地址时为零值（IsValid 为 false）。
	ClientIP netip.Addr
}

type requestInfoKey struct{}

// WithRequestInfo 将 RequestInfo 放入 ctx。
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext 返回 ctx 中的 RequestInfo。
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
