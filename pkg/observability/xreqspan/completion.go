package xreqspan

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/omeyang/xspan/pkg/observability/xspan"
)

type state uint8

const (
	statePending state = iota
	stateDoneOK
	stateDoneErr
)

// outcome 指标使用的结果标签。
func (s state) outcome() string {
	switch s {
	case stateDoneOK:
		return "ok"
	case stateDoneErr:
		return "error"
	default:
		return "cancelled"
	}
}

// completion 单个请求的完成状态机，独占跨度直到释放。
//
// 只属于处理该请求的调用链，不与其他请求共享，因此不加锁。
// 状态与错误字段只在 pending 到终态的那一次转换中写入；
// release 在所有路径上执行，未到达终态即释放视为取消，只保留请求前字段。
type completion struct {
	layer     *Layer
	span      xspan.Span
	protocol  Protocol
	requestID RequestID
	ctx       context.Context
	start     time.Time

	// scoped 最近一次推进时跨度作用域内的 ctx，注入传播头时使用。
	scoped   context.Context
	state    state
	status   uint16
	attached bool
	released bool
}

// advance 在跨度作用域内推进一次内部计算，返回时一定已退出作用域。
func (c *completion) advance(fn func(ctx context.Context)) {
	ctx := c.span.Enter(c.ctx)
	defer c.span.Exit()
	c.scoped = ctx
	fn(ctx)
}

// attach 向成功响应写入请求 ID 头与传播头，只执行一次。
// 请求 ID 不是合法头值时静默跳过。
func (c *completion) attach(h http.Header) {
	if c.attached {
		return
	}
	c.attached = true

	if v := string(c.requestID.Bytes()); httpguts.ValidHeaderFieldValue(v) {
		h.Set(HeaderRequestID, v)
	}
	if c.layer.propagation != nil && c.scoped != nil {
		c.layer.propagation.Inject(c.scoped, h)
	}
}

// succeed 成功终态，记录协议状态码。
func (c *completion) succeed(status uint16) {
	if c.state != statePending {
		return
	}
	c.state = stateDoneOK
	c.status = status
	c.span.Record(xspan.FieldStatusCode, status)
}

// fail 失败终态，记录兜底状态码、错误类型与错误文本。
// cause 为内部计算返回的 error 或 panic 值。
func (c *completion) fail(cause any) {
	if c.state != statePending {
		return
	}
	c.state = stateDoneErr
	c.status = c.protocol.failureStatus()
	c.span.Record(xspan.FieldStatusCode, c.status)
	c.span.Record(xspan.FieldErrorType, fmt.Sprintf("%T", cause))
	c.span.Record(xspan.FieldErrorMessage, fmt.Sprint(cause))
}

// release 记录指标并结束跨度，幂等。
func (c *completion) release() {
	if c.released {
		return
	}
	c.released = true
	c.layer.metrics.record(c.ctx, c.protocol, c.state, c.status, time.Since(c.start))
	c.span.End()
}
