package xreqspan

import (
	"net/http"
	"net/netip"
	"unicode/utf8"

	"github.com/omeyang/xspan/pkg/observability/xspan"
)

// ClientIPFunc 从请求中提取客户端地址。返回 false 表示不记录。
type ClientIPFunc func(r *http.Request) (netip.Addr, bool)

// RequestSpan 组装好的跨度及请求元数据。
type RequestSpan struct {
	Span xspan.Span
	Info RequestInfo
}

// NewRequestSpan 用请求字段填充新建的跨度。
//
// 顺序：进入作用域、识别协议、确定请求 ID、提取客户端地址，
// 随后依次记录 user agent、method、path、query、scheme、请求 ID、客户端地址、
// 协议名，HTTP 额外记录协议版本，最后退出作用域。
// 缺失的输入只会让对应字段保持未设置，从不返回错误。
func NewRequestSpan(span xspan.Span, clientIP ClientIPFunc, r *http.Request) RequestSpan {
	span.Enter(r.Context())
	defer span.Exit()

	protocol := ProtocolFromContentType(r.Header.Get("Content-Type"))

	var id RequestID
	if vs := r.Header.Values(HeaderRequestID); len(vs) > 0 {
		id = RequestIDFromHeader(vs[0])
	} else {
		id = NewRequestID()
	}

	var addr netip.Addr
	if clientIP != nil {
		if ip, ok := clientIP(r); ok {
			addr = ip
		}
	}

	if vs := r.Header.Values("User-Agent"); len(vs) > 0 && utf8.ValidString(vs[0]) {
		span.Record(xspan.FieldUserAgent, vs[0])
	}
	span.Record(xspan.FieldMethod, r.Method)
	if r.URL != nil {
		span.Record(xspan.FieldPath, r.URL.Path)
		if r.URL.RawQuery != "" {
			span.Record(xspan.FieldQuery, r.URL.RawQuery)
		}
		if r.URL.Scheme != "" {
			span.Record(xspan.FieldScheme, r.URL.Scheme)
		}
	}
	if text, ok := id.Text(); ok {
		span.Record(xspan.FieldRequestID, text)
	} else {
		span.Record(xspan.FieldRequestID, id.Bytes())
	}
	if addr.IsValid() {
		span.Record(xspan.FieldClientAddress, addr)
	}
	span.Record(xspan.FieldProtocolName, protocol.String())
	if v, ok := protocol.version(r); ok {
		span.Record(xspan.FieldProtocolVersion, v)
	}

	return RequestSpan{
		Span: span,
		Info: RequestInfo{Protocol: protocol, RequestID: id, ClientIP: addr},
	}
}
