package xreqspan

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xspan/pkg/observability/xlog"
)

// =============================================================================
// gRPC 服务端拦截器
//
// 入站 metadata 转换为请求头，FullMethod 作为路径。
// 处理器返回的 gRPC status 错误是协议层面的正常响应，状态码即 status code；
// 其他错误按失败处理，状态码为 13。
// =============================================================================

// UnaryServerInterceptor 返回一元调用拦截器。
func (l *Layer) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		c, _ := l.start(grpcRequest(ctx, info.FullMethod))
		defer c.release()

		var (
			resp any
			err  error
		)
		c.advance(func(ctx context.Context) {
			resp, err = handler(ctx, req)
		})

		l.finishGRPC(c, err, func(md metadata.MD) error {
			return grpc.SetHeader(ctx, md)
		})
		return resp, err
	}
}

// StreamServerInterceptor 返回流式调用拦截器。
//
// 请求 ID 头在首次发送 header 或消息前写入。
func (l *Layer) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		c, _ := l.start(grpcRequest(ss.Context(), info.FullMethod))
		defer c.release()

		var err error
		c.advance(func(ctx context.Context) {
			err = handler(srv, &serverStream{ServerStream: ss, ctx: ctx, layer: l, c: c})
		})

		l.finishGRPC(c, err, ss.SetHeader)
		return err
	}
}

func (l *Layer) finishGRPC(c *completion, err error, setHeader func(metadata.MD) error) {
	st, ok := status.FromError(err)
	if !ok {
		c.fail(err)
		return
	}

	resp := &http.Response{StatusCode: http.StatusOK, Header: make(http.Header)}
	resp.Header.Set(headerGRPCStatus, strconv.Itoa(int(st.Code())))
	c.attach(resp.Header)
	l.sendHeader(c.ctx, resp.Header, setHeader)
	c.succeed(c.protocol.successStatus(resp))
}

// sendHeader 将 attach 写入的头转为响应 metadata。
// 非可打印 ASCII 的值不能出现在 gRPC metadata 中，直接跳过。
func (l *Layer) sendHeader(ctx context.Context, h http.Header, setHeader func(metadata.MD) error) {
	md := metadata.MD{}
	for k, vs := range h {
		if k == headerGRPCStatus {
			continue
		}
		for _, v := range vs {
			if isPrintableASCII(v) {
				md.Append(k, v)
			}
		}
	}
	if md.Len() == 0 {
		return
	}
	if err := setHeader(md); err != nil {
		l.logger.Debug(ctx, "xreqspan: set grpc response header failed", xlog.Err(err),
			slog.Int("keys", md.Len()))
	}
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// grpcRequest 由入站 metadata 构造请求，供跨度组装使用。
//
// 以 ":" 开头的伪头被忽略；缺少 content-type 时视为 application/grpc。
func grpcRequest(ctx context.Context, fullMethod string) *http.Request {
	h := make(http.Header)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for k, vs := range md {
			if strings.HasPrefix(k, ":") {
				continue
			}
			for _, v := range vs {
				h.Add(k, v)
			}
		}
	}
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", grpcContentTypePrefix)
	}

	r := &http.Request{
		Method:     http.MethodPost,
		URL:        &url.URL{Path: fullMethod},
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		Header:     h,
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		r.RemoteAddr = p.Addr.String()
	}
	return r.WithContext(ctx)
}

// serverStream 暴露跨度作用域内的 ctx，并在首次发送前写入响应头。
type serverStream struct {
	grpc.ServerStream
	ctx   context.Context
	layer *Layer
	c     *completion
	sent  bool
}

func (s *serverStream) Context() context.Context {
	return s.ctx
}

func (s *serverStream) SendHeader(md metadata.MD) error {
	s.attachHeader()
	return s.ServerStream.SendHeader(md)
}

func (s *serverStream) SendMsg(m any) error {
	s.attachHeader()
	return s.ServerStream.SendMsg(m)
}

func (s *serverStream) attachHeader() {
	if s.sent {
		return
	}
	s.sent = true
	h := make(http.Header)
	s.c.attach(h)
	s.layer.sendHeader(s.ctx, h, s.ServerStream.SetHeader)
}
