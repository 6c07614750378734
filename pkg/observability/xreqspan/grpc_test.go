package xreqspan_test

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

// fakeTransportStream 收集 grpc.SetHeader 写入的 metadata。
type fakeTransportStream struct {
	mu     sync.Mutex
	header metadata.MD
}

func (s *fakeTransportStream) Method() string { return "/pkg.Svc/Get" }

func (s *fakeTransportStream) SetHeader(md metadata.MD) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *fakeTransportStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *fakeTransportStream) SetTrailer(metadata.MD) error { return nil }

// fakeServerStream 最小化的 grpc.ServerStream。
type fakeServerStream struct {
	ctx    context.Context
	header metadata.MD
	sent   []any
}

func (s *fakeServerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *fakeServerStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *fakeServerStream) SetTrailer(metadata.MD) {}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func (s *fakeServerStream) SendMsg(m any) error {
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeServerStream) RecvMsg(any) error { return nil }

func incomingContext(pairs ...string) context.Context {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(pairs...))
	return peer.NewContext(ctx, &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 5000},
	})
}

func TestUnaryServerInterceptor_StatusError(t *testing.T) {
	layer, span := newRecordingLayer(t, xreqspan.WithExtractClientIP(xreqspan.RemoteAddrClientIP))
	interceptor := layer.UnaryServerInterceptor()

	stream := &fakeTransportStream{}
	ctx := grpc.NewContextWithServerTransportStream(
		incomingContext("x-request-id", "rid-1", "user-agent", "grpc-go/1.79"), stream)

	var inScope bool
	_, err := interceptor(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Get"},
		func(ctx context.Context, _ any) (any, error) {
			inScope = spanFromContext(ctx) == span
			return nil, status.Error(codes.NotFound, "missing")
		})
	require.Equal(t, codes.NotFound, status.Code(err))
	assert.True(t, inScope)

	v, _ := span.field(xspan.FieldStatusCode)
	assert.Equal(t, uint16(codes.NotFound), v)
	_, ok := span.field(xspan.FieldErrorMessage)
	assert.False(t, ok)
	v, _ = span.field(xspan.FieldPath)
	assert.Equal(t, "/pkg.Svc/Get", v)
	v, _ = span.field(xspan.FieldMethod)
	assert.Equal(t, "POST", v)
	v, _ = span.field(xspan.FieldProtocolName)
	assert.Equal(t, "grpc", v)
	v, _ = span.field(xspan.FieldUserAgent)
	assert.Equal(t, "grpc-go/1.79", v)
	v, _ = span.field(xspan.FieldClientAddress)
	assert.Equal(t, netip.MustParseAddr("10.1.2.3"), v)
	_, ok = span.field(xspan.FieldProtocolVersion)
	assert.False(t, ok)

	assert.Equal(t, []string{"rid-1"}, stream.header.Get("x-request-id"))
	assert.Empty(t, stream.header.Get("grpc-status"))
	assert.Equal(t, 1, span.ended)
}

func TestUnaryServerInterceptor_OK(t *testing.T) {
	layer, span := newRecordingLayer(t)
	interceptor := layer.UnaryServerInterceptor()

	resp, err := interceptor(incomingContext(), "req", &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Get"},
		func(context.Context, any) (any, error) { return "resp", nil })
	require.NoError(t, err)
	assert.Equal(t, "resp", resp)

	v, _ := span.field(xspan.FieldStatusCode)
	assert.Equal(t, uint16(0), v)
	id, _ := span.field(xspan.FieldRequestID)
	assert.Len(t, id, 36)
}

func TestUnaryServerInterceptor_PlainError(t *testing.T) {
	layer, span := newRecordingLayer(t)
	interceptor := layer.UnaryServerInterceptor()

	wantErr := errors.New("db down")
	_, err := interceptor(incomingContext(), "req", &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Get"},
		func(context.Context, any) (any, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)

	v, _ := span.field(xspan.FieldStatusCode)
	assert.Equal(t, uint16(13), v)
	v, _ = span.field(xspan.FieldErrorMessage)
	assert.Equal(t, "db down", v)
}

func TestStreamServerInterceptor(t *testing.T) {
	layer, span := newRecordingLayer(t)
	interceptor := layer.StreamServerInterceptor()

	ss := &fakeServerStream{ctx: incomingContext("x-request-id", "stream-1")}
	err := interceptor(nil, ss, &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/Watch", IsServerStream: true},
		func(_ any, stream grpc.ServerStream) error {
			assert.Same(t, span, spanFromContext(stream.Context()))
			require.NoError(t, stream.SendMsg("a"))
			require.NoError(t, stream.SendMsg("b"))
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "b"}, ss.sent)
	assert.Equal(t, []string{"stream-1"}, ss.header.Get("x-request-id"))
	v, _ := span.field(xspan.FieldStatusCode)
	assert.Equal(t, uint16(0), v)
	assert.False(t, span.isActive())
}

func TestStreamServerInterceptor_StatusError(t *testing.T) {
	layer, span := newRecordingLayer(t)
	interceptor := layer.StreamServerInterceptor()

	ss := &fakeServerStream{ctx: incomingContext()}
	err := interceptor(nil, ss, &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/Watch"},
		func(any, grpc.ServerStream) error {
			return status.Error(codes.Unavailable, "draining")
		})
	require.Equal(t, codes.Unavailable, status.Code(err))

	v, _ := span.field(xspan.FieldStatusCode)
	assert.Equal(t, uint16(codes.Unavailable), v)
	assert.Len(t, ss.header.Get("x-request-id"), 1)
}
