package xreqspan_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

func fixedClientIP(addr string) xreqspan.ClientIPFunc {
	return func(*http.Request) (netip.Addr, bool) {
		return netip.MustParseAddr(addr), true
	}
}

func TestNewRequestSpan_RecordOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	span := NewMockSpan(ctrl)

	r := httptest.NewRequest(http.MethodGet, "http://example.com/a?b=1", nil)
	r.Header.Set("User-Agent", "curl/8.0")
	r.Header.Set(xreqspan.HeaderRequestID, "rid")

	gomock.InOrder(
		span.EXPECT().Enter(gomock.Any()).DoAndReturn(func(ctx context.Context) context.Context { return ctx }),
		span.EXPECT().Record(xspan.FieldUserAgent, "curl/8.0").Return(true),
		span.EXPECT().Record(xspan.FieldMethod, http.MethodGet).Return(true),
		span.EXPECT().Record(xspan.FieldPath, "/a").Return(true),
		span.EXPECT().Record(xspan.FieldQuery, "b=1").Return(true),
		span.EXPECT().Record(xspan.FieldScheme, "http").Return(true),
		span.EXPECT().Record(xspan.FieldRequestID, "rid").Return(true),
		span.EXPECT().Record(xspan.FieldClientAddress, netip.MustParseAddr("10.0.0.1")).Return(true),
		span.EXPECT().Record(xspan.FieldProtocolName, "http").Return(true),
		span.EXPECT().Record(xspan.FieldProtocolVersion, 1.1).Return(true),
		span.EXPECT().Exit(),
	)

	rs := xreqspan.NewRequestSpan(span, fixedClientIP("10.0.0.1"), r)
	assert.Equal(t, xreqspan.ProtocolHTTP, rs.Info.Protocol)
	assert.Equal(t, "rid", rs.Info.RequestID.String())
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), rs.Info.ClientIP)
}

func TestNewRequestSpan_GRPCMinimal(t *testing.T) {
	ctrl := gomock.NewController(t)
	span := NewMockSpan(ctrl)

	r := httptest.NewRequest(http.MethodPost, "/pkg.Svc/Call", nil)
	r.Header.Set("Content-Type", "application/grpc+proto")
	r.Header.Set("User-Agent", "ua-\xff")

	var recordedID any
	gomock.InOrder(
		span.EXPECT().Enter(gomock.Any()).DoAndReturn(func(ctx context.Context) context.Context { return ctx }),
		span.EXPECT().Record(xspan.FieldMethod, http.MethodPost).Return(true),
		span.EXPECT().Record(xspan.FieldPath, "/pkg.Svc/Call").Return(true),
		span.EXPECT().Record(xspan.FieldRequestID, gomock.Any()).DoAndReturn(func(_ string, v any) bool {
			recordedID = v
			return true
		}),
		span.EXPECT().Record(xspan.FieldProtocolName, "grpc").Return(true),
		span.EXPECT().Exit(),
	)

	rs := xreqspan.NewRequestSpan(span, nil, r)
	assert.Equal(t, xreqspan.ProtocolGRPC, rs.Info.Protocol)
	assert.False(t, rs.Info.ClientIP.IsValid())
	require.Equal(t, 36, rs.Info.RequestID.Len())
	assert.Equal(t, rs.Info.RequestID.String(), recordedID)
}

func TestNewRequestSpan_NonUTF8RequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	span := NewMockSpan(ctrl)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(xreqspan.HeaderRequestID, "id-\xfe")

	span.EXPECT().Enter(gomock.Any()).DoAndReturn(func(ctx context.Context) context.Context { return ctx })
	span.EXPECT().Record(xspan.FieldRequestID, []byte("id-\xfe")).Return(true)
	span.EXPECT().Record(gomock.Not(xspan.FieldRequestID), gomock.Any()).Return(true).AnyTimes()
	span.EXPECT().Exit()

	rs := xreqspan.NewRequestSpan(span, nil, r)
	assert.Equal(t, []byte("id-\xfe"), rs.Info.RequestID.Bytes())
}

func TestNewRequestSpan_EmptyRequestIDHeader(t *testing.T) {
	span := newRecordingSpan()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header[xreqspan.HeaderRequestID] = []string{""}

	rs := xreqspan.NewRequestSpan(span, nil, r)
	assert.Equal(t, 0, rs.Info.RequestID.Len())
	v, ok := span.field(xspan.FieldRequestID)
	require.True(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, []string{
		"enter",
		xspan.FieldMethod, xspan.FieldPath, xspan.FieldRequestID,
		xspan.FieldProtocolName, xspan.FieldProtocolVersion,
		"exit",
	}, span.snapshot())
}

func TestRequestInfoContext(t *testing.T) {
	_, ok := xreqspan.RequestInfoFromContext(context.Background())
	assert.False(t, ok)

	info := xreqspan.RequestInfo{Protocol: xreqspan.ProtocolGRPC, RequestID: xreqspan.RequestIDFromHeader("x")}
	got, ok := xreqspan.RequestInfoFromContext(xreqspan.WithRequestInfo(context.Background(), info))
	require.True(t, ok)
	assert.Equal(t, info, got)
}
