package xreqspan

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        Protocol
	}{
		{"application/grpc", ProtocolGRPC},
		{"application/grpc+proto", ProtocolGRPC},
		{"application/grpc-web", ProtocolGRPC},
		{"application/json", ProtocolHTTP},
		{"Application/GRPC", ProtocolHTTP},
		{"", ProtocolHTTP},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ProtocolFromContentType(tt.contentType))
		})
	}
	assert.Equal(t, "http", ProtocolHTTP.String())
	assert.Equal(t, "grpc", ProtocolGRPC.String())
}

func TestParseGRPCStatus(t *testing.T) {
	for code := 0; code <= 16; code++ {
		assert.Equal(t, uint16(code), ParseGRPCStatus(strconv.Itoa(code)), "code %d", code)
	}
	for _, v := range []string{"", "99", "17", "01", "-1", "a", "1a", " 0", "100", "\xff"} {
		assert.Equal(t, uint16(2), ParseGRPCStatus(v), "value %q", v)
	}
}

func TestProtocolVersion(t *testing.T) {
	tests := []struct {
		major, minor int
		want         float64
	}{
		{0, 9, 0.9},
		{1, 0, 1.0},
		{1, 1, 1.1},
		{2, 0, 2},
		{3, 0, 3},
		{1, 2, 0},
		{4, 0, 0},
	}
	for _, tt := range tests {
		r := &http.Request{ProtoMajor: tt.major, ProtoMinor: tt.minor}
		got, ok := ProtocolHTTP.version(r)
		assert.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-9)
	}

	_, ok := ProtocolGRPC.version(&http.Request{ProtoMajor: 2})
	assert.False(t, ok)
}

func TestSuccessStatus(t *testing.T) {
	header := func(kv ...string) http.Header {
		h := http.Header{}
		for i := 0; i < len(kv); i += 2 {
			h.Add(kv[i], kv[i+1])
		}
		return h
	}

	tests := []struct {
		name     string
		protocol Protocol
		resp     *http.Response
		want     uint16
	}{
		{"http status", ProtocolHTTP, &http.Response{StatusCode: 404}, 404},
		{"http nil response", ProtocolHTTP, nil, 200},
		{"grpc header", ProtocolGRPC, &http.Response{StatusCode: 200, Header: header("grpc-status", "5")}, 5},
		{"grpc trailer", ProtocolGRPC, &http.Response{Header: header(), Trailer: header("Grpc-Status", "14")}, 14},
		{"grpc header wins", ProtocolGRPC, &http.Response{Header: header("Grpc-Status", "0"), Trailer: header("Grpc-Status", "13")}, 0},
		{"grpc absent", ProtocolGRPC, &http.Response{StatusCode: 200}, 2},
		{"grpc unparsable", ProtocolGRPC, &http.Response{Header: header("Grpc-Status", "99")}, 2},
		{"grpc nil response", ProtocolGRPC, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.protocol.successStatus(tt.resp))
		})
	}
}

func TestFailureStatus(t *testing.T) {
	assert.Equal(t, uint16(500), ProtocolHTTP.failureStatus())
	assert.Equal(t, uint16(13), ProtocolGRPC.failureStatus())
}

func TestStateOutcome(t *testing.T) {
	assert.Equal(t, "cancelled", statePending.outcome())
	assert.Equal(t, "ok", stateDoneOK.outcome())
	assert.Equal(t, "error", stateDoneErr.outcome())
}
