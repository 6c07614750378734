package xreqspan_test

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
)

func TestRemoteAddrClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
		ok     bool
	}{
		{"192.0.2.1:1234", "192.0.2.1", true},
		{"[2001:db8::1]:443", "2001:db8::1", true},
		{"[::ffff:10.0.0.1]:80", "10.0.0.1", true},
		{"10.0.0.2", "10.0.0.2", true},
		{"", "", false},
		{"pipe", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remote}
			got, ok := xreqspan.RemoteAddrClientIP(r)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, netip.MustParseAddr(tt.want), got)
			}
		})
	}
}

func TestForwardedClientIP(t *testing.T) {
	trusted, err := xreqspan.TrustedProxies("10.0.0.0/8", " 192.168.1.1 ")
	require.NoError(t, err)
	extract := xreqspan.ForwardedClientIP(trusted)

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		want      string
	}{
		{"untrusted peer ignores header", "203.0.113.9:1", []string{"1.1.1.1"}, "203.0.113.9"},
		{"trusted peer single hop", "10.0.0.1:1", []string{"198.51.100.7"}, "198.51.100.7"},
		{"skips trusted hops", "10.0.0.1:1", []string{"198.51.100.7, 10.2.3.4", "192.168.1.1"}, "198.51.100.7"},
		{"spoofed leftmost ignored", "10.0.0.1:1", []string{"6.6.6.6, 198.51.100.7"}, "198.51.100.7"},
		{"all trusted", "10.0.0.1:1", []string{"10.9.9.9"}, "10.9.9.9"},
		{"garbage stops walk", "10.0.0.1:1", []string{"198.51.100.7, junk, 10.1.1.1"}, "10.1.1.1"},
		{"no header", "10.0.0.1:1", nil, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				r.Header.Add("X-Forwarded-For", v)
			}
			got, ok := extract(r)
			require.True(t, ok)
			assert.Equal(t, netip.MustParseAddr(tt.want), got)
		})
	}
}

func TestForwardedClientIP_NilSet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	got, ok := xreqspan.ForwardedClientIP(nil)(r)
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), got)
}

func TestTrustedProxies_Invalid(t *testing.T) {
	_, err := xreqspan.TrustedProxies("10.0.0.0/33")
	assert.ErrorIs(t, err, xreqspan.ErrInvalidTrustedProxy)
	_, err = xreqspan.TrustedProxies("not-an-ip")
	assert.ErrorIs(t, err, xreqspan.ErrInvalidTrustedProxy)
}
