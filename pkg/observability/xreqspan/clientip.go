package xreqspan

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// 客户端地址提取器。默认不提取，需要时通过 WithExtractClientIP 显式启用。

// RemoteAddrClientIP 使用连接的对端地址。
func RemoteAddrClientIP(r *http.Request) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

// ForwardedClientIP 在可信代理之后使用 X-Forwarded-For。
//
// 对端地址不在 trusted 中时直接使用对端地址；否则从右向左跳过可信代理，
// 返回第一个不可信的地址。遇到无法解析的条目时停止，返回最近一个有效地址。
func ForwardedClientIP(trusted *netipx.IPSet) ClientIPFunc {
	return func(r *http.Request) (netip.Addr, bool) {
		remote, ok := RemoteAddrClientIP(r)
		if !ok {
			return netip.Addr{}, false
		}
		if trusted == nil || !trusted.Contains(remote) {
			return remote, true
		}

		client := remote
		hops := forwardedHops(r.Header)
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(hops[i])
			if err != nil {
				break
			}
			client = addr.Unmap()
			if !trusted.Contains(client) {
				break
			}
		}
		return client, true
	}
}

func forwardedHops(h http.Header) []string {
	var hops []string
	for _, v := range h.Values("X-Forwarded-For") {
		for hop := range strings.SplitSeq(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

// TrustedProxies 由 CIDR 或单个地址构造可信代理集合。
func TrustedProxies(entries ...string) (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			prefix, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidTrustedProxy, err)
			}
			b.AddPrefix(prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTrustedProxy, err)
		}
		b.Add(addr.Unmap())
	}
	return b.IPSet()
}
