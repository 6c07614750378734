package xtrace

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/net/http/httpguts"
	"google.golang.org/grpc/metadata"
)

// 编译时接口检查
var (
	_ propagation.TextMapCarrier = HeaderCarrier(nil)
	_ propagation.TextMapCarrier = MetadataCarrier(nil)
)

// =============================================================================
// HTTP 头载体
// =============================================================================

// HeaderCarrier 将 http.Header 适配为 TextMapCarrier。
//
// 读取方向只返回合法 UTF-8 的值，入站头中的任意字节不会导致错误。
// 写入方向的键值来自传播算法本身，不合法时视为程序缺陷并 panic。
type HeaderCarrier http.Header

// Get 返回 key 下的第一个值，非 UTF-8 时返回空字符串。
func (c HeaderCarrier) Get(key string) string {
	vs := http.Header(c).Values(key)
	if len(vs) == 0 || !utf8.ValidString(vs[0]) {
		return ""
	}
	return vs[0]
}

// Values 返回 key 下全部合法 UTF-8 的值，一个都没有时返回 nil。
func (c HeaderCarrier) Values(key string) []string {
	var out []string
	for _, v := range http.Header(c).Values(key) {
		if utf8.ValidString(v) {
			out = append(out, v)
		}
	}
	return out
}

// Keys 返回小写的头名称。仅供参考，调用方不应依赖其完整性。
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, strings.ToLower(k))
	}
	return keys
}

// Set 设置头，覆盖已有值。
func (c HeaderCarrier) Set(key, value string) {
	if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
		panic(fmt.Sprintf("xtrace: propagator produced invalid header %q: %q", key, value))
	}
	http.Header(c).Set(key, value)
}

// =============================================================================
// gRPC metadata 载体
// =============================================================================

// MetadataCarrier 将 gRPC metadata 适配为 TextMapCarrier。
type MetadataCarrier metadata.MD

// Get 返回 key 下的第一个值，非 UTF-8 时返回空字符串。
func (c MetadataCarrier) Get(key string) string {
	vs := metadata.MD(c).Get(key)
	if len(vs) == 0 || !utf8.ValidString(vs[0]) {
		return ""
	}
	return vs[0]
}

// Values 返回 key 下全部合法 UTF-8 的值。
func (c MetadataCarrier) Values(key string) []string {
	var out []string
	for _, v := range metadata.MD(c).Get(key) {
		if utf8.ValidString(v) {
			out = append(out, v)
		}
	}
	return out
}

// Keys 返回 metadata 中的全部键。
func (c MetadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Set 设置 metadata，覆盖已有值。
func (c MetadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}
