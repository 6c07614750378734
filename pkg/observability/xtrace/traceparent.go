package xtrace

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceparent 紧凑传播头名称。
const HeaderTraceparent = "traceparent"

const (
	traceparentLen = 55 // 00-{32}-{16}-{2}
	traceIDHexLen  = 32
	parentIDHexLen = 16
	flagSampled    = 0x01
)

// TraceContext 一次提取-注入周期内的分布式追踪标识。
//
// TraceID 为零表示没有上下文，零值不会被传播。
type TraceContext struct {
	TraceID  trace.TraceID
	ParentID trace.SpanID
}

// IsZero 是否为"无上下文"哨兵值。
func (tc TraceContext) IsZero() bool {
	return !tc.TraceID.IsValid()
}

// SpanContext 转换为远端、已采样的 SpanContext，用作新跨度的父上下文。
func (tc TraceContext) SpanContext() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tc.TraceID,
		SpanID:     tc.ParentID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
}

// FromSpanContext 取出 SpanContext 的 trace id 与 span id。
// 注入时 span id 作为下游看到的 parent id。
func FromSpanContext(sc trace.SpanContext) TraceContext {
	return TraceContext{TraceID: sc.TraceID(), ParentID: sc.SpanID()}
}

// DecodeTraceparent 解析 traceparent 头。
//
// 格式：{version}-{trace-id}-{parent-id}-{flags}，按 '-' 切分后必须恰好 4 段且均非空。
// 版本必须为 0，flags 的采样位必须置位，trace id 与 parent id 必须是固定宽度的十六进制。
// 任何一项不满足时返回零值 TraceContext，从不返回部分填充的结果。
func DecodeTraceparent(value string) TraceContext {
	parts := strings.Split(value, "-")
	if len(parts) != 4 {
		return TraceContext{}
	}
	for _, p := range parts {
		if p == "" {
			return TraceContext{}
		}
	}

	version, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil || version != 0 {
		return TraceContext{}
	}
	flags, err := strconv.ParseUint(parts[3], 16, 8)
	if err != nil || flags&flagSampled == 0 {
		return TraceContext{}
	}

	var tc TraceContext
	if !decodeFixedHex(tc.TraceID[:], parts[1], traceIDHexLen) ||
		!decodeFixedHex(tc.ParentID[:], parts[2], parentIDHexLen) {
		return TraceContext{}
	}
	if tc.IsZero() {
		return TraceContext{}
	}
	return tc
}

func decodeFixedHex(dst []byte, s string, width int) bool {
	if len(s) != width {
		return false
	}
	_, err := hex.Decode(dst, []byte(s))
	return err == nil
}

// EncodeTraceparent 生成 traceparent 头的值，flags 固定为 "01"。
//
// tc 为零值时返回 false，调用方不应写入任何头。
// 结果只包含小写十六进制数字和 '-'，一定是合法的头值。
func EncodeTraceparent(tc TraceContext) (string, bool) {
	if tc.IsZero() {
		return "", false
	}
	var buf [traceparentLen]byte
	copy(buf[0:3], "00-")
	hex.Encode(buf[3:35], tc.TraceID[:])
	buf[35] = '-'
	hex.Encode(buf[36:52], tc.ParentID[:])
	copy(buf[52:55], "-01")
	return string(buf[:]), true
}

// Extract 从 HTTP 头读取并解析 traceparent，缺失或无效时返回零值。
func Extract(h http.Header) TraceContext {
	return DecodeTraceparent(h.Get(HeaderTraceparent))
}

// Inject 将 tc 写入 HTTP 头，覆盖已有值。tc 为零值时不写入。
func Inject(h http.Header, tc TraceContext) {
	if v, ok := EncodeTraceparent(tc); ok {
		h.Set(HeaderTraceparent, v)
	}
}
