package xreqspan

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

// HeaderEntry 一个被检查的头及其全部值的渲染结果。
type HeaderEntry struct {
	Name  string
	Value string
}

// InspectedHeaders 按调用方给定顺序排列的头渲染结果。
type InspectedHeaders []HeaderEntry

// InspectHeaders 渲染 names 中出现在 h 里的头。
//
// 名称统一为小写；同名多个值以 ", " 连接；非 UTF-8 的值渲染为 "<non-utf8>"。
// 没有任何值的名称直接省略。
func InspectHeaders(names []string, h http.Header) InspectedHeaders {
	var out InspectedHeaders
	for _, name := range names {
		vs := h.Values(name)
		if len(vs) == 0 {
			continue
		}
		var b strings.Builder
		for i, v := range vs {
			if i > 0 {
				b.WriteString(", ")
			}
			if utf8.ValidString(v) {
				b.WriteString(v)
			} else {
				b.WriteString(nonUTF8Placeholder)
			}
		}
		out = append(out, HeaderEntry{Name: strings.ToLower(name), Value: b.String()})
	}
	return out
}

// String 渲染为 {"name": "v1, v2"} 形式。
func (hs InspectedHeaders) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range hs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(e.Name))
		b.WriteString(": ")
		b.WriteString(strconv.Quote(e.Value))
	}
	b.WriteByte('}')
	return b.String()
}
