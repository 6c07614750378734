package xreqspan

import (
	"encoding/hex"
	"unicode/utf8"

	"github.com/google/uuid"
)

// HeaderRequestID 请求 ID 头，入站读取与出站写入使用同一名称。
const HeaderRequestID = "X-Request-Id"

// RequestIDCapacity 请求 ID 的最大字节数，超出部分截断。
const RequestIDCapacity = 64

const nonUTF8Placeholder = "<non-utf8>"

// RequestID 定长缓冲区中的请求标识。
//
// 来自入站头时原样保留前 64 字节（可以不是 UTF-8），否则为随机 UUID 的文本形式。
// 零值为空 ID。
type RequestID struct {
	buf [RequestIDCapacity]byte
	n   uint8
}

// RequestIDFromHeader 复制头值的前 64 字节，超长部分静默丢弃。
func RequestIDFromHeader(value string) RequestID {
	var id RequestID
	id.n = uint8(copy(id.buf[:], value))
	return id
}

// NewRequestID 生成随机 UUID，写入小写带连字符的 36 字节文本。
func NewRequestID() RequestID {
	u := uuid.New()
	var id RequestID
	b := id.buf[:36]
	hex.Encode(b[0:8], u[0:4])
	b[8] = '-'
	hex.Encode(b[9:13], u[4:6])
	b[13] = '-'
	hex.Encode(b[14:18], u[6:8])
	b[18] = '-'
	hex.Encode(b[19:23], u[8:10])
	b[23] = '-'
	hex.Encode(b[24:36], u[10:16])
	id.n = 36
	return id
}

// Bytes 返回原始字节。
func (id RequestID) Bytes() []byte {
	return id.buf[:id.n]
}

// Len 返回字节数。
func (id RequestID) Len() int {
	return int(id.n)
}

// Text 字节是合法 UTF-8 时返回文本形式。
func (id RequestID) Text() (string, bool) {
	b := id.buf[:id.n]
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// String 返回文本形式，非 UTF-8 时返回 "<non-utf8>"。
func (id RequestID) String() string {
	if s, ok := id.Text(); ok {
		return s
	}
	return nonUTF8Placeholder
}
