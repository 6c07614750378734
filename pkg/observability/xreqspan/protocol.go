package xreqspan

import (
	"net/http"
	"strings"
)

// Protocol 请求协议，由 Content-Type 前缀决定。
type Protocol uint8

// 支持的协议。
const (
	ProtocolHTTP Protocol = iota
	ProtocolGRPC
)

const (
	grpcContentTypePrefix = "application/grpc"
	headerGRPCStatus      = "Grpc-Status"

	// grpcStatusUnknown grpc-status 缺失或无法识别时使用的状态码。
	grpcStatusUnknown = 2
)

// =============================================================================
// 协议相关的全部分支集中在本文件：识别、版本映射、成功状态、失败状态。
// 新增协议时这四处必须同时扩展。
// =============================================================================

// ProtocolFromContentType 按前缀识别协议，"application/grpc" 开头为 gRPC，其余均为 HTTP。
func ProtocolFromContentType(contentType string) Protocol {
	if strings.HasPrefix(contentType, grpcContentTypePrefix) {
		return ProtocolGRPC
	}
	return ProtocolHTTP
}

// String 返回 "http" 或 "grpc"。
func (p Protocol) String() string {
	switch p {
	case ProtocolGRPC:
		return "grpc"
	default:
		return "http"
	}
}

// version 返回需要记录的协议版本。gRPC 不记录版本。
func (p Protocol) version(r *http.Request) (float64, bool) {
	switch p {
	case ProtocolGRPC:
		return 0, false
	default:
		return httpVersion(r.ProtoMajor, r.ProtoMinor), true
	}
}

func httpVersion(major, minor int) float64 {
	switch {
	case major == 0 && minor == 9:
		return 0.9
	case major == 1 && minor == 0:
		return 1.0
	case major == 1 && minor == 1:
		return 1.1
	case major == 2 && minor == 0:
		return 2
	case major == 3 && minor == 0:
		return 3
	default:
		return 0
	}
}

// successStatus 从成功响应推导状态码。
//
// HTTP 取响应状态码；gRPC 依次查找响应头与 trailer 中的 grpc-status，缺失时为 2。
// resp 为 nil 时按空响应处理：HTTP 为 200，gRPC 为 2。
func (p Protocol) successStatus(resp *http.Response) uint16 {
	switch p {
	case ProtocolGRPC:
		if resp == nil {
			return grpcStatusUnknown
		}
		if vs := resp.Header.Values(headerGRPCStatus); len(vs) > 0 {
			return ParseGRPCStatus(vs[0])
		}
		if vs := resp.Trailer.Values(headerGRPCStatus); len(vs) > 0 {
			return ParseGRPCStatus(vs[0])
		}
		return grpcStatusUnknown
	default:
		if resp == nil {
			return http.StatusOK
		}
		return uint16(resp.StatusCode)
	}
}

// failureStatus 内部计算失败时的兜底状态码：HTTP 500，gRPC 13 (Internal)。
func (p Protocol) failureStatus() uint16 {
	switch p {
	case ProtocolGRPC:
		return 13
	default:
		return http.StatusInternalServerError
	}
}

// ParseGRPCStatus 解析 grpc-status 头的值。
//
// 只识别 "0" 到 "16"，其余任何输入（包括空串与前导零）都返回 2 (Unknown)。
func ParseGRPCStatus(value string) uint16 {
	switch len(value) {
	case 1:
		if c := value[0]; c >= '0' && c <= '9' {
			return uint16(c - '0')
		}
	case 2:
		if value[0] == '1' && value[1] >= '0' && value[1] <= '6' {
			return 10 + uint16(value[1]-'0')
		}
	}
	return grpcStatusUnknown
}
