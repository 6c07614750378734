package xspan

import (
	"context"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"unicode/utf8"

	"github.com/omeyang/xspan/pkg/observability/xlog"
)

// Span 结构化跨度。
//
// 作用域通过 context 承载：Enter 返回跨度处于活跃状态的 ctx，Exit 结束本次作用域。
// 同一跨度可以被多次 Enter/Exit，每次推进被包装的计算时进入一次。
type Span interface {
	// Enter 进入跨度作用域，返回的 ctx 中跨度为当前跨度。
	Enter(ctx context.Context) context.Context

	// Exit 退出 Enter 开启的作用域。
	Exit()

	// Record 记录字段值，字段未在 Schema 中声明时忽略并返回 false。
	Record(name string, value any) bool

	// End 释放跨度，幂等。
	End()
}

// Backend 跨度后端，按 Schema 创建跨度。
type Backend interface {
	Start(ctx context.Context, schema *Schema) Span
}

// Spanner 跨度工厂。ctx 用于携带远端父上下文。
type Spanner func(ctx context.Context) Span

// NewSpanner 校验字段集合并返回跨度工厂。
//
// 字段集合只在这里校验一次，之后每个请求直接复用同一个 Schema。
func NewSpanner(backend Backend, name string, level xlog.Level, extras ...Field) (Spanner, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	schema, err := NewSchema(name, level, extras...)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) Span {
		if ctx == nil {
			ctx = context.Background()
		}
		return backend.Start(ctx, schema)
	}, nil
}

// MustSpanner 与 NewSpanner 相同，失败时 panic。适用于包级变量初始化。
func MustSpanner(backend Backend, name string, level xlog.Level, extras ...Field) Spanner {
	s, err := NewSpanner(backend, name, level, extras...)
	if err != nil {
		panic(err)
	}
	return s
}

// Noop 返回不记录任何内容的跨度。
func Noop() Span { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) Enter(ctx context.Context) context.Context { return ctx }
func (noopSpan) Exit()                                     {}
func (noopSpan) Record(string, any) bool                   { return false }
func (noopSpan) End()                                      {}

// normalize 将字段值归一化为 string、bool、int64、float64 之一。
//
// 非 UTF-8 的字节序列以转义形式保留，保证后端总能输出。
func normalize(v any) any {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return strconv.Quote(string(v))
	case bool:
		return v
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return strconv.FormatUint(v, 10)
	case float64:
		return v
	case float32:
		return float64(v)
	case netip.Addr:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}
