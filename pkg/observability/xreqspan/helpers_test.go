package xreqspan_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

// recordingSpan 记录所有调用的跨度，用于断言字段与调用顺序。
type recordingSpan struct {
	mu     sync.Mutex
	fields map[string]any
	events []string
	active int
	ended  int
}

type activeSpanKey struct{}

func newRecordingSpan() *recordingSpan {
	return &recordingSpan{fields: make(map[string]any)}
}

func (s *recordingSpan) Enter(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active++
	s.events = append(s.events, "enter")
	return context.WithValue(ctx, activeSpanKey{}, s)
}

func (s *recordingSpan) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	s.events = append(s.events, "exit")
}

func (s *recordingSpan) Record(name string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[name] = value
	s.events = append(s.events, name)
	return true
}

func (s *recordingSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended++
	s.events = append(s.events, "end")
}

func (s *recordingSpan) field(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[name]
	return v, ok
}

func (s *recordingSpan) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active > 0
}

func (s *recordingSpan) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// newRecordingLayer 创建每个请求都使用同一个 recordingSpan 的 Layer。
func newRecordingLayer(t *testing.T, opts ...xreqspan.Option) (*xreqspan.Layer, *recordingSpan) {
	t.Helper()
	span := newRecordingSpan()
	layer, err := xreqspan.New(func(context.Context) xspan.Span { return span }, opts...)
	require.NoError(t, err)
	return layer, span
}

// spanFromContext 返回处理器 ctx 中处于作用域内的 recordingSpan。
func spanFromContext(ctx context.Context) *recordingSpan {
	s, _ := ctx.Value(activeSpanKey{}).(*recordingSpan)
	return s
}
