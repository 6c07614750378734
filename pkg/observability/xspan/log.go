package xspan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/omeyang/xspan/pkg/observability/xlog"
)

// Log 返回基于结构化日志的跨度后端。
//
// 跨度级别未启用时返回 Noop 跨度。跨度作用域内的日志带上以跨度名为分组的已记录字段，
// End 时以跨度级别输出一条汇总日志，包含全部已记录字段与耗时。
func Log(logger xlog.Logger) Backend {
	if logger == nil {
		logger = xlog.Default()
	}
	return &logBackend{logger: logger}
}

type logBackend struct {
	logger xlog.Logger
}

func (b *logBackend) Start(ctx context.Context, schema *Schema) Span {
	if !b.logger.Enabled(ctx, schema.Level()) {
		return Noop()
	}
	values := make([]any, schema.Len())
	for i, f := range schema.fields {
		values[i] = f.Value
	}
	return &logSpan{
		logger: b.logger,
		schema: schema,
		values: values,
		start:  time.Now(),
	}
}

type logSpan struct {
	logger xlog.Logger
	schema *Schema
	start  time.Time

	mu     sync.Mutex
	values []any

	endOnce sync.Once
}

var _ xlog.AttrSource = (*logSpan)(nil)

func (s *logSpan) Enter(ctx context.Context) context.Context {
	return xlog.WithAttrSource(ctx, s)
}

func (s *logSpan) Exit() {}

func (s *logSpan) Record(name string, value any) bool {
	i, ok := s.schema.Index(name)
	if !ok || value == nil {
		return false
	}
	v := normalize(value)
	s.mu.Lock()
	s.values[i] = v
	s.mu.Unlock()
	return true
}

// LogAttrs 返回以跨度名分组的已记录字段。
func (s *logSpan) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.GroupAttrs(s.schema.Name(), s.fieldAttrs()...)}
}

func (s *logSpan) fieldAttrs() []slog.Attr {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := make([]slog.Attr, 0, len(s.values))
	for i, v := range s.values {
		if v != nil {
			attrs = append(attrs, slog.Any(s.schema.fields[i].Name, v))
		}
	}
	return attrs
}

func (s *logSpan) End() {
	s.endOnce.Do(func() {
		s.logger.Log(context.Background(), s.schema.Level(), "span closed",
			slog.GroupAttrs(s.schema.Name(), s.fieldAttrs()...),
			slog.Duration("elapsed", time.Since(s.start)),
		)
	})
}
