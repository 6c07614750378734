package xreqspan

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/omeyang/xspan/xreqspan"

	metricRequestTotal    = "xspan.request.total"
	metricRequestDuration = "xspan.request.duration"
)

type metrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(instrumentationName)

	total, err := meter.Int64Counter(
		metricRequestTotal,
		metric.WithDescription("total requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create counter failed: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create histogram failed: %w", err)
	}

	return &metrics{total: total, duration: duration}, nil
}

// record 记录一次请求。m 为 nil 时不记录。
//
// 取消的请求没有状态码，只带协议与 outcome 标签。
// 使用不可取消的 ctx，请求 ctx 已取消时指标仍能写入。
func (m *metrics) record(ctx context.Context, protocol Protocol, st state, status uint16, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs,
		attribute.String("network.protocol.name", protocol.String()),
		attribute.String("outcome", st.outcome()),
	)
	if st != statePending {
		attrs = append(attrs, attribute.Int("http.response.status_code", int(status)))
	}

	ctx = context.WithoutCancel(ctx)
	set := metric.WithAttributes(attrs...)
	m.total.Add(ctx, 1, set)
	m.duration.Record(ctx, elapsed.Seconds(), set)
}
