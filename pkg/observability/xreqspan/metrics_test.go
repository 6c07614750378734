package xreqspan_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
)

func collectTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "xspan.request.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				totals[outcome.AsString()] += dp.Value
			}
		}
	}
	return totals
}

func TestMetrics_Outcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	layer, _ := newRecordingLayer(t, xreqspan.WithMeterProvider(mp))

	ok := layer.Wrap(xreqspan.HandlerFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	}))
	failing := layer.Wrap(xreqspan.HandlerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("nope")
	}))
	panicking := layer.Wrap(xreqspan.HandlerFunc(func(*http.Request) (*http.Response, error) {
		panic("gone")
	}))

	for range 2 {
		_, err := ok.Serve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
	}
	_, err := failing.Serve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Error(t, err)
	assert.Panics(t, func() {
		_, _ = panicking.Serve(httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, map[string]int64{"ok": 2, "error": 1, "cancelled": 1}, collectTotals(t, reader))
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	layer, span := newRecordingLayer(t)
	_, err := layer.Wrap(xreqspan.HandlerFunc(func(*http.Request) (*http.Response, error) {
		return nil, nil
	})).Serve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, span.ended)
}
