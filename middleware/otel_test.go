package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOTel(t *testing.T) {
	t.Run("creates span for request", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp))(okHandler)

		if _, err := handler(context.Background(), testRequest(protocol.MethodToolsList)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		spans := exporter.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Name != "mcp.tools/list" {
			t.Errorf("span name = %q", spans[0].Name)
		}
		if spans[0].Status.Code != codes.Ok {
			t.Errorf("status = %v, want Ok", spans[0].Status.Code)
		}
	})

	t.Run("tags tool name", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp))(okHandler)

		req := protocol.NewRequest(protocol.NumberID(1), protocol.MethodToolsCall, value.Object(map[string]value.Value{
			"name": value.String("find_symbols"),
		}))
		_, _ = handler(context.Background(), req)

		v, ok := spanAttr(exporter.GetSpans()[0].Attributes, "mcp.tool")
		if !ok || v.AsString() != "find_symbols" {
			t.Errorf("mcp.tool = %v, %v", v.AsString(), ok)
		}
	})

	t.Run("records protocol error code", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp))(func(context.Context, *protocol.Request) (*protocol.Response, error) {
			return nil, protocol.NewToolNotFound("x")
		})

		_, _ = handler(context.Background(), testRequest(protocol.MethodToolsCall))

		span := exporter.GetSpans()[0]
		if span.Status.Code != codes.Error {
			t.Errorf("status = %v, want Error", span.Status.Code)
		}
		v, ok := spanAttr(span.Attributes, "mcp.error_code")
		if !ok || v.AsInt64() != protocol.CodeToolNotFound {
			t.Errorf("mcp.error_code = %v, %v", v.AsInt64(), ok)
		}
	})

	t.Run("records error responses", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp))(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
			return protocol.NewErrorResponse(req.ID, protocol.NewInvalidParams()), nil
		})

		_, _ = handler(context.Background(), testRequest(protocol.MethodToolsCall))

		v, ok := spanAttr(exporter.GetSpans()[0].Attributes, "mcp.error_code")
		if !ok || v.AsInt64() != protocol.CodeInvalidParams {
			t.Errorf("mcp.error_code = %v, %v", v.AsInt64(), ok)
		}
	})

	t.Run("records span error events", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp))(func(context.Context, *protocol.Request) (*protocol.Response, error) {
			return nil, errors.New("handler failed")
		})

		_, _ = handler(context.Background(), testRequest(protocol.MethodToolsCall))

		if len(exporter.GetSpans()[0].Events) == 0 {
			t.Error("expected error event on span")
		}
	})

	t.Run("skips methods", func(t *testing.T) {
		exporter, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp), WithOTelSkipMethods(protocol.MethodInitialized))(okHandler)

		_, _ = handler(context.Background(), testRequest(protocol.MethodInitialized))
		if n := len(exporter.GetSpans()); n != 0 {
			t.Errorf("expected no spans, got %d", n)
		}
	})

	t.Run("records metrics", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer mp.Shutdown(context.Background())

		_, tp := newTestTracer(t)
		handler := OTel(WithTracerProvider(tp), WithMeterProvider(mp), WithOTelServiceName("test"))(okHandler)
		for i := 0; i < 3; i++ {
			_, _ = handler(context.Background(), testRequest(protocol.MethodToolsList))
		}

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			t.Fatalf("collect: %v", err)
		}

		var total int64
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name != "mcp.server.requests" {
					continue
				}
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("requests data = %T", m.Data)
				}
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
		if total != 3 {
			t.Errorf("request count = %d, want 3", total)
		}
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, tp := newTestTracer(t)
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	AddSpanEvent(ctx, "cache.hit", attribute.String("key", "k"))
	span.End()

	events := exporter.GetSpans()[0].Events
	if len(events) != 1 || events[0].Name != "cache.hit" {
		t.Errorf("events = %+v", events)
	}
}
