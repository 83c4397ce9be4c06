package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xmemo/xmetrics"
	unknownFunction            = "unknown"

	metricCallTotal    = "xmemo.call.total"
	metricCallDuration = "xmemo.call.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称，空字符串被忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，默认使用全局 provider。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认使用全局 provider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricCallTotal,
		metric.WithDescription("memoized function calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInstrument, metricCallTotal, err)
	}

	duration, err := meter.Float64Histogram(
		metricCallDuration,
		metric.WithDescription("memoized function call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInstrument, metricCallDuration, err)
	}

	return &otelObserver{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	fn := opts.Function
	if fn == "" {
		fn = unknownFunction
	}

	attrs := make([]attribute.KeyValue, 0, 2+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String(AttrFunction, fn),
		attribute.String(AttrGroup, opts.Group),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(ctx, fn,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, &otelSpan{
		span:     span,
		observer: o,
		ctx:      ctx,
		group:    opts.Group,
		start:    time.Now(),
	}
}

type otelSpan struct {
	span     trace.Span
	observer *otelObserver
	ctx      context.Context
	group    string
	start    time.Time
	endOnce  sync.Once
}

func (s *otelSpan) End(result Result) {
	s.endOnce.Do(func() {
		status := result.Status()
		if result.Err != nil {
			s.span.RecordError(result.Err)
			s.span.SetStatus(codes.Error, result.Err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}

		attrs := attrsToOTel(result.Attrs)
		if result.Outcome != "" {
			attrs = append(attrs, attribute.String(AttrOutcome, string(result.Outcome)))
		}
		if len(attrs) > 0 {
			s.span.SetAttributes(attrs...)
		}
		s.span.End()

		// 请求 ctx 取消后仍需记录指标
		metricsCtx := context.WithoutCancel(s.ctx)
		set := metric.WithAttributes(metricAttrs(s.group, result.Outcome, status)...)
		s.observer.total.Add(metricsCtx, 1, set)
		s.observer.duration.Record(metricsCtx, time.Since(s.start).Seconds(), set)
	})
}

func metricAttrs(group string, outcome Outcome, status Status) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrGroup, group),
		attribute.String(AttrOutcome, string(outcome)),
		attribute.String(AttrStatus, string(status)),
	}
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" || attr.Value == nil {
			continue
		}
		converted = append(converted, toKeyValue(attr))
	}
	return converted
}

func toKeyValue(attr Attr) attribute.KeyValue {
	switch v := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, v)
	case bool:
		return attribute.Bool(attr.Key, v)
	case int:
		return attribute.Int(attr.Key, v)
	case int64:
		return attribute.Int64(attr.Key, v)
	case float64:
		return attribute.Float64(attr.Key, v)
	case time.Duration:
		return attribute.Int64(attr.Key, v.Nanoseconds())
	default:
		return attribute.String(attr.Key, fmt.Sprint(v))
	}
}
