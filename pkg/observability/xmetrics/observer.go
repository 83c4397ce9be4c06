package xmetrics

import "context"

// Outcome 表示一次缓存调用的结果。
type Outcome string

const (
	// OutcomeBypass 缓存未启用或未匹配规则，直接执行。
	OutcomeBypass Outcome = "bypass"
	// OutcomeHit 命中缓存，未执行函数。
	OutcomeHit Outcome = "hit"
	// OutcomeMiss 未命中，执行并写入。
	OutcomeMiss Outcome = "miss"
	// OutcomeRefresh reset 或 use_cache=false，强制执行并覆盖。
	OutcomeRefresh Outcome = "refresh"
)

// Status 表示调用状态。
type Status string

const (
	// StatusOK 表示成功。
	StatusOK Status = "ok"
	// StatusError 表示失败。
	StatusError Status = "error"
)

// Attr 表示观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 定义观测跨度的创建参数。
type SpanOptions struct {
	// Function 被缓存函数的标识，同时作为 span 名称。
	Function string
	// Group 函数所属分组，可为空。
	Group string
	// Attrs 附加属性。
	Attrs []Attr
}

// Result 表示观测跨度结束时的结果。
type Result struct {
	// Outcome 调用结果；为空时不写入 outcome 属性。
	Outcome Outcome
	// Err 调用错误，非 nil 时状态为 error。
	Err error
	// Attrs 附加属性。
	Attrs []Attr
}

// Status 根据 Err 推导状态。
func (r Result) Status() Status {
	if r.Err != nil {
		return StatusError
	}
	return StatusOK
}

// Span 表示一次观测跨度。
type Span interface {
	// End 结束观测并记录结果，多次调用只生效一次。
	End(result Result)
}

// Observer 定义观测接口。
type Observer interface {
	// Start 开始一次观测跨度。
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

// Start 返回 ctx 和空跨度。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

// End 空实现。
func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测。
// 保证返回非 nil 的 ctx 与 Span：nil ctx 替换为 context.Background()，
// nil observer 或 observer 返回 nil Span 时使用 NoopSpan。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
