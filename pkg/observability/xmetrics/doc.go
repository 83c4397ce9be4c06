// Package xmetrics 为缓存调用提供观测接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span 接口，默认实现基于 OpenTelemetry。
// 每次被缓存函数的调用对应一个跨度，结束时记录调用结果（Outcome）。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Function: "github.com/acme/app/report.Build",
//		Group:    "db",
//	})
//	defer func() { span.End(xmetrics.Result{Outcome: xmetrics.OutcomeHit, Err: err}) }()
//
// # 指标命名
//
//   - xmemo.call.total     调用次数
//   - xmemo.call.duration  调用耗时（秒）
//
// 指标属性：group / outcome / status。函数标识只写入 span，避免指标基数膨胀。
package xmetrics
