// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持文件滚动
//   - xmetrics: 缓存调用的追踪与指标，基于 OpenTelemetry
package observability
