package xlog

import (
	"context"
	"log/slog"
)

// Logger 是各包共用的日志接口。
//
// 只接受 slog.Attr，属性名统一由 attrs.go 中的构造函数给出；
// ctx 为 nil 时按 context.Background() 处理。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以运行时决定的级别记录，如 verbose 配置把命中日志从 Debug 提升到 Info。
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger，级别与父 Logger 共享。
	With(attrs ...slog.Attr) Logger
}

// LoggerWithLevel 是 Build 的返回类型，可在运行时调整级别。
type LoggerWithLevel interface {
	Logger

	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}
