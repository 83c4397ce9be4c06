package xlog

import (
	"context"
	"io"
	"log/slog"
)

// xlogger 是 LoggerWithLevel 的 slog 实现。
// 派生 Logger 共享同一个 LevelVar，级别调整对所有派生实例生效。
type xlogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ LoggerWithLevel = (*xlogger)(nil)

func newLogger(handler slog.Handler, level *slog.LevelVar) *xlogger {
	return &xlogger{logger: slog.New(handler), level: level}
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, LevelDebug, msg, attrs...)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, LevelInfo, msg, attrs...)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, LevelWarn, msg, attrs...)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, LevelError, msg, attrs...)
}

func (l *xlogger) Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return &xlogger{logger: l.logger.With(args...), level: l.level}
}

func (l *xlogger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *xlogger) GetLevel() Level {
	return l.level.Level()
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.logger.Enabled(ctx, level)
}

// Discard 返回丢弃所有输出的 Logger。
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	lv.Set(LevelError + 4)
	return newLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: lv}), lv)
}

// FromHandler 用已有的 slog.Handler 构建 Logger，主要用于测试捕获输出。
func FromHandler(h slog.Handler) Logger {
	lv := new(slog.LevelVar)
	lv.Set(LevelDebug)
	return newLogger(h, lv)
}
