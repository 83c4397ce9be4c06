package xlog

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认轮转参数
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 7
	defaultMaxAgeDays = 30
)

// RotationOption 调整文件轮转参数。
type RotationOption func(*lumberjack.Logger)

// WithMaxSize 单个文件最大尺寸（MB）
func WithMaxSize(mb int) RotationOption {
	return func(l *lumberjack.Logger) {
		if mb > 0 {
			l.MaxSize = mb
		}
	}
}

// WithMaxBackups 保留的历史文件数
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) {
		if n >= 0 {
			l.MaxBackups = n
		}
	}
}

// WithMaxAge 历史文件保留天数
func WithMaxAge(days int) RotationOption {
	return func(l *lumberjack.Logger) {
		if days >= 0 {
			l.MaxAge = days
		}
	}
}

// WithCompress 是否压缩历史文件
func WithCompress(on bool) RotationOption {
	return func(l *lumberjack.Logger) {
		l.Compress = on
	}
}

// Builder 构建 Logger。非并发安全，仅用于初始化阶段。
type Builder struct {
	level     Level
	format    string
	output    io.Writer
	rotator   *lumberjack.Logger
	addSource bool
	err       error
}

// New 创建 Builder。默认 info 级别、text 格式、输出到 stderr。
func New() *Builder {
	return &Builder{
		level:  LevelInfo,
		format: "text",
		output: os.Stderr,
	}
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.level = level
	return b
}

// SetLevelString 按字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	b.level = level
	return b
}

// SetFormat 设置输出格式：text 或 json
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "text", "json":
		b.format = f
	default:
		b.err = ErrInvalidFormat
	}
	return b
}

// SetOutput 设置输出目标，会覆盖之前的 SetRotation。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = ErrNilOutput
		return b
	}
	b.output = w
	b.rotator = nil
	return b
}

// SetRotation 输出到按大小轮转的文件。
func (b *Builder) SetRotation(filename string, opts ...RotationOption) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(filename) == "" {
		b.err = ErrEmptyFilename
		return b
	}
	r := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
		LocalTime:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	b.rotator = r
	b.output = r
	return b
}

// SetAddSource 是否记录调用位置
func (b *Builder) SetAddSource(on bool) *Builder {
	b.addSource = on
	return b
}

// Build 创建 Logger。cleanup 负责关闭轮转文件，未启用轮转时为空操作。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	lv := new(slog.LevelVar)
	lv.Set(b.level)
	opts := &slog.HandlerOptions{Level: lv, AddSource: b.addSource}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}

	cleanup := func() error { return nil }
	if r := b.rotator; r != nil {
		cleanup = r.Close
	}
	return newLogger(handler, lv), cleanup, nil
}
