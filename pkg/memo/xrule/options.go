package xrule

import (
	"time"

	"github.com/omeyang/xmemo/pkg/config/xconf"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

const defaultCapacity = 128

type options struct {
	logger   xlog.Logger
	capacity int
	debounce time.Duration
	conf     []xconf.Option
}

// Option 配置 Parse 与 Registry。
type Option func(*options)

// WithLogger 设置诊断输出的 Logger，nil 被忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCapacity 设置注册表最多保留的配置数，默认 128。
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithDebounce 设置 Registry.Watch 的防抖窗口。
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithConfigOptions 透传给 xconf 的加载选项。
func WithConfigOptions(opts ...xconf.Option) Option {
	return func(o *options) {
		o.conf = append(o.conf, opts...)
	}
}

func applyOptions(opts []Option) *options {
	o := &options{logger: xlog.Default(), capacity: defaultCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.logger = o.logger.With(xlog.Component("xrule"))
	return o
}
