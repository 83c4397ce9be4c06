package xmemo

import (
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xrule"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

// Option 配置 Memoizer。
type Option func(*Memoizer)

// WithLogger 设置 Logger，nil 被忽略。默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(m *Memoizer) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver 设置观测器，默认不观测。
func WithObserver(o xmetrics.Observer) Option {
	return func(m *Memoizer) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithCodec 设置结果编解码器，默认 CBOR。
func WithCodec(c Codec) Option {
	return func(m *Memoizer) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithEncoder 设置指纹编码器，默认 xkey.NewEncoder()。
func WithEncoder(e *xkey.Encoder) Option {
	return func(m *Memoizer) {
		if e != nil {
			m.encoder = e
		}
	}
}

// WithStrictStore 使存储与编解码失败以 ErrStore 返回给调用方。
// 默认这些失败只记录日志：读失败按未命中处理，写失败跳过写入。
func WithStrictStore() Option {
	return func(m *Memoizer) {
		m.strict = true
	}
}

// DecorateOption 配置单个被缓存函数。
type DecorateOption func(*decoration)

type decoration struct {
	name     string
	group    string
	keyArgs  []string
	ignore   []string
	policy   bool
	override xrule.Override
}

// WithName 覆盖函数标识，默认取运行时符号名。
func WithName(name string) DecorateOption {
	return func(d *decoration) {
		if name != "" {
			d.name = name
		}
	}
}

// WithGroup 设置函数所属分组，用于规则匹配，也是存储条目的 tag。
func WithGroup(group string) DecorateOption {
	return func(d *decoration) {
		d.group = group
	}
}

// WithKeyArgs 只用指定参数构造 key，按给出的顺序。
// 不传参数名表示不使用任何参数，所有调用共享一个 key。
// 装饰时给出的参数选择优先于配置中的 key_args/ignore_key_args。
func WithKeyArgs(names ...string) DecorateOption {
	return func(d *decoration) {
		d.keyArgs = append(make([]string, 0, len(names)), names...)
		d.policy = true
	}
}

// WithIgnoreKeyArgs 构造 key 时排除指定参数。与 WithKeyArgs 同时给出时 WithKeyArgs 优先。
func WithIgnoreKeyArgs(names ...string) DecorateOption {
	return func(d *decoration) {
		d.ignore = append(make([]string, 0, len(names)), names...)
		d.policy = true
	}
}

// WithOverride 设置作用于任何解析结果之上的覆盖项，如 reset。
func WithOverride(o xrule.Override) DecorateOption {
	return func(d *decoration) {
		d.override = o
	}
}
