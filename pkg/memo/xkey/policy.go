package xkey

import (
	"slices"
	"strings"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
)

// Kind 表示参数选择策略的类型。
type Kind int

const (
	// KindAll 所有已绑定参数参与 key（默认）。
	KindAll Kind = iota
	// KindInclude 仅列出的参数参与 key，按列表顺序。
	KindInclude
	// KindExclude 除列出的参数外全部参与 key，按绑定顺序。
	KindExclude
	// KindNone 不使用任何参数，同一函数的所有调用共享一个 key。
	KindNone
)

// String 返回策略类型名。
func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindInclude:
		return "include"
	case KindExclude:
		return "exclude"
	case KindNone:
		return "none"
	default:
		return "unknown"
	}
}

// Policy 是参数选择策略，零值等价于 All()。
type Policy struct {
	kind  Kind
	names []string
}

// All 返回使用全部参数的策略。
func All() Policy {
	return Policy{kind: KindAll}
}

// None 返回不使用任何参数的策略。
func None() Policy {
	return Policy{kind: KindNone}
}

// Include 返回只使用指定参数的策略。
// 不传任何参数名时等价于 None()。
func Include(names ...string) Policy {
	if len(names) == 0 {
		return None()
	}
	return Policy{kind: KindInclude, names: slices.Clone(names)}
}

// Exclude 返回排除指定参数的策略。
func Exclude(names ...string) Policy {
	return Policy{kind: KindExclude, names: slices.Clone(names)}
}

// NewPolicy 根据 key_args / ignore_key_args 配置构造策略。
//
// nil 与空切片语义不同：
//   - keyArgs 非 nil 且为空：None，所有调用共享一个 key
//   - keyArgs 非空：Include(keyArgs)
//   - 否则 ignoreKeyArgs 非 nil：Exclude(ignoreKeyArgs)
//   - 否则：All
func NewPolicy(keyArgs, ignoreKeyArgs []string) Policy {
	switch {
	case keyArgs != nil && len(keyArgs) == 0:
		return None()
	case len(keyArgs) > 0:
		return Include(keyArgs...)
	case ignoreKeyArgs != nil:
		return Exclude(ignoreKeyArgs...)
	default:
		return All()
	}
}

// Kind 返回策略类型。
func (p Policy) Kind() Kind {
	return p.kind
}

// Names 返回策略列出的参数名副本。
func (p Policy) Names() []string {
	return slices.Clone(p.names)
}

// String 返回便于日志输出的策略描述，如 "include(a,hello)"。
func (p Policy) String() string {
	switch p.kind {
	case KindInclude, KindExclude:
		return p.kind.String() + "(" + strings.Join(p.names, ",") + ")"
	default:
		return p.kind.String()
	}
}

// Select 从绑定结果中选出参与 key 的参数。
// Include 中未被绑定的参数名直接跳过。
func (p Policy) Select(b xbind.Bound) []xbind.Arg {
	switch p.kind {
	case KindNone:
		return nil
	case KindInclude:
		out := make([]xbind.Arg, 0, len(p.names))
		for _, name := range p.names {
			if v, ok := b.Get(name); ok {
				out = append(out, xbind.Arg{Name: name, Value: v})
			}
		}
		return out
	case KindExclude:
		args := b.Args()
		out := args[:0]
		for _, a := range args {
			if !slices.Contains(p.names, a.Name) {
				out = append(out, a)
			}
		}
		return out
	default:
		return b.Args()
	}
}
