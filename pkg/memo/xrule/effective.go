package xrule

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
)

// 规则字段名
const (
	fieldEnabled       = "enabled"
	fieldUseCache      = "use_cache"
	fieldReset         = "reset"
	fieldVerbose       = "verbose"
	fieldKeyPrefix     = "key_prefix"
	fieldGroup         = "group"
	fieldPattern       = "pattern"
	fieldKeyArgs       = "key_args"
	fieldIgnoreKeyArgs = "ignore_key_args"
	fieldMatchMultiple = "match_multiple"
)

// Resolver 计算 (group, identity) 的生效配置。实现必须并发安全。
type Resolver interface {
	Resolve(group, identity string) Effective
}

// Effective 是一个函数调用的生效配置。
//
// KeyArgs 与 IgnoreKeyArgs 保留 nil 与空切片的区别：
// KeyArgs 为非 nil 空切片表示不使用任何参数。
type Effective struct {
	Matched       bool     `json:"matched"`
	Enabled       bool     `json:"enabled"`
	UseCache      bool     `json:"use_cache"`
	Reset         bool     `json:"reset"`
	Verbose       bool     `json:"verbose"`
	KeyPrefix     string   `json:"key_prefix"`
	Group         string   `json:"group"`
	KeyArgs       []string `json:"key_args"`
	IgnoreKeyArgs []string `json:"ignore_key_args"`
	// Rules 依次参与合并的规则，用于诊断输出。
	Rules []string `json:"rules,omitempty"`
}

// Active 有匹配规则且启用时才走缓存。
func (e Effective) Active() bool {
	return e.Matched && e.Enabled
}

// Policy 由 KeyArgs/IgnoreKeyArgs 构造参数选择策略。
func (e Effective) Policy() xkey.Policy {
	return xkey.NewPolicy(e.KeyArgs, e.IgnoreKeyArgs)
}

func (e Effective) clone() Effective {
	e.KeyArgs = cloneNames(e.KeyArgs)
	e.IgnoreKeyArgs = cloneNames(e.IgnoreKeyArgs)
	e.Rules = slices.Clone(e.Rules)
	return e
}

// cloneNames 复制切片并保留 nil 与空切片的区别。
func cloneNames(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// Override 是调用方直接给出的覆盖项，作用在任何解析结果之上。
// reset 只能通过它（或文档顶层 refresh）设置。
type Override struct {
	Enabled   *bool
	UseCache  *bool
	Reset     *bool
	Verbose   *bool
	KeyPrefix *string
}

// Apply 返回应用覆盖后的配置。
func (o Override) Apply(e Effective) Effective {
	if o.Enabled != nil {
		e.Enabled = *o.Enabled
	}
	if o.UseCache != nil {
		e.UseCache = *o.UseCache
	}
	if o.Reset != nil {
		e.Reset = *o.Reset
	}
	if o.Verbose != nil {
		e.Verbose = *o.Verbose
	}
	if o.KeyPrefix != nil {
		e.KeyPrefix = *o.KeyPrefix
	}
	return e
}

// IsZero 没有任何覆盖项
func (o Override) IsZero() bool {
	return o.Enabled == nil && o.UseCache == nil && o.Reset == nil && o.Verbose == nil && o.KeyPrefix == nil
}

// Bool 返回 b 的指针，便于构造 Override。
func Bool(b bool) *bool { return &b }

// String 返回 s 的指针。
func String(s string) *string { return &s }

// fill 把合并后的规则值读入 e。类型不符的字段被忽略并返回问题描述。
func fill(e *Effective, v Value) []string {
	var problems []string
	readBool := func(name string, dst *bool) {
		x, ok := v.Get(name)
		if !ok || x.Scalar() == nil {
			return
		}
		b, ok := asBool(x.Scalar())
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: want bool, got %T", name, x.Scalar()))
			return
		}
		*dst = b
	}
	readNames := func(name string, dst *[]string) {
		x, ok := v.Get(name)
		if !ok || x.Scalar() == nil {
			return
		}
		names, ok := asStrings(x.Scalar())
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: want list, got %T", name, x.Scalar()))
			return
		}
		*dst = names
	}

	readBool(fieldEnabled, &e.Enabled)
	readBool(fieldUseCache, &e.UseCache)
	readBool(fieldVerbose, &e.Verbose)
	if x, ok := v.Get(fieldKeyPrefix); ok && x.Scalar() != nil {
		e.KeyPrefix = fmt.Sprint(x.Scalar())
	}
	readNames(fieldKeyArgs, &e.KeyArgs)
	readNames(fieldIgnoreKeyArgs, &e.IgnoreKeyArgs)
	return problems
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	default:
		return false, false
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func asStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return cloneNames(t), true
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, asString(x))
		}
		return out, true
	default:
		return nil, false
	}
}
