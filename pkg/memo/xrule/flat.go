package xrule

import (
	"context"
	"sync"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Flat 是装饰时直接给出的扁平配置。
//
// 生效配置 = Merge(Overrides, GroupOverrides[group])，显式给出的字段优先。
// group 依次取 Resolve 的参数、Flat.Group、Overrides["group"]。
// GroupOverrides 中的 reset 会被丢弃，Overrides 顶层的 reset 有效。
// 两个 map 在首次 Resolve 时校验一次，Flat 之后不可复制。
type Flat struct {
	Enabled   *bool
	UseCache  *bool
	Verbose   *bool
	Reset     *bool
	KeyPrefix *string
	Group     string

	// nil 表示未指定，非 nil 空切片表示不使用任何参数。
	KeyArgs       []string
	IgnoreKeyArgs []string

	Overrides      map[string]any
	GroupOverrides map[string]any

	// Logger 为 nil 时使用 xlog.Default()
	Logger xlog.Logger

	once  sync.Once
	state *flatState
}

var _ Resolver = (*Flat)(nil)

// flatState 是校验后的 Flat，按 group 预先合并好。
type flatState struct {
	group  string
	base   Effective
	groups map[string]Effective
}

// normalize 在首次解析时校验 Overrides 与 GroupOverrides，诊断只记录一次。
// 之后修改这两个字段不再生效。
func (f *Flat) normalize() *flatState {
	f.once.Do(func() {
		log := f.Logger
		if log == nil {
			log = xlog.Default()
		}
		f.state = buildFlat(f.Overrides, f.GroupOverrides, log.With(xlog.Component("xrule")))
	})
	return f.state
}

func buildFlat(rawOverrides, rawGroups map[string]any, log xlog.Logger) *flatState {
	warn := func(rule string, problems []string) {
		for _, p := range problems {
			log.Warn(context.Background(), p, xlog.Rule(rule))
		}
	}

	overrides, problems, ok := checkRule(FromAny(rawOverrides), flatFields, false)
	warn("overrides", problems)
	if !ok {
		overrides = MapOf(nil)
	}

	st := &flatState{groups: make(map[string]Effective, len(rawGroups))}
	if x, ok := overrides.Get(fieldGroup); ok {
		st.group = asString(x.Scalar())
	}

	var reset bool
	if x, ok := overrides.Get(fieldReset); ok {
		reset, _ = asBool(x.Scalar())
	}
	effective := func(rule string, v Value, rules []string) Effective {
		e := Effective{Matched: true, Enabled: true, UseCache: true, Rules: rules}
		warn(rule, fill(&e, v))
		e.Reset = reset
		return e
	}

	st.base = effective("overrides", overrides, []string{"overrides"})
	for g, raw := range rawGroups {
		name := "group_overrides." + g
		gov, problems, ok := checkRule(FromAny(raw), flatFields, true)
		warn(name, problems)
		if !ok {
			continue
		}
		st.groups[g] = effective(name, Merge(overrides, gov), []string{"overrides", name})
	}
	return st
}

// Resolve 实现 Resolver。Flat 总是匹配。
func (f *Flat) Resolve(group, _ string) Effective {
	st := f.normalize()

	g := group
	if g == "" {
		g = f.Group
	}
	if g == "" {
		g = st.group
	}

	e, ok := st.groups[g]
	if !ok {
		e = st.base
	}
	e = e.clone()
	e.Group = g

	e = Override{
		Enabled:   f.Enabled,
		UseCache:  f.UseCache,
		Reset:     f.Reset,
		Verbose:   f.Verbose,
		KeyPrefix: f.KeyPrefix,
	}.Apply(e)
	if f.KeyArgs != nil {
		e.KeyArgs = cloneNames(f.KeyArgs)
	}
	if f.IgnoreKeyArgs != nil {
		e.IgnoreKeyArgs = cloneNames(f.IgnoreKeyArgs)
	}
	return e
}
