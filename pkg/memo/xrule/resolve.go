package xrule

import (
	"context"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Resolve 计算 (group, identity) 的生效配置，没有规则匹配时 Matched 为 false。
func (d *Document) Resolve(group, identity string) Effective {
	if d == nil {
		return Effective{Group: group}
	}
	var e Effective
	switch d.variant {
	case VariantProps:
		e = d.resolveProps(group, identity)
	case VariantCached:
		e = d.resolveCached(group, identity)
	default:
		e = Effective{Group: group}
	}
	e.Reset = d.refresh
	return e
}

func (d *Document) resolveProps(group, identity string) Effective {
	for i := range d.props {
		r := &d.props[i]
		if !r.enabled {
			continue
		}
		byGroup := r.group != "" && r.group == group
		byPattern := r.re != nil && r.re.MatchString(identity)
		if !byGroup && !byPattern {
			continue
		}
		return Effective{
			Matched:   true,
			Enabled:   d.enabled,
			UseCache:  r.useCache,
			Verbose:   d.verbose,
			KeyPrefix: d.keyPrefix,
			Group:     group,
			Rules:     []string{topProps + "." + r.key},
		}
	}
	return Effective{Group: group}
}

func (d *Document) resolveCached(group, identity string) Effective {
	merged := MapOf(map[string]Value{
		fieldVerbose:   Scalar(d.verbose),
		fieldKeyPrefix: Scalar(d.keyPrefix),
	})
	var rules []string

	if d.hasDefaults {
		merged = Merge(merged, d.defaults)
		rules = append(rules, "cached.defaults")
	}
	if g, ok := d.groups[group]; ok && group != "" {
		merged = Merge(merged, g)
		rules = append(rules, "cached.groups."+group)
	}

	first := ""
	for i := range d.methods {
		m := &d.methods[i]
		if !m.matches(identity) {
			continue
		}
		name := "cached.methods." + m.key
		switch {
		case first == "":
			first = name
		case !m.multiple:
			d.log.Warn(context.Background(), "extra matching rule skipped, set match_multiple to merge it",
				xlog.Rule(name), xlog.Function(identity), xlog.Group(group))
			continue
		}
		merged = Merge(merged, m.rule)
		rules = append(rules, name)
	}

	if len(rules) == 0 {
		return Effective{Group: group}
	}
	e := Effective{Matched: true, Enabled: true, UseCache: true, Group: group, Rules: rules}
	for _, p := range fill(&e, merged) {
		d.log.Warn(context.Background(), p, xlog.Function(identity), xlog.Group(group))
	}
	// 顶层 enabled 是总开关
	e.Enabled = e.Enabled && d.enabled
	return e
}
