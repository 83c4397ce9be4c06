package xrule

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Variant 规则表形态
type Variant int

const (
	// VariantEmpty 文档中没有任何规则
	VariantEmpty Variant = iota
	// VariantProps 旧的 props 形态
	VariantProps
	// VariantCached 分层 cached 形态
	VariantCached
)

// String 返回形态名。
func (v Variant) String() string {
	switch v {
	case VariantProps:
		return "props"
	case VariantCached:
		return "cached"
	default:
		return "empty"
	}
}

// 文档顶层字段
const (
	topProps   = "props"
	topCached  = "cached"
	topRefresh = "refresh"
)

var topFields = fieldSet(fieldEnabled, fieldKeyPrefix, topRefresh, fieldReset, fieldVerbose, topProps, topCached)

type propRule struct {
	key      string
	group    string
	re       *regexp.Regexp
	enabled  bool
	useCache bool
}

type methodRule struct {
	key      string
	re       *regexp.Regexp
	multiple bool
	rule     Value
}

// matches 字面后缀或从开头匹配的正则。
func (m *methodRule) matches(identity string) bool {
	if strings.HasSuffix(identity, m.key) {
		return true
	}
	return m.re != nil && m.re.MatchString(identity)
}

// Document 是解析后的规则表。构建后只读，并发安全。
type Document struct {
	variant   Variant
	enabled   bool
	keyPrefix string
	refresh   bool
	verbose   bool

	props []propRule

	hasDefaults bool
	defaults    Value
	groups      map[string]Value
	methods     []methodRule

	log   xlog.Logger
	mu    sync.Mutex
	diags []string
}

// Parse 解析规则表文档。配置问题不会导致失败，只产生诊断。
func Parse(raw map[string]any, opts ...Option) *Document {
	o := applyOptions(opts)
	d := &Document{enabled: true, groups: map[string]Value{}, log: o.logger}
	d.parse(FromAny(raw))
	return d
}

// Disabled 返回永远不匹配的文档，用于加载失败的配置。
func Disabled() *Document {
	return &Document{log: xlog.Discard(), groups: map[string]Value{}}
}

// Variant 返回文档形态。
func (d *Document) Variant() Variant { return d.variant }

// Diagnostics 返回解析与解析期间记录的诊断。
func (d *Document) Diagnostics() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.diags...)
}

func (d *Document) warn(rule, msg string, attrs ...slog.Attr) {
	d.mu.Lock()
	if rule != "" {
		d.diags = append(d.diags, rule+": "+msg)
	} else {
		d.diags = append(d.diags, msg)
	}
	d.mu.Unlock()

	attrs = append(attrs, xlog.Rule(rule))
	d.log.Warn(context.Background(), msg, attrs...)
}

func (d *Document) parse(root Value) {
	for _, k := range root.Keys() {
		if _, ok := topFields[k]; !ok {
			d.warn("", fmt.Sprintf("unknown top-level field %q ignored", k))
		}
	}
	if _, ok := root.Get(fieldReset); ok {
		d.warn("", "top-level reset is ignored, use refresh")
	}

	top := Effective{Enabled: true}
	for _, p := range fill(&top, root.without(fieldKeyArgs, fieldIgnoreKeyArgs)) {
		d.warn("", p)
	}
	d.enabled = top.Enabled
	d.keyPrefix = top.KeyPrefix
	d.verbose = top.Verbose
	if x, ok := root.Get(topRefresh); ok {
		if b, ok := asBool(x.Scalar()); ok {
			d.refresh = b
		} else {
			d.warn("", fmt.Sprintf("refresh: want bool, got %T", x.Scalar()))
		}
	}

	cached, hasCached := root.Get(topCached)
	props, hasProps := root.Get(topProps)
	switch {
	case hasCached:
		if hasProps {
			d.warn("", "both cached and props present, props ignored")
		}
		d.variant = VariantCached
		d.parseCached(cached)
	case hasProps:
		d.variant = VariantProps
		d.parseProps(props)
	}
}

func (d *Document) parseProps(props Value) {
	if !props.IsMap() {
		d.warn(topProps, "props must be a mapping")
		return
	}
	for _, key := range sortedRuleKeys(props) {
		name := topProps + "." + key
		raw, _ := props.Get(key)
		rule, problems, ok := checkRule(raw, propsFields, false)
		for _, p := range problems {
			d.warn(name, p)
		}
		if !ok {
			continue
		}

		r := propRule{key: key, enabled: true, useCache: true}
		if x, ok := rule.Get(fieldGroup); ok {
			r.group = asString(x.Scalar())
		}
		if x, ok := rule.Get(fieldPattern); ok {
			if pat := asString(x.Scalar()); pat != "" {
				r.re = d.compile(name, pat, "invalid pattern, treated as non-matching")
			}
		}
		e := Effective{Enabled: true, UseCache: true}
		for _, p := range fill(&e, rule) {
			d.warn(name, p)
		}
		r.enabled, r.useCache = e.Enabled, e.UseCache
		d.props = append(d.props, r)
	}
}

func (d *Document) parseCached(cached Value) {
	if !cached.IsMap() {
		d.warn(topCached, "cached must be a mapping")
		return
	}
	for _, k := range cached.Keys() {
		if k != "defaults" && k != "groups" && k != "methods" {
			d.warn(topCached, fmt.Sprintf("unknown section %q ignored", k))
		}
	}

	if raw, ok := cached.Get("defaults"); ok {
		if rule, ok := d.checkCachedRule("cached.defaults", raw); ok {
			d.hasDefaults = true
			d.defaults = rule.without(fieldMatchMultiple)
		}
	}

	if groups, ok := cached.Get("groups"); ok {
		if !groups.IsMap() {
			d.warn("cached.groups", "groups must be a mapping")
		}
		for _, g := range groups.Keys() {
			raw, _ := groups.Get(g)
			if rule, ok := d.checkCachedRule("cached.groups."+g, raw); ok {
				d.groups[g] = rule.without(fieldMatchMultiple)
			}
		}
	}

	if methods, ok := cached.Get("methods"); ok {
		if !methods.IsMap() {
			d.warn("cached.methods", "methods must be a mapping")
		}
		for _, key := range sortedRuleKeys(methods) {
			name := "cached.methods." + key
			raw, _ := methods.Get(key)
			rule, ok := d.checkCachedRule(name, raw)
			if !ok {
				continue
			}
			m := methodRule{key: key, rule: rule.without(fieldMatchMultiple), re: d.compileMethod(name, key)}
			if x, ok := rule.Get(fieldMatchMultiple); ok {
				m.multiple, _ = asBool(x.Scalar())
			}
			d.methods = append(d.methods, m)
		}
	}
}

func (d *Document) checkCachedRule(name string, raw Value) (Value, bool) {
	rule, problems, ok := checkRule(raw, ruleFields, true)
	for _, p := range problems {
		d.warn(name, p)
	}
	return rule, ok
}

// compileMethod 编译方法 key。Go 标识如 report.(*Builder).Render 不是合法正则，
// 这类 key 只做字面后缀匹配，不产生诊断。
func (d *Document) compileMethod(rule, key string) *regexp.Regexp {
	re, err := regexp.Compile("^(?:" + key + ")")
	if err != nil {
		d.log.Debug(context.Background(), "method key is literal, suffix match only",
			xlog.Rule(rule), xlog.Err(err))
		return nil
	}
	return re
}

// compile 编译从开头匹配的正则，失败时记录诊断并返回 nil。
func (d *Document) compile(rule, pattern, onFail string) *regexp.Regexp {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		d.warn(rule, onFail, xlog.Err(err))
		return nil
	}
	return re
}
