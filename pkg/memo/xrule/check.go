package xrule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	propsFields = fieldSet(fieldEnabled, fieldUseCache, fieldGroup, fieldPattern)
	ruleFields  = fieldSet(fieldEnabled, fieldUseCache, fieldVerbose, fieldKeyPrefix,
		fieldKeyArgs, fieldIgnoreKeyArgs, fieldMatchMultiple, fieldReset)
	flatFields = fieldSet(fieldEnabled, fieldUseCache, fieldVerbose, fieldKeyPrefix,
		fieldKeyArgs, fieldIgnoreKeyArgs, fieldGroup, fieldReset)
)

func fieldSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// checkRule 校验一条规则。
// 顶层出现未知字段时整条规则无效；dropReset 为 true 时 reset 被丢弃并报告。
func checkRule(v Value, allowed map[string]struct{}, dropReset bool) (Value, []string, bool) {
	if !v.IsMap() {
		return Value{}, []string{fmt.Sprintf("rule must be a mapping, got %T", v.Scalar())}, false
	}

	var unknown []string
	for _, k := range v.Keys() {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return Value{}, []string{"unknown fields " + strings.Join(unknown, ",") + ", rule skipped"}, false
	}

	if _, ok := v.Get(fieldReset); ok && dropReset {
		return v.without(fieldReset), []string{"reset is only honoured from overrides, field dropped"}, true
	}
	return v, nil, true
}

// ruleKeyLess 规则 key 升序：数字 key 按数值比较并排在非数字 key 之前。
func ruleKeyLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func sortedRuleKeys(v Value) []string {
	keys := v.Keys()
	slices.SortStableFunc(keys, func(a, b string) int {
		switch {
		case ruleKeyLess(a, b):
			return -1
		case ruleKeyLess(b, a):
			return 1
		default:
			return 0
		}
	})
	return keys
}
