package xrule

import (
	"fmt"
	"maps"
	"slices"
)

// Value 是配置值的标签类型：要么是标量，要么是嵌套 map。
// 列表等非 map 值都视为标量，合并时整体替换。
type Value struct {
	scalar any
	fields map[string]Value
	isMap  bool
}

// Scalar 构造标量值。
func Scalar(v any) Value {
	return Value{scalar: cloneAny(v)}
}

// MapOf 构造 map 值，m 会被深拷贝。
func MapOf(m map[string]Value) Value {
	fields := make(map[string]Value, len(m))
	for k, v := range m {
		fields[k] = v.clone()
	}
	return Value{fields: fields, isMap: true}
}

// FromAny 把解析后的文档值转换为 Value。
// map[string]any 与 map[any]any 成为 map 值，key 统一转为字符串。
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t.clone()
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, x := range t {
			fields[k] = FromAny(x)
		}
		return Value{fields: fields, isMap: true}
	case map[any]any:
		fields := make(map[string]Value, len(t))
		for k, x := range t {
			fields[fmt.Sprint(k)] = FromAny(x)
		}
		return Value{fields: fields, isMap: true}
	default:
		return Scalar(t)
	}
}

// IsMap 是否为 map 值
func (v Value) IsMap() bool { return v.isMap }

// Scalar 返回标量内容，map 值返回 nil。
func (v Value) Scalar() any {
	if v.isMap {
		return nil
	}
	return v.scalar
}

// Get 读取 map 值的字段。
func (v Value) Get(key string) (Value, bool) {
	if !v.isMap {
		return Value{}, false
	}
	x, ok := v.fields[key]
	return x, ok
}

// Len 返回 map 值的字段数，标量为 0。
func (v Value) Len() int { return len(v.fields) }

// Keys 返回排序后的字段名。
func (v Value) Keys() []string {
	return slices.Sorted(maps.Keys(v.fields))
}

// Any 转回普通 Go 值，map 值得到 map[string]any。
func (v Value) Any() any {
	if !v.isMap {
		return cloneAny(v.scalar)
	}
	out := make(map[string]any, len(v.fields))
	for k, x := range v.fields {
		out[k] = x.Any()
	}
	return out
}

// without 返回去掉指定字段后的副本。
func (v Value) without(keys ...string) Value {
	out := v.clone()
	for _, k := range keys {
		delete(out.fields, k)
	}
	return out
}

func (v Value) clone() Value {
	if !v.isMap {
		return Value{scalar: cloneAny(v.scalar)}
	}
	return MapOf(v.fields)
}

// Merge 依次把 updates 合并到 base 上，返回新值，输入不会被修改。
//
// 双方都是 map 时逐字段合并，同名字段再按同样规则递归；
// 其他情况下 update 整体替换。
func Merge(base Value, updates ...Value) Value {
	out := base.clone()
	for _, u := range updates {
		out = mergeInto(out, u)
	}
	return out
}

// mergeInto 合并 u 到 dst，dst 必须是调用方独占的副本。
func mergeInto(dst, u Value) Value {
	if !dst.isMap || !u.isMap {
		return u.clone()
	}
	for k, uv := range u.fields {
		if dv, ok := dst.fields[k]; ok && dv.isMap && uv.isMap {
			dst.fields[k] = mergeInto(dv, uv)
			continue
		}
		dst.fields[k] = uv.clone()
	}
	return dst
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneAny(x)
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]any:
		return FromAny(t).Any()
	default:
		return v
	}
}
