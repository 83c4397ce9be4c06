package xlog

import "log/slog"

// 标准属性 key
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyCacheKey  = "cache_key"
	KeyGroup     = "group"
	KeyFunction  = "function"
	KeyRule      = "rule"
	KeyOutcome   = "outcome"
)

// Err 创建错误属性。err 为 nil 时返回空 Attr，slog 会忽略它。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 标记日志来源组件，如 "xmemo"、"xrule"、"xstore.sqlite"。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// CacheKey 缓存条目 key
func CacheKey(key string) slog.Attr {
	return slog.String(KeyCacheKey, key)
}

// Group 配置分组名
func Group(name string) slog.Attr {
	return slog.String(KeyGroup, name)
}

// Function 被缓存函数的标识
func Function(identity string) slog.Attr {
	return slog.String(KeyFunction, identity)
}

// Rule 规则描述，如 "props[3]" 或 "methods.50"
func Rule(desc string) slog.Attr {
	return slog.String(KeyRule, desc)
}

// Outcome 单次调用的缓存结果：bypass、hit、miss、refresh
func Outcome(o string) slog.Attr {
	return slog.String(KeyOutcome, o)
}
