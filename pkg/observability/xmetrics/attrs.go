package xmetrics

// String 创建字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Bool 创建布尔属性。
func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

// CacheKey 创建缓存 key 属性。
func CacheKey(key string) Attr {
	return Attr{Key: AttrCacheKey, Value: key}
}

// 属性 key
const (
	AttrFunction = "xmemo.function"
	AttrGroup    = "xmemo.group"
	AttrOutcome  = "xmemo.outcome"
	AttrCacheKey = "xmemo.cache_key"
	AttrStatus   = "xmemo.status"

	// AttrPolicy 参数选择策略，如 include(id)，只记录在 span 上。
	AttrPolicy = "xmemo.policy"
	// AttrReset 本次调用是否强制刷新，只记录在 span 上。
	AttrReset = "xmemo.reset"
)
