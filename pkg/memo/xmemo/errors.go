package xmemo

import "errors"

var (
	// ErrNilStore 表示未提供存储。
	ErrNilStore = errors.New("xmemo: nil store")

	// ErrNilResolver 表示未提供配置解析器。
	ErrNilResolver = errors.New("xmemo: nil resolver")

	// ErrNilFunc 表示被包装的函数为 nil。
	ErrNilFunc = errors.New("xmemo: nil function")

	// ErrAmbiguousIdentity 表示默认标识无法区分泛型函数的不同实例化，需要 WithName。
	ErrAmbiguousIdentity = errors.New("xmemo: ambiguous function identity")

	// ErrStore 包装存储读写与编解码失败，仅在 WithStrictStore 时返回给调用方。
	ErrStore = errors.New("xmemo: store failure")
)
