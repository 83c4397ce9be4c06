package xstore

import "errors"

var (
	// ErrNotFound key 不存在，由 Require 返回
	ErrNotFound = errors.New("xstore: not found")

	// ErrClosed 存储已关闭
	ErrClosed = errors.New("xstore: store closed")

	// ErrNilClient 传入的客户端为 nil
	ErrNilClient = errors.New("xstore: nil client")

	// ErrEmptyPath SQLite 文件路径为空
	ErrEmptyPath = errors.New("xstore: empty database path")

	// ErrUnavailable 熔断器打开，后端暂不可用
	ErrUnavailable = errors.New("xstore: backend unavailable")
)
