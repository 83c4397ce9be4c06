package xbind

import "errors"

var (
	// ErrEmptyParamName 表示参数名为空。
	ErrEmptyParamName = errors.New("xbind: empty parameter name")

	// ErrDuplicateParam 表示参数名重复声明。
	ErrDuplicateParam = errors.New("xbind: duplicate parameter name")
)
