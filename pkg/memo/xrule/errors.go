package xrule

import "errors"

var (
	// ErrUnknownIdentity 注册表中没有该身份的配置
	ErrUnknownIdentity = errors.New("xrule: unknown config identity")

	// ErrNotReloadable 配置不是文件来源，无法重载或监视
	ErrNotReloadable = errors.New("xrule: config is not file backed")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = errors.New("xrule: registry closed")
)
