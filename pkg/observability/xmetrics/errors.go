package xmetrics

import "errors"

// ErrInstrument 表示向 MeterProvider 注册指标失败，错误信息包含指标名。
var ErrInstrument = errors.New("xmetrics: register instrument")
