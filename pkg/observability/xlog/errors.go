package xlog

import "errors"

var (
	// ErrInvalidLevel 无法识别的日志级别
	ErrInvalidLevel = errors.New("xlog: invalid level")

	// ErrInvalidFormat 无法识别的输出格式，仅支持 text 与 json
	ErrInvalidFormat = errors.New("xlog: invalid format")

	// ErrNilOutput 输出目标为 nil
	ErrNilOutput = errors.New("xlog: nil output")

	// ErrEmptyFilename 轮转文件名为空
	ErrEmptyFilename = errors.New("xlog: empty rotation filename")
)
