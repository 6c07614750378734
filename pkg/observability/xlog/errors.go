package xlog

import "errors"

var (
	// ErrNilHandler 当 NewEnrichHandler 的 base handler 为 nil 时返回
	ErrNilHandler = errors.New("xlog: base handler is nil")

	// ErrNilOutput 输出目标为 nil
	ErrNilOutput = errors.New("xlog: output writer is nil")

	// ErrEmptyFilename 轮转文件名为空
	ErrEmptyFilename = errors.New("xlog: rotation filename is empty")
)
