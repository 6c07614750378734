package xspan

import "errors"

// Schema 校验错误，均在启动阶段返回。
var (
	ErrEmptySpanName  = errors.New("xspan: empty span name")
	ErrEmptyFieldName = errors.New("xspan: empty field name")
	ErrDuplicateField = errors.New("xspan: duplicate field")
	ErrReservedField  = errors.New("xspan: field name is reserved")
	ErrNilBackend     = errors.New("xspan: nil backend")
)
