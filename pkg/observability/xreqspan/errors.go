package xreqspan

import "errors"

// 启动阶段的配置错误。请求路径不会产生本包自己的错误。
var (
	ErrNilSpanner          = errors.New("xreqspan: nil spanner")
	ErrUnknownPropagation  = errors.New("xreqspan: unknown propagation")
	ErrUnknownClientIP     = errors.New("xreqspan: unknown client ip extractor")
	ErrInvalidTrustedProxy = errors.New("xreqspan: invalid trusted proxy")
)
