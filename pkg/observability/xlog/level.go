package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，同时也是跨度的级别：日志后端按此级别输出跨度记录。
type Level slog.Level

// 可配置的级别，数值与 slog 一致。
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// ParseLevel 解析配置中的级别名称（--log-level、reqspan.level）。
//
// 接受 debug、info、warn（或 warning）、error，忽略大小写与首尾空白。
// 无法识别时返回 LevelInfo 和错误。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
}
