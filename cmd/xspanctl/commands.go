package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xtrace"
)

// exitError 命令已完成输出，只需设置非零退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func createCommands() []*cli.Command {
	cmds := []*cli.Command{
		createServeCommand(),
		createDecodeCommand(),
		createEncodeCommand(),
		createReqIDCommand(),
		createCheckCommand(),
	}
	for _, c := range cmds {
		c.OnUsageError = onUsageError
	}
	return cmds
}

// onUsageError 将 flag 解析错误转为 usageError，统一映射为退出码 2。
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

func createDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "解析 traceparent 头的值",
		ArgsUsage: "<traceparent>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return &usageError{msg: "decode 需要且只需要一个参数"}
			}
			return cmdDecode(cmd, cmd.Args().First())
		},
	}
}

// cmdDecode 输出解析结果。无效值（包括未采样）打印 "invalid" 并以 1 退出。
func cmdDecode(cmd *cli.Command, value string) error {
	w := cmd.Root().Writer
	tc := xtrace.DecodeTraceparent(value)
	if tc.IsZero() {
		_, _ = fmt.Fprintln(w, "invalid")
		return &exitError{code: 1}
	}
	_, _ = fmt.Fprintf(w, "trace-id:  %s\nparent-id: %s\n", tc.TraceID, tc.ParentID)
	return nil
}

func createEncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "生成 traceparent 头的值",
		ArgsUsage: "<trace-id> <parent-id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return &usageError{msg: "encode 需要 trace-id 与 parent-id 两个参数"}
			}
			return cmdEncode(cmd, cmd.Args().Get(0), cmd.Args().Get(1))
		},
	}
}

func cmdEncode(cmd *cli.Command, traceHex, parentHex string) error {
	traceID, err := trace.TraceIDFromHex(traceHex)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的 trace-id %q: %v", traceHex, err)}
	}
	parentID, err := trace.SpanIDFromHex(parentHex)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的 parent-id %q: %v", parentHex, err)}
	}
	v, ok := xtrace.EncodeTraceparent(xtrace.TraceContext{TraceID: traceID, ParentID: parentID})
	if !ok {
		return &usageError{msg: "trace-id 与 parent-id 均不能为零"}
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, v)
	return nil
}

func createReqIDCommand() *cli.Command {
	return &cli.Command{
		Name:  "reqid",
		Usage: "生成一个新的请求 ID",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, _ = fmt.Fprintln(cmd.Root().Writer, xreqspan.NewRequestID())
			return nil
		},
	}
}
