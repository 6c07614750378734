// xspanctl 是 xspan 请求跨度中间件的命令行工具。
//
// 用法:
//
//	xspanctl <命令> [命令参数]
//
// 命令:
//
//	serve                  启动演示服务（HTTP + gRPC），所有请求经过跨度中间件
//	decode <traceparent>   解析 traceparent 头的值
//	encode <trace> <span>  由 32 位 trace id 与 16 位 span id 生成 traceparent
//	reqid                  生成一个新的请求 ID
//	check                  向 gRPC 服务发起健康检查，输出 traceparent 与回显的请求 ID
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（decode 遇到无效值、check 未得到 SERVING、服务启动失败等）
//	2: 参数错误
//
// 示例:
//
//	xspanctl serve --addr :8080 --grpc-addr :9090 --backend otel --exporter stdout
//	xspanctl serve --config ./xspan.yaml --log-format json
//	xspanctl decode 00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01
//	xspanctl encode 0af7651916cd43dd8448eb211c80319c b7ad6b7169203331
//	xspanctl check --grpc-addr 127.0.0.1:9090
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xspanctl",
		Usage:     "xspan 请求跨度中间件工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands:  createCommands(),
		Authors: []any{
			"XSpan Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				_, _ = fmt.Fprintln(stderr, err)
			}
		},
	}
}

// run 执行命令并返回退出码。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)

	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			_, _ = fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if _, ok := err.(cli.ExitCoder); ok {
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
