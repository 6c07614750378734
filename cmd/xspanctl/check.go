package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xtrace"
)

type checkOptions struct {
	addr    string
	service string
	timeout time.Duration
}

func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "向 gRPC 服务发起健康检查，携带新的请求 ID 与 traceparent",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "grpc-addr", Usage: "gRPC 服务地址", Value: "127.0.0.1:9090"},
			&cli.StringFlag{Name: "service", Usage: "健康检查的服务名，空为整体状态"},
			&cli.DurationFlag{Name: "timeout", Usage: "调用超时", Value: 5 * time.Second},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdCheck(ctx, cmd, checkOptions{
				addr:    cmd.String("grpc-addr"),
				service: cmd.String("service"),
				timeout: cmd.Duration("timeout"),
			})
		},
	}
}

// cmdCheck 输出发送的 traceparent、服务端回显的请求 ID 与健康状态。
// 调用失败或状态不是 SERVING 时以 1 退出。
func cmdCheck(ctx context.Context, cmd *cli.Command, opts checkOptions) error {
	w := cmd.Root().Writer

	conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("连接 %s: %w", opts.addr, err)
	}
	defer func() { _ = conn.Close() }()

	// 只用于生成 trace id 与 span id，不导出
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	ctx, span := tp.Tracer("xspanctl").Start(ctx, "check", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	id := xreqspan.NewRequestID()
	ctx = metadata.AppendToOutgoingContext(ctx, strings.ToLower(xreqspan.HeaderRequestID), id.String())
	ctx = xtrace.InjectToOutgoingContext(ctx, xtrace.DefaultPropagator())

	sent, _ := metadata.FromOutgoingContext(ctx)
	_, _ = fmt.Fprintf(w, "traceparent: %s\n", xtrace.MetadataCarrier(sent).Get(xtrace.HeaderTraceparent))

	var header metadata.MD
	resp, err := healthpb.NewHealthClient(conn).Check(ctx,
		&healthpb.HealthCheckRequest{Service: opts.service}, grpc.Header(&header))
	if echoed := xtrace.MetadataCarrier(header).Get(xreqspan.HeaderRequestID); echoed != "" {
		_, _ = fmt.Fprintf(w, "request-id:  %s\n", echoed)
	}
	if err != nil {
		_, _ = fmt.Fprintf(w, "status:      %s\n", status.Code(err))
		return &exitError{code: 1}
	}
	_, _ = fmt.Fprintf(w, "status:      %s\n", resp.GetStatus())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return &exitError{code: 1}
	}
	return nil
}
