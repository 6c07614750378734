package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/omeyang/xspan/pkg/config/xconf"
	"github.com/omeyang/xspan/pkg/observability/xlog"
	"github.com/omeyang/xspan/pkg/observability/xreqspan"
	"github.com/omeyang/xspan/pkg/observability/xspan"
)

// 跨度后端与导出器。
const (
	backendLog  = "log"
	backendOTel = "otel"

	exporterNone   = "none"
	exporterStdout = "stdout"
	exporterOTLP   = "otlp"

	// configSection 配置文件中 Layer 配置所在的路径。
	configSection = "reqspan"

	serviceName = "xspanctl"
	metricsPath = "/metrics"

	shutdownTimeout = 10 * time.Second
)

// serveOptions serve 子命令的参数。
type serveOptions struct {
	addr         string
	grpcAddr     string
	configPath   string
	backend      string
	exporter     string
	otlpEndpoint string
	otlpInsecure bool
	metrics      bool
	logLevel     string
	logFormat    string
	logFile      string
}

func createServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动演示服务，所有请求经过跨度中间件",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP 监听地址", Value: ":8080"},
			&cli.StringFlag{Name: "grpc-addr", Usage: "gRPC 监听地址，为空时不启动", Value: ":9090"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件（yaml/json），读取 reqspan 段"},
			&cli.StringFlag{Name: "backend", Usage: "跨度后端: log 或 otel", Value: backendLog},
			&cli.StringFlag{Name: "exporter", Usage: "otel 后端的导出器: stdout、otlp 或 none", Value: exporterStdout},
			&cli.StringFlag{Name: "otlp-endpoint", Usage: "OTLP gRPC 端点", Value: "localhost:4317"},
			&cli.BoolFlag{Name: "otlp-insecure", Usage: "OTLP 连接不使用 TLS"},
			&cli.BoolFlag{Name: "metrics", Usage: "记录请求指标并在 /metrics 暴露", Value: true},
			&cli.StringFlag{Name: "log-level", Usage: "日志级别", Value: "info"},
			&cli.StringFlag{Name: "log-format", Usage: "日志格式: text 或 json", Value: "text"},
			&cli.StringFlag{Name: "log-file", Usage: "日志文件，设置后按大小轮转"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdServe(ctx, cmd.Root().ErrWriter, serveOptions{
				addr:         cmd.String("addr"),
				grpcAddr:     cmd.String("grpc-addr"),
				configPath:   cmd.String("config"),
				backend:      cmd.String("backend"),
				exporter:     cmd.String("exporter"),
				otlpEndpoint: cmd.String("otlp-endpoint"),
				otlpInsecure: cmd.Bool("otlp-insecure"),
				metrics:      cmd.Bool("metrics"),
				logLevel:     cmd.String("log-level"),
				logFormat:    cmd.String("log-format"),
				logFile:      cmd.String("log-file"),
			})
		},
	}
}

// stack serve 运行所需的全部组件。
type stack struct {
	logger  xlog.LoggerWithLevel
	layer   *xreqspan.Layer
	handler http.Handler
	grpc    *grpc.Server
	health  *health.Server

	closers []func(context.Context) error
}

// close 按创建的逆序释放资源。
func (s *stack) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildStack 依次构建日志、配置、跨度后端与中间件。出错时已创建的资源会被释放。
func buildStack(ctx context.Context, stderr io.Writer, opts serveOptions) (_ *stack, err error) {
	s := &stack{}
	defer func() {
		if err != nil {
			_ = s.close(context.WithoutCancel(ctx))
		}
	}()

	b := xlog.New().SetOutput(stderr).SetLevelString(opts.logLevel).SetFormat(opts.logFormat)
	if opts.logFile != "" {
		b.SetRotation(opts.logFile, 0, 0)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	s.logger = logger
	s.closers = append(s.closers, func(context.Context) error { return cleanup() })

	cfg := xreqspan.DefaultConfig()
	if opts.configPath != "" {
		src, err := xconf.New(opts.configPath)
		if err != nil {
			return nil, err
		}
		if cfg, err = xreqspan.LoadConfig(src, configSection); err != nil {
			return nil, err
		}
	}

	backend, err := s.newBackend(ctx, opts, stderr)
	if err != nil {
		return nil, err
	}

	spanner, err := cfg.Spanner(backend)
	if err != nil {
		return nil, err
	}
	layerOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	layerOpts = append(layerOpts, xreqspan.WithLogger(logger))

	mux := http.NewServeMux()
	if opts.metrics {
		mp, metricsHandler, err := newMeterProvider()
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, mp.Shutdown)
		layerOpts = append(layerOpts, xreqspan.WithMeterProvider(mp))
		mux.Handle(metricsPath, metricsHandler)
	}

	if s.layer, err = xreqspan.New(spanner, layerOpts...); err != nil {
		return nil, err
	}

	mux.Handle("/", s.layer.HTTP(echoHandler(logger)))
	s.handler = mux
	s.health = health.NewServer()
	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.layer.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(s.layer.StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s, nil
}

func (s *stack) newBackend(ctx context.Context, opts serveOptions, stderr io.Writer) (xspan.Backend, error) {
	switch opts.backend {
	case backendLog:
		return xspan.Log(s.logger), nil
	case backendOTel:
		tp, err := newTracerProvider(ctx, opts, stderr)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, tp.Shutdown)
		return xspan.OTel(tp), nil
	default:
		return nil, &usageError{msg: fmt.Sprintf("未知的跨度后端 %q", opts.backend)}
	}
}

// newResource 服务标识，跨度与指标共用。
func newResource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("",
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource failed: %w", err)
	}
	return res, nil
}

// newMeterProvider 创建以 Prometheus 暴露的 MeterProvider，使用独立的注册表。
func newMeterProvider() (*sdkmetric.MeterProvider, http.Handler, error) {
	res, err := newResource()
	if err != nil {
		return nil, nil, err
	}
	reg := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter failed: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func newTracerProvider(ctx context.Context, opts serveOptions, stderr io.Writer) (*sdktrace.TracerProvider, error) {
	res, err := newResource()
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	switch opts.exporter {
	case exporterNone:
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
	case exporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(stderr))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter failed: %w", err)
		}
		exporter = exp
	case exporterOTLP:
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.otlpEndpoint)}
		if opts.otlpInsecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter failed: %w", err)
		}
		exporter = exp
	default:
		return nil, &usageError{msg: fmt.Sprintf("未知的导出器 %q", opts.exporter)}
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	), nil
}

// echoHandler 回显请求元数据，并在跨度作用域内写一条日志。
func echoHandler(logger xlog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		info, _ := xreqspan.RequestInfoFromContext(ctx)
		logger.Info(ctx, "echo", slog.String("path", r.URL.Path))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "protocol: %s\nrequest-id: %s\n", info.Protocol, info.RequestID)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			_, _ = fmt.Fprintf(w, "trace-id: %s\n", sc.TraceID())
		}
		if info.ClientIP.IsValid() {
			_, _ = fmt.Fprintf(w, "client-ip: %s\n", info.ClientIP)
		}
	})
}

// cmdServe 启动 HTTP 与 gRPC 服务，ctx 取消后优雅关闭。
func cmdServe(ctx context.Context, stderr io.Writer, opts serveOptions) error {
	s, err := buildStack(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.close(shutdownCtx); err != nil {
			_, _ = fmt.Fprintf(stderr, "关闭失败: %v\n", err)
		}
	}()

	httpLis, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.addr, err)
	}
	var grpcLis net.Listener
	if opts.grpcAddr != "" {
		if grpcLis, err = net.Listen("tcp", opts.grpcAddr); err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen %s: %w", opts.grpcAddr, err)
		}
	}
	return s.serve(ctx, httpLis, grpcLis)
}

// serve 在给定监听器上运行服务，直到 ctx 取消或任一服务失败。grpcLis 可以为 nil。
func (s *stack) serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(gctx, "http server started", slog.String("addr", httpLis.Addr().String()))
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if grpcLis != nil {
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		g.Go(func() error {
			s.logger.Info(gctx, "grpc server started", slog.String("addr", grpcLis.Addr().String()))
			if err := s.grpc.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info(context.Background(), "shutting down")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if grpcLis != nil {
			s.grpc.GracefulStop()
		}
		return err
	})
	return g.Wait()
}
