package xreqspan

import (
	"fmt"
	"strings"

	"github.com/omeyang/xspan/pkg/config/xconf"
	"github.com/omeyang/xspan/pkg/observability/xlog"
	"github.com/omeyang/xspan/pkg/observability/xspan"
	"github.com/omeyang/xspan/pkg/observability/xtrace"
)

// 传播方式。
const (
	PropagationNone        = "none"
	PropagationTraceparent = "traceparent"
	PropagationTextMap     = "textmap"
)

// 客户端地址提取方式。
const (
	ClientIPNone      = "none"
	ClientIPRemote    = "remote"
	ClientIPForwarded = "forwarded"
)

// Config 可从配置文件加载的 Layer 配置。
type Config struct {
	// SpanName 跨度名称，默认 "request"。
	SpanName string `koanf:"span_name"`

	// Level 跨度级别（debug/info/warn/error），默认 info。
	Level string `koanf:"level"`

	// InspectHeaders 需要记录的头名称，默认为空。
	InspectHeaders []string `koanf:"inspect_headers"`

	// Propagation 跨进程传播：none、traceparent、textmap。
	Propagation string `koanf:"propagation"`

	// ClientIP 客户端地址提取：none、remote、forwarded。
	ClientIP string `koanf:"client_ip"`

	// TrustedProxies client_ip 为 forwarded 时信任的代理（CIDR 或地址）。
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// DefaultConfig 返回默认配置：不检查头、不传播、不提取客户端地址。
func DefaultConfig() Config {
	return Config{
		SpanName:    "request",
		Level:       "info",
		Propagation: PropagationNone,
		ClientIP:    ClientIPNone,
	}
}

// LoadConfig 从 cfg 的 path 处读取配置，未出现的键保留默认值。
func LoadConfig(cfg xconf.Config, path string) (Config, error) {
	c := DefaultConfig()
	if err := cfg.Unmarshal(path, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate 校验配置。
func (c Config) Validate() error {
	if _, err := xlog.ParseLevel(c.Level); err != nil {
		return err
	}
	if _, err := c.propagation(); err != nil {
		return err
	}
	if _, err := c.clientIP(); err != nil {
		return err
	}
	return nil
}

// Spanner 按配置的名称与级别创建跨度工厂。
func (c Config) Spanner(backend xspan.Backend, extras ...xspan.Field) (xspan.Spanner, error) {
	level, err := xlog.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return xspan.NewSpanner(backend, c.SpanName, level, extras...)
}

// Options 将配置转换为 Layer 选项。
func (c Config) Options() ([]Option, error) {
	p, err := c.propagation()
	if err != nil {
		return nil, err
	}
	ip, err := c.clientIP()
	if err != nil {
		return nil, err
	}

	var opts []Option
	if len(c.InspectHeaders) > 0 {
		opts = append(opts, WithInspectHeaders(c.InspectHeaders...))
	}
	if p != nil {
		opts = append(opts, WithPropagation(p))
	}
	if ip != nil {
		opts = append(opts, WithExtractClientIP(ip))
	}
	return opts, nil
}

func (c Config) propagation() (Propagation, error) {
	switch strings.ToLower(strings.TrimSpace(c.Propagation)) {
	case "", PropagationNone:
		return nil, nil
	case PropagationTraceparent:
		return xtrace.NewTraceparent(), nil
	case PropagationTextMap:
		return xtrace.NewTextMap(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPropagation, c.Propagation)
	}
}

func (c Config) clientIP() (ClientIPFunc, error) {
	switch strings.ToLower(strings.TrimSpace(c.ClientIP)) {
	case "", ClientIPNone:
		return nil, nil
	case ClientIPRemote:
		return RemoteAddrClientIP, nil
	case ClientIPForwarded:
		trusted, err := TrustedProxies(c.TrustedProxies...)
		if err != nil {
			return nil, err
		}
		return ForwardedClientIP(trusted), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClientIP, c.ClientIP)
	}
}
