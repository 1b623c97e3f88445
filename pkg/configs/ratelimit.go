package configs

import "github.com/spf13/viper"

const (
	// 默认速率限制配置.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultRateLimitKey     = "ip"
)

// RateLimitConfig 速率限制配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`   // 每秒允许的请求数
	Burst   int     `mapstructure:"burst"` // 突发容量
	// Key 选择限流维度：global（全局）、ip（按客户端IP）、header:Header-Name（按请求头）
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
}

const (
	// 默认熔断配置.
	DefaultCBEnabled           = false
	DefaultCBMaxRequestsInHalf = 5
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMinRequests       = 20
	DefaultCBFailureRate       = 0.5
)

// CircuitBreakerConfig 熔断配置，保护下载路径在磁盘/数据库故障时快速失败.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MaxRequestsInHalf 半开状态放行的探测请求数
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half"`
	IntervalSeconds   int    `mapstructure:"interval_seconds"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	// MinRequests 统计窗口内达到该请求数才评估失败率
	MinRequests uint32  `mapstructure:"min_requests"`
	FailureRate float64 `mapstructure:"failure_rate"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.max_requests_in_half", DefaultCBMaxRequestsInHalf)
	v.SetDefault("circuit_breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("circuit_breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
}
