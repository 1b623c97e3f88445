// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用和系统指标.
//
// Example:
//
//	import "github.com/yeisme/dropvault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/api/files").Inc()
//	metrics.RequestDuration.WithLabelValues("GET", "/api/files").Observe(0.1)
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/dropvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// UploadsTotal 文件上传计数器，按上传方式（single/chunked）区分.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropvault_uploads_total",
			Help: "Total number of completed file uploads",
		},
		[]string{"mode"},
	)

	// DownloadsTotal 文件下载计数器，按结果区分（ok/expired/quota_exceeded/not_found）.
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropvault_downloads_total",
			Help: "Total number of download attempts by outcome",
		},
		[]string{"status"},
	)

	// DownloadBytesTotal 已传输给客户端的文件字节数.
	DownloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropvault_download_bytes_total",
			Help: "Total number of file bytes streamed to clients",
		},
	)

	// ActiveDownloads 正在进行的下载流数量.
	ActiveDownloads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dropvault_active_downloads",
			Help: "Number of download streams currently in flight",
		},
	)

	// MergeDuration 分块合并耗时直方图.
	MergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dropvault_merge_duration_seconds",
			Help:    "Time spent assembling chunked uploads into final files",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// EvictionsTotal 回收器删除的文件数.
	EvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropvault_evictions_total",
			Help: "Total number of files removed by the eviction scheduler",
		},
	)

	// EvictedBytesTotal 回收器释放的字节数.
	EvictedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropvault_evicted_bytes_total",
			Help: "Total number of bytes reclaimed by the eviction scheduler",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter, RequestDuration, ActiveConnections,
		UploadsTotal, DownloadsTotal, DownloadBytesTotal, ActiveDownloads,
		MergeDuration, EvictionsTotal, EvictedBytesTotal,
	)

	return nil
}

// StartMetricsServer 启动Metrics HTTP服务器.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// NewCounter 创建新的计数器指标.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(counter)

	return counter
}

// NewGauge 创建新的仪表盘指标.
func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(gauge)

	return gauge
}

// NewHistogram 创建新的直方图指标.
func NewHistogram(name, help string, labels []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(histogram)

	return histogram
}
