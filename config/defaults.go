// =============================================================================
// 📦 DocFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置。凭据没有默认值。
func DefaultConfig() *Config {
	return &Config{
		Analysis:  DefaultAnalysisConfig(),
		HTTP:      DefaultHTTPConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultAnalysisConfig 返回默认分析参数
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		ModelID:      "prebuilt-layout",
		OutputFormat: "text",
		MaxRPS:       15,
		PollInterval: time.Second,
		PaceRequests: false,
	}
}

// DefaultHTTPConfig 返回默认 HTTP 客户端配置
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// DefaultMetricsConfig 返回默认指标端点配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:         false,
		Addr:            ":9091",
		Namespace:       "docflow",
		ShutdownTimeout: 5 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置。结果写 stdout，日志只写 stderr。
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		ServiceName:  "docflow",
		SampleRate:   0.1,
	}
}
