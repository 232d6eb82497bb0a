package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BaSui01/docflow/docintel"
)

// Validate 验证配置，汇总全部问题后一次返回
func (c *Config) Validate() error {
	var errs []string

	// 凭据
	if len(c.Credentials) == 0 {
		errs = append(errs, "at least one credential is required")
	}
	for i, cc := range c.Credentials {
		u, err := url.Parse(cc.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("credentials[%d]: endpoint must be an absolute http(s) URL", i))
		}
		if (cc.APIKey.IsZero() || cc.APIKey.Expose() == "") && cc.APIKeyEnv == "" {
			errs = append(errs, fmt.Sprintf("credentials[%d]: api_key or api_key_env is required", i))
		}
	}

	// 分析参数
	if strings.TrimSpace(c.Analysis.ModelID) == "" {
		errs = append(errs, "analysis.model_id is required")
	}
	if c.Analysis.MaxRPS <= 0 {
		errs = append(errs, "analysis.max_rps must be positive")
	}
	if c.Analysis.PollInterval <= 0 {
		errs = append(errs, "analysis.poll_interval must be positive")
	}
	if _, err := docintel.ParseOutputFormat(c.Analysis.OutputFormat); err != nil {
		errs = append(errs, "analysis.output_format must be 'text' or 'markdown'")
	}

	// 日志
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("invalid log format %q", c.Log.Format))
	}

	// 指标与遥测
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
