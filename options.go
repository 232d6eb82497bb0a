package docflow

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/docflow/batch"
	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/types"
)

// =============================================================================
// 🔧 客户端选项
// =============================================================================

// Option 配置 Client
type Option func(*clientOptions)

type clientOptions struct {
	logger       *zap.Logger
	httpClient   *http.Client
	pollInterval time.Duration
	observer     batch.Observer
	pacing       bool
}

// WithLogger 使用自定义 logger，忽略 enableLogs
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithHTTPClient 使用自定义 HTTP 客户端；不应设置整体超时
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

// WithPollInterval 修改轮询间隔，默认 1s
func WithPollInterval(d time.Duration) Option {
	return func(o *clientOptions) { o.pollInterval = d }
}

// WithObserver 接入度量，例如 Prometheus 收集器
func WithObserver(observer batch.Observer) Option {
	return func(o *clientOptions) { o.observer = observer }
}

// WithRequestPacing 对每个端点的提交额外做每秒 max_rps 次的令牌桶节流
func WithRequestPacing(enabled bool) Option {
	return func(o *clientOptions) { o.pacing = enabled }
}

// =============================================================================
// 📦 批次选项
// =============================================================================

// BatchOption 配置单个批次
type BatchOption func(*batchOptions)

type batchOptions struct {
	features     []string
	outputFormat docintel.OutputFormat
	maxRPS       int
	err          *types.Error
}

// WithFeatures 启用附加分析特性，例如 ocrHighResolution、formulas
func WithFeatures(features ...string) BatchOption {
	return func(b *batchOptions) { b.features = append([]string(nil), features...) }
}

// WithOutputFormat 设置输出格式（text 或 markdown，忽略大小写与首尾空白）
func WithOutputFormat(format string) BatchOption {
	return func(b *batchOptions) {
		f, err := docintel.ParseOutputFormat(format)
		if err != nil {
			if e, ok := types.AsError(err); ok {
				b.err = e
			}
			return
		}
		b.outputFormat = f
	}
}

// WithMaxRPS 设置每个凭据的在途操作上限，默认 15
func WithMaxRPS(maxRPS int) BatchOption {
	return func(b *batchOptions) { b.maxRPS = maxRPS }
}
