package docflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/docflow/batch"
	"github.com/BaSui01/docflow/credential"
	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/internal/tlsutil"
	"github.com/BaSui01/docflow/types"
)

// DefaultMaxRPS 每个凭据默认的在途操作上限
const DefaultMaxRPS = 15

// Client 批量调用 Document Intelligence 的客户端，可被多个 goroutine 并发使用
type Client struct {
	dispatcher  *batch.Dispatcher
	logger      *zap.Logger
	credentials int
}

// NewClient 创建客户端。
// enableLogs 为 false 时不输出任何日志；为 true 时以 JSON 写入 stderr。WithLogger 优先。
func NewClient(creds []credential.Credential, enableLogs bool, opts ...Option) (*Client, error) {
	if len(creds) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "at least one credential is required")
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = defaultLogger(enableLogs)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidInput, "build logger").WithCause(err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = tlsutil.SecureHTTPClient(tlsutil.DefaultTransportConfig())
	}

	dispatcher, err := batch.NewDispatcher(httpClient, creds, batch.Options{
		Logger:       logger,
		Observer:     o.observer,
		PollInterval: o.pollInterval,
		Pacing:       o.pacing,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("docflow client created", zap.Int("credentials", len(creds)))

	return &Client{
		dispatcher:  dispatcher,
		logger:      logger,
		credentials: len(creds),
	}, nil
}

// ProcessBatchFromURLs 分析一批远程文档，结果与 urls 按位置一一对应
func (c *Client) ProcessBatchFromURLs(ctx context.Context, modelID string, urls []string, opts ...BatchOption) ([]batch.Outcome, error) {
	return c.process(ctx, modelID, docintel.URLItems(urls), opts)
}

// ProcessBatchFromFiles 分析一批本地文件，结果与 paths 按位置一一对应。
// 读取失败的文件在对应位置返回 FILE_READ_FAILED。
func (c *Client) ProcessBatchFromFiles(ctx context.Context, modelID string, paths []string, opts ...BatchOption) ([]batch.Outcome, error) {
	return c.process(ctx, modelID, docintel.FileItems(paths), opts)
}

// Process 分析混合来源的一批文档
func (c *Client) Process(ctx context.Context, modelID string, items []docintel.Item, opts ...BatchOption) ([]batch.Outcome, error) {
	return c.process(ctx, modelID, items, opts)
}

// Capacity 给定 maxRPS 时的批次并发上限
func (c *Client) Capacity(maxRPS int) int {
	return maxRPS * c.credentials
}

// Close 刷新日志缓冲
func (c *Client) Close() error {
	_ = c.logger.Sync()
	return nil
}

func (c *Client) process(ctx context.Context, modelID string, items []docintel.Item, opts []BatchOption) ([]batch.Outcome, error) {
	b := batchOptions{
		outputFormat: docintel.DefaultOutputFormat,
		maxRPS:       DefaultMaxRPS,
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.err != nil {
		return nil, b.err
	}

	return c.dispatcher.Run(ctx, batch.Request{
		ModelID:      modelID,
		Items:        items,
		Features:     b.features,
		OutputFormat: b.outputFormat,
		MaxRPS:       b.maxRPS,
	})
}

func defaultLogger(enableLogs bool) (*zap.Logger, error) {
	if !enableLogs {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
