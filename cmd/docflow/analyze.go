package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/docflow"
	"github.com/BaSui01/docflow/batch"
	"github.com/BaSui01/docflow/config"
	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/internal/metrics"
	"github.com/BaSui01/docflow/internal/server"
	"github.com/BaSui01/docflow/internal/telemetry"
	"github.com/BaSui01/docflow/internal/tlsutil"
)

// listFlag 可重复、可逗号分隔的字符串参数
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

// analyzeFlags analyze 子命令参数，非空时覆盖配置
type analyzeFlags struct {
	configPath string
	model      string
	urls       listFlag
	files      listFlag
	features   string
	format     string
	maxRPS     int
	output     string
}

// result 输出中的一条记录，与输入按位置对应
type result struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Status string `json:"status"`
	batch.Outcome
}

func parseAnalyzeFlags(args []string, stderr io.Writer) (*analyzeFlags, error) {
	f := &analyzeFlags{}
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "Path to config file")
	fs.StringVar(&f.model, "model", "", "Model ID")
	fs.Var(&f.urls, "url", "Remote document URL (repeatable)")
	fs.Var(&f.files, "file", "Local document path (repeatable)")
	fs.StringVar(&f.features, "features", "", "Comma-separated analysis features")
	fs.StringVar(&f.format, "format", "", "Output content format: text or markdown")
	fs.IntVar(&f.maxRPS, "max-rps", 0, "In-flight operations per credential")
	fs.StringVar(&f.output, "output", "", "Write results to file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if len(f.urls) == 0 && len(f.files) == 0 {
		return nil, fmt.Errorf("at least one --url or --file is required")
	}
	return f, nil
}

// apply 命令行参数覆盖配置
func (f *analyzeFlags) apply(cfg *config.Config) {
	if f.model != "" {
		cfg.Analysis.ModelID = f.model
	}
	if f.features != "" {
		var features listFlag
		_ = features.Set(f.features)
		cfg.Analysis.Features = features
	}
	if f.format != "" {
		cfg.Analysis.OutputFormat = f.format
	}
	if f.maxRPS != 0 {
		cfg.Analysis.MaxRPS = f.maxRPS
	}
}

// items URL 在前，文件在后，各自保持命令行顺序
func (f *analyzeFlags) items() []docintel.Item {
	items := docintel.URLItems(f.urls)
	return append(items, docintel.FileItems(f.files)...)
}

// =============================================================================
// 📄 analyze 命令
// =============================================================================

func runAnalyze(args []string, stdout, stderr io.Writer) int {
	flags, err := parseAnalyzeFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid arguments: %v\n", err)
		return exitFatal
	}

	// 加载配置
	loader := config.NewLoader()
	if flags.configPath != "" {
		loader = loader.WithConfigPath(flags.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFatal
	}
	flags.apply(cfg)

	// 验证配置
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return exitFatal
	}
	creds, err := cfg.ResolveCredentials()
	if err != nil {
		fmt.Fprintf(stderr, "Invalid credentials: %v\n", err)
		return exitFatal
	}

	// 初始化日志
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting DocFlow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(sigCtx)
	defer cancel(nil)

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer shutdownTelemetry(otelProviders, logger)

	opts := []docflow.Option{
		docflow.WithLogger(logger),
		docflow.WithHTTPClient(tlsutil.SecureHTTPClient(transportConfig(cfg.HTTP))),
		docflow.WithPollInterval(cfg.Analysis.PollInterval),
		docflow.WithRequestPacing(cfg.Analysis.PaceRequests),
	}

	// 指标端点
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(cfg.Metrics.Namespace, logger)
		opts = append(opts, docflow.WithObserver(collector))

		metricsServer := server.NewManager(
			server.NewMetricsHandler(prometheus.DefaultGatherer),
			server.Config{
				Addr:            cfg.Metrics.Addr,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    10 * time.Second,
				ShutdownTimeout: cfg.Metrics.ShutdownTimeout,
			},
			logger,
		)
		if err := metricsServer.Start(); err != nil {
			logger.Error("Failed to start metrics server", zap.Error(err))
			return exitFatal
		}
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
		go abortOnServerError(ctx, metricsServer.Errors(), cancel, logger)
	}

	client, err := docflow.NewClient(creds, true, opts...)
	if err != nil {
		logger.Error("Failed to create client", zap.Error(err))
		return exitFatal
	}
	defer func() { _ = client.Close() }()

	items := flags.items()
	outcomes, err := client.Process(ctx, cfg.Analysis.ModelID, items,
		docflow.WithFeatures(cfg.Analysis.Features...),
		docflow.WithOutputFormat(cfg.Analysis.OutputFormat),
		docflow.WithMaxRPS(cfg.Analysis.MaxRPS),
	)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if cause := context.Cause(ctx); cause != nil {
			fields = append(fields, zap.NamedError("cause", cause))
		}
		logger.Error("Batch failed", fields...)
		return exitFatal
	}

	if err := writeResults(stdout, flags.output, items, outcomes); err != nil {
		logger.Error("Failed to write results", zap.Error(err))
		return exitFatal
	}

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}
	logger.Info("DocFlow finished", zap.Int("items", len(outcomes)), zap.Int("failed", failed))
	if failed > 0 {
		return exitItemsFailed
	}
	return exitOK
}

func transportConfig(cfg config.HTTPConfig) tlsutil.TransportConfig {
	return tlsutil.TransportConfig{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DialTimeout:         cfg.DialTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
	}
}

func shutdownTelemetry(p *telemetry.Providers, logger *zap.Logger) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}

// writeResults 以 JSON 数组写出结果，path 为空时写 stdout
func writeResults(stdout io.Writer, path string, items []docintel.Item, outcomes []batch.Outcome) error {
	results := make([]result, len(outcomes))
	for i, o := range outcomes {
		results[i] = result{
			Index:   i,
			Kind:    items[i].Kind.String(),
			Source:  items[i].Source,
			Status:  o.Code(),
			Outcome: o,
		}
	}

	if path == "" {
		return encodeResults(stdout, results)
	}

	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := encodeResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// createOutput 打开结果文件，测试中可替换
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func encodeResults(w io.Writer, results []result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// abortOnServerError 指标服务异常退出时取消批次，避免指标静默丢失
func abortOnServerError(ctx context.Context, errs <-chan error, cancel context.CancelCauseFunc, logger *zap.Logger) {
	select {
	case <-ctx.Done():
	case err := <-errs:
		logger.Error("metrics server stopped unexpectedly, aborting batch", zap.Error(err))
		cancel(fmt.Errorf("metrics server failed: %w", err))
	}
}
