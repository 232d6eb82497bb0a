package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/docflow/credential"
	"github.com/BaSui01/docflow/internal/ctxkeys"
	"github.com/BaSui01/docflow/types"
)

const instrumentationName = "github.com/BaSui01/docflow/docintel"

const (
	// DefaultPollInterval 两次轮询之间的固定间隔
	DefaultPollInterval = time.Second

	headerAPIKey            = "Ocp-Apim-Subscription-Key"
	headerOperationLocation = "Operation-Location"
)

// Pacer 在每次提交前等待，nil 表示不限速
type Pacer interface {
	Wait(ctx context.Context, endpoint string) error
}

// DriverConfig LRO 驱动配置，同一批次内所有文档共用
type DriverConfig struct {
	ModelID      string
	OutputFormat OutputFormat
	Features     []string
	PollInterval time.Duration
	Logger       *zap.Logger
	Observer     Observer
	Pacer        Pacer
}

// Driver 驱动单个文档完成 提交 -> 轮询 -> 终态 的流程。
// Driver 无状态，可被多个 goroutine 并发使用。
type Driver struct {
	client   *http.Client
	cfg      DriverConfig
	logger   *zap.Logger
	observer Observer
	tracer   trace.Tracer
}

// NewDriver 创建 LRO 驱动
func NewDriver(client *http.Client, cfg DriverConfig) *Driver {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Driver{
		client:   client,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "docintel")),
		observer: observer,
		tracer:   otel.Tracer(instrumentationName),
	}
}

// statusResponse 轮询响应；analyzeResult 原样透传
type statusResponse struct {
	Status        string          `json:"status"`
	AnalyzeResult json.RawMessage `json:"analyzeResult"`
	Error         *serviceError   `json:"error"`
}

// Analyze 提交文档并轮询直到终态，返回服务端的 analyzeResult。
// 所有错误均为 *types.Error。
func (d *Driver) Analyze(ctx context.Context, cred credential.Credential, item Item) (json.RawMessage, error) {
	ctx, span := d.tracer.Start(ctx, "docintel.analyze",
		trace.WithAttributes(
			attribute.String("docintel.endpoint", cred.Endpoint),
			attribute.String("docintel.model_id", d.cfg.ModelID),
			attribute.String("docintel.item_kind", item.Kind.String()),
		))
	defer span.End()

	logger := d.itemLogger(ctx, cred, item)

	payload, err := d.analyze(ctx, logger, cred, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.GetErrorCode(err)))
		logger.Warn("document analysis failed", zap.Error(err))
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	logger.Info("document analysis succeeded", zap.Int("payload_bytes", len(payload)))
	return payload, nil
}

func (d *Driver) analyze(ctx context.Context, logger *zap.Logger, cred credential.Credential, item Item) (json.RawMessage, error) {
	opLocation, err := d.submit(ctx, cred, item)
	if err != nil {
		d.transition(logger, StateSubmitting, StateFailed)
		return nil, err
	}
	logger.Info("document submitted", zap.String("operation_location", opLocation))
	d.transition(logger, StateSubmitting, StatePolling)

	payload, err := d.poll(ctx, logger, cred, opLocation)
	if err != nil {
		d.transition(logger, StatePolling, StateFailed)
		return nil, err
	}
	d.transition(logger, StatePolling, StateSucceeded)
	return payload, nil
}

// submit 发送分析请求，返回 operation-location
func (d *Driver) submit(ctx context.Context, cred credential.Credential, item Item) (string, error) {
	body, contentType, err := requestBody(item)
	if err != nil {
		return "", err.WithEndpoint(cred.Endpoint)
	}

	if d.cfg.Pacer != nil {
		if err := d.cfg.Pacer.Wait(ctx, cred.Endpoint); err != nil {
			if ctx.Err() != nil {
				return "", cancelledError(ctx)
			}
			return "", types.NewError(types.ErrSubmissionFailed, "request pacing refused").
				WithCause(err).
				WithEndpoint(cred.Endpoint)
		}
	}

	target := BuildAnalyzeURL(cred.Endpoint, d.cfg.ModelID, d.cfg.OutputFormat, d.cfg.Features)
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if reqErr != nil {
		return "", types.NewError(types.ErrSubmissionFailed, "build submission request").
			WithCause(reqErr).
			WithEndpoint(cred.Endpoint)
	}
	req.Header.Set(headerAPIKey, cred.APIKey.Expose())
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, doErr := d.client.Do(req)
	if doErr != nil {
		d.observer.ObserveSubmission(cred.Endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return "", cancelledError(ctx)
		}
		return "", types.NewError(types.ErrSubmissionFailed, "submission transport error").
			WithCause(doErr).
			WithEndpoint(cred.Endpoint)
	}
	defer resp.Body.Close()
	d.observer.ObserveSubmission(cred.Endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body, cred.APIKey.Expose())
		return "", types.Errorf(types.ErrSubmissionFailed, "submission rejected with status %d: %s", resp.StatusCode, msg).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(types.RetryableStatus(resp.StatusCode)).
			WithEndpoint(cred.Endpoint)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))

	values, ok := resp.Header[headerOperationLocation]
	if !ok || len(values) == 0 || values[0] == "" {
		return "", types.NewError(types.ErrProtocolViolation, "missing operation-location").
			WithHTTPStatus(resp.StatusCode).
			WithEndpoint(cred.Endpoint)
	}
	if !validOperationLocation(values[0]) {
		return "", types.NewError(types.ErrProtocolViolation, "unparseable operation-location").
			WithHTTPStatus(resp.StatusCode).
			WithEndpoint(cred.Endpoint)
	}
	return values[0], nil
}

// poll 按固定间隔查询操作状态直到终态
func (d *Driver) poll(ctx context.Context, logger *zap.Logger, cred credential.Credential, opLocation string) (json.RawMessage, error) {
	timer := time.NewTimer(d.cfg.PollInterval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, cancelledError(ctx)
		case <-timer.C:
		}

		st, err := d.fetchStatus(ctx, cred, opLocation)
		if err != nil {
			d.observer.ObservePoll(cred.Endpoint, "error")
			return nil, err
		}
		d.observer.ObservePoll(cred.Endpoint, st.Status)
		logger.Debug("operation status",
			zap.String("status", st.Status),
			zap.Int("attempt", attempt))

		switch st.Status {
		case statusSucceeded:
			if isAbsent(st.AnalyzeResult) {
				return nil, types.NewError(types.ErrProtocolViolation, "succeeded without result").
					WithEndpoint(cred.Endpoint)
			}
			return st.AnalyzeResult, nil
		case statusFailed:
			msg := "analysis failed"
			if detail := excerpt(st.Error.String(), cred.APIKey.Expose()); detail != "" {
				msg += ": " + detail
			}
			return nil, types.NewError(types.ErrAnalysisFailed, msg).WithEndpoint(cred.Endpoint)
		case statusRunning, statusNotStarted:
			timer.Reset(d.cfg.PollInterval)
		default:
			return nil, types.Errorf(types.ErrProtocolViolation, "unknown status: %s", excerpt(st.Status, cred.APIKey.Expose())).
				WithEndpoint(cred.Endpoint)
		}
	}
}

func (d *Driver) fetchStatus(ctx context.Context, cred credential.Credential, opLocation string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
	if err != nil {
		return nil, types.NewError(types.ErrPollFailed, "build poll request").
			WithCause(err).
			WithEndpoint(cred.Endpoint)
	}
	req.Header.Set(headerAPIKey, cred.APIKey.Expose())

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelledError(ctx)
		}
		return nil, types.NewError(types.ErrPollFailed, "poll transport error").
			WithCause(err).
			WithEndpoint(cred.Endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body, cred.APIKey.Expose())
		return nil, types.Errorf(types.ErrPollFailed, "poll rejected with status %d: %s", resp.StatusCode, msg).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(types.RetryableStatus(resp.StatusCode)).
			WithEndpoint(cred.Endpoint)
	}

	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		if ctx.Err() != nil {
			return nil, cancelledError(ctx)
		}
		return nil, types.NewError(types.ErrPollFailed, "decode poll response").
			WithCause(err).
			WithHTTPStatus(resp.StatusCode).
			WithEndpoint(cred.Endpoint)
	}
	return &st, nil
}

func (d *Driver) transition(logger *zap.Logger, from, to State) {
	d.observer.ObserveTransition(from, to)
	logger.Debug("state transition",
		zap.String("from", string(from)),
		zap.String("state", string(to)))
}

func (d *Driver) itemLogger(ctx context.Context, cred credential.Credential, item Item) *zap.Logger {
	fields := []zap.Field{
		zap.String("endpoint", cred.Endpoint),
		zap.String("model_id", d.cfg.ModelID),
	}
	if batchID, ok := ctxkeys.BatchID(ctx); ok {
		fields = append(fields, zap.String("batch_id", batchID))
	}
	if idx, ok := ctxkeys.ItemIndex(ctx); ok {
		fields = append(fields, zap.Int("item_index", idx))
	}
	switch item.Kind {
	case KindFile:
		fields = append(fields, zap.String("file_name", item.displayName()))
	default:
		fields = append(fields, zap.String("document_url", item.displayName()))
	}
	return d.logger.With(fields...)
}

// requestBody 构造请求体：URL 文档发送 {"urlSource": ...}，本地文件整体读入后原样上传
func requestBody(item Item) ([]byte, string, *types.Error) {
	switch item.Kind {
	case KindURL:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(struct {
			URLSource string `json:"urlSource"`
		}{URLSource: item.Source}); err != nil {
			return nil, "", types.NewError(types.ErrInvalidInput, "encode url source").WithCause(err)
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), "application/json", nil
	case KindFile:
		data, err := os.ReadFile(item.Source)
		if err != nil {
			return nil, "", types.NewError(types.ErrFileReadFailed, "read document").
				WithCause(err).
				WithPath(item.Source)
		}
		return data, ContentTypeForPath(item.Source), nil
	default:
		return nil, "", types.Errorf(types.ErrInvalidInput, "unknown item kind %d", item.Kind)
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// validOperationLocation 操作地址须为可见 ASCII 且是带主机的绝对 http(s) URL
func validOperationLocation(s string) bool {
	if !printableASCII(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
