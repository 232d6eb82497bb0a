package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/docflow/credential"
	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/internal/admission"
	"github.com/BaSui01/docflow/internal/ctxkeys"
	"github.com/BaSui01/docflow/types"
)

// analyzeFunc 分析单个文档
type analyzeFunc func(ctx context.Context, cred credential.Credential, item docintel.Item) (json.RawMessage, error)

// Options 派发器配置
type Options struct {
	Logger       *zap.Logger
	Observer     Observer
	PollInterval time.Duration
	// Pacing 为每个端点额外加一层每秒 MaxRPS 次提交的令牌桶
	Pacing bool
}

// Dispatcher 把一批文档分散到多个凭据上并发分析。
// 同一 Dispatcher 可并发执行多个批次，批次之间不共享计数器与闸门。
type Dispatcher struct {
	credentials []credential.Credential
	opts        Options
	logger      *zap.Logger
	observer    Observer
	newAnalyzer func(cfg docintel.DriverConfig) analyzeFunc
}

// NewDispatcher 创建派发器；凭据为空返回 INVALID_INPUT
func NewDispatcher(client *http.Client, creds []credential.Credential, opts Options) (*Dispatcher, error) {
	if len(creds) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "at least one credential is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	credsCopy := make([]credential.Credential, len(creds))
	copy(credsCopy, creds)

	return &Dispatcher{
		credentials: credsCopy,
		opts:        opts,
		logger:      logger.With(zap.String("component", "batch")),
		observer:    observer,
		newAnalyzer: func(cfg docintel.DriverConfig) analyzeFunc {
			return docintel.NewDriver(client, cfg).Analyze
		},
	}, nil
}

// Run 分析整批文档，返回与输入等长、按位置对应的结果。
// 单个文档失败只影响自己的位置；ctx 被取消时返回 CANCELLED，不返回部分结果。
func (d *Dispatcher) Run(ctx context.Context, req Request) ([]Outcome, error) {
	if err := d.validate(req); err != nil {
		return nil, err
	}
	format := req.OutputFormat
	if format == "" {
		format = docintel.DefaultOutputFormat
	}

	pool, err := credential.NewPool(d.credentials)
	if err != nil {
		return nil, err
	}
	capacity := int64(req.MaxRPS) * int64(pool.Len())
	limiter := admission.NewLimiter(capacity)

	batchID := uuid.NewString()
	logger := d.logger.With(
		zap.String("batch_id", batchID),
		zap.String("model_id", req.ModelID))

	cfg := docintel.DriverConfig{
		ModelID:      req.ModelID,
		OutputFormat: format,
		Features:     append([]string(nil), req.Features...),
		PollInterval: d.opts.PollInterval,
		Logger:       d.logger,
		Observer:     d.observer,
	}
	if d.opts.Pacing {
		cfg.Pacer = admission.NewPacer(d.endpoints(), req.MaxRPS)
	}
	analyze := d.newAnalyzer(cfg)

	logger.Info("batch started",
		zap.Int("items", len(req.Items)),
		zap.Int("credentials", pool.Len()),
		zap.Int64("capacity", capacity),
		zap.String("output_format", string(format)))
	start := time.Now()

	ctx = ctxkeys.WithBatchID(ctx, batchID)
	outcomes := make([]Outcome, len(req.Items))

	var g errgroup.Group
	for i, item := range req.Items {
		i, item := i, item
		cred := pool.Acquire()
		itemCtx := ctxkeys.WithItemIndex(ctx, i)
		g.Go(func() error {
			outcomes[i] = d.runItem(itemCtx, logger.With(zap.Int("item_index", i)), limiter, analyze, cred, item)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	d.observer.ObserveBatch(len(req.Items), elapsed)

	if err := ctx.Err(); err != nil {
		logger.Warn("batch cancelled", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, types.NewError(types.ErrCancelled, "batch cancelled").WithCause(err)
	}

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}
	logger.Info("batch completed",
		zap.Int("succeeded", len(outcomes)-failed),
		zap.Int("failed", failed),
		zap.Int64("peak_in_flight", limiter.Peak()),
		zap.Duration("elapsed", elapsed))
	return outcomes, nil
}

// runItem 在许可保护下分析单个文档；许可在所有退出路径上归还
func (d *Dispatcher) runItem(
	ctx context.Context,
	logger *zap.Logger,
	limiter *admission.Limiter,
	analyze analyzeFunc,
	cred credential.Credential,
	item docintel.Item,
) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			msg := scrub(fmt.Sprint(r), cred)
			logger.Error("analysis task panicked",
				zap.String("panic", msg),
				zap.Stack("stack"))
			out = Outcome{Err: types.Errorf(types.ErrTaskFaulted, "task panicked: %s", msg).
				WithEndpoint(cred.Endpoint)}
		}
		d.observer.ObserveOutcome(out.Code())
	}()

	permit, err := limiter.Acquire(ctx)
	if err != nil {
		return Outcome{Err: types.NewError(types.ErrCancelled, "admission cancelled").WithCause(err)}
	}
	defer permit.Release()

	d.observer.ObserveInFlight(1)
	defer d.observer.ObserveInFlight(-1)

	logger.Debug("permit acquired",
		zap.Object("credential", cred),
		zap.Int64("in_flight", limiter.InFlight()))

	payload, err := analyze(ctx, cred, item)
	if err != nil {
		return Outcome{Err: asTypedError(err, cred)}
	}
	return Outcome{Payload: payload}
}

func (d *Dispatcher) validate(req Request) error {
	if len(d.credentials) == 0 {
		return types.NewError(types.ErrInvalidInput, "at least one credential is required")
	}
	if req.MaxRPS <= 0 {
		return types.Errorf(types.ErrInvalidInput, "max_rps must be positive, got %d", req.MaxRPS)
	}
	if strings.TrimSpace(req.ModelID) == "" {
		return types.NewError(types.ErrInvalidInput, "model id is required")
	}
	switch req.OutputFormat {
	case "", docintel.FormatText, docintel.FormatMarkdown:
	default:
		return types.Errorf(types.ErrInvalidInput, "invalid output format %q", req.OutputFormat)
	}
	return nil
}

func (d *Dispatcher) endpoints() []string {
	eps := make([]string, len(d.credentials))
	for i, c := range d.credentials {
		eps[i] = c.Endpoint
	}
	return eps
}

// asTypedError 驱动返回的都是 *types.Error，其它错误按任务故障处理
func asTypedError(err error, cred credential.Credential) *types.Error {
	if e, ok := types.AsError(err); ok {
		return e
	}
	return types.Errorf(types.ErrTaskFaulted, "unexpected error: %s", scrub(err.Error(), cred)).
		WithEndpoint(cred.Endpoint)
}

func scrub(s string, cred credential.Credential) string {
	if key := cred.APIKey.Expose(); key != "" {
		return strings.ReplaceAll(s, key, types.Redacted)
	}
	return s
}
