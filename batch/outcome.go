package batch

import (
	"encoding/json"
	"time"

	"github.com/BaSui01/docflow/docintel"
	"github.com/BaSui01/docflow/types"
)

// Outcome 单个文档的结果：成功时为服务端 analyzeResult 原文，失败时为错误描述
type Outcome struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Err     *types.Error    `json:"error,omitempty"`
}

// OK 是否成功
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Code 结果分类，成功为 "ok"
func (o Outcome) Code() string {
	if o.Err == nil {
		return "ok"
	}
	return string(o.Err.Code)
}

// Request 一个批次的输入
type Request struct {
	ModelID      string
	Items        []docintel.Item
	Features     []string
	OutputFormat docintel.OutputFormat
	// MaxRPS 每个凭据允许的在途操作数，总容量为 MaxRPS × 凭据数
	MaxRPS int
}

// Observer 批次级度量，在 LRO 事件之外增加在途数、结果与批次耗时
type Observer interface {
	docintel.Observer
	ObserveInFlight(delta int)
	ObserveOutcome(code string)
	ObserveBatch(items int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(string, int, time.Duration)     {}
func (nopObserver) ObservePoll(string, string)                       {}
func (nopObserver) ObserveTransition(docintel.State, docintel.State) {}
func (nopObserver) ObserveInFlight(int)                              {}
func (nopObserver) ObserveOutcome(string)                            {}
func (nopObserver) ObserveBatch(int, time.Duration)                  {}
