package docintel

import "time"

// State 单个文档在 LRO 协议中的状态
type State string

const (
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// IsTerminal 是否为终态
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// 服务端返回的操作状态
const (
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
	statusRunning    = "running"
	statusNotStarted = "notStarted"
)

// Observer 接收驱动过程中的度量事件，实现方必须并发安全
type Observer interface {
	// ObserveSubmission 一次提交请求完成；status 为 0 表示传输失败
	ObserveSubmission(endpoint string, status int, elapsed time.Duration)
	// ObservePoll 一次轮询完成；status 为服务端状态或 "error"
	ObservePoll(endpoint string, status string)
	// ObserveTransition 状态迁移
	ObserveTransition(from, to State)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(string, int, time.Duration) {}
func (nopObserver) ObservePoll(string, string)                   {}
func (nopObserver) ObserveTransition(State, State)               {}
