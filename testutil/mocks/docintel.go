// =============================================================================
// 📄 DocIntelServer - Document Intelligence 服务模拟
// =============================================================================
// 基于 httptest 的分析/轮询端点模拟，记录每次提交并统计并发中的操作数
//
// 使用方法:
//
//	srv := mocks.NewDocIntelServer()
//	defer srv.Close()
//	srv.Script("https://doc/a.pdf", mocks.Script{Polls: []mocks.PollStep{mocks.PollRunning(), mocks.PollFailed()}})
//	cred := credential.New(srv.Endpoint("res-a"), "key-a")
//
// =============================================================================
package mocks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const (
	analyzeMarker = "/documentintelligence/documentModels/"
	opPathPrefix  = "/op/"
)

// =============================================================================
// 🎯 脚本定义
// =============================================================================

// PollStep 一次轮询的响应
type PollStep struct {
	// HTTPStatus 非 0 且非 2xx 时直接返回该状态码
	HTTPStatus int
	// Status 写入响应体的 status 字段
	Status string
	// Result 原样写入 analyzeResult；为空时使用 {"content": <文档键>}
	Result string
	// OmitResult succeeded 时不携带 analyzeResult
	OmitResult bool
	// Body 非空时覆盖整个响应体
	Body string
}

// PollRunning 返回 running
func PollRunning() PollStep { return PollStep{Status: "running"} }

// PollNotStarted 返回 notStarted
func PollNotStarted() PollStep { return PollStep{Status: "notStarted"} }

// PollSucceeded 返回 succeeded 以及给定的 analyzeResult
func PollSucceeded(result string) PollStep { return PollStep{Status: "succeeded", Result: result} }

// PollFailed 返回 failed
func PollFailed() PollStep { return PollStep{Status: "failed"} }

// PollHTTPError 返回指定 HTTP 错误码
func PollHTTPError(status int, body string) PollStep {
	return PollStep{HTTPStatus: status, Body: body}
}

// Script 某个文档的服务端行为
type Script struct {
	// SubmitStatus 提交响应码，默认 202
	SubmitStatus int
	// SubmitBody 提交响应体
	SubmitBody string
	// OmitOperationLocation 不返回 operation-location 头
	OmitOperationLocation bool
	// OperationLocation 覆盖 operation-location 头的原始值
	OperationLocation string
	// Polls 依次消费，最后一步重复
	Polls []PollStep
}

// DefaultScript 先 running 再 succeeded
func DefaultScript() Script {
	return Script{Polls: []PollStep{PollRunning(), {Status: "succeeded"}}}
}

// Submission 一次提交请求的记录
type Submission struct {
	// Prefix 资源端点在本服务下的路径前缀（不含首尾 '/'）
	Prefix            string
	Model             string
	RequestURI        string
	RawQuery          string
	APIKey            string
	ContentType       string
	Body              []byte
	Key               string
	OperationLocation string
	At                time.Time
}

type operation struct {
	key    string
	apiKey string
	polls  []PollStep
	next   int
	done   bool
}

// =============================================================================
// 🔧 DocIntelServer 结构
// =============================================================================

// DocIntelServer Document Intelligence 模拟服务
type DocIntelServer struct {
	mu     sync.Mutex
	server *httptest.Server

	scripts       map[string]Script
	defaultScript Script
	validKeys     map[string]bool
	submitDelay   time.Duration

	submissions []Submission
	operations  map[string]*operation
	nextOp      int
	polls       int
	active      int
	peak        int
}

// NewDocIntelServer 启动模拟服务
func NewDocIntelServer() *DocIntelServer {
	s := &DocIntelServer{
		scripts:       make(map[string]Script),
		defaultScript: DefaultScript(),
		operations:    make(map[string]*operation),
	}
	s.server = httptest.NewServer(s)
	return s
}

// Close 关闭服务
func (s *DocIntelServer) Close() {
	s.server.Close()
}

// URL 服务根地址
func (s *DocIntelServer) URL() string {
	return s.server.URL
}

// Client 连接本服务的 HTTP 客户端
func (s *DocIntelServer) Client() *http.Client {
	return s.server.Client()
}

// Endpoint 返回一个虚拟资源端点，prefix 用于区分不同凭据
func (s *DocIntelServer) Endpoint(prefix string) string {
	if prefix == "" {
		return s.server.URL + "/"
	}
	return s.server.URL + "/" + prefix + "/"
}

// Script 为某个文档（URL 或文件内容）设置脚本
func (s *DocIntelServer) Script(key string, script Script) *DocIntelServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[key] = script
	return s
}

// WithDefaultScript 设置未单独配置文档的脚本
func (s *DocIntelServer) WithDefaultScript(script Script) *DocIntelServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultScript = script
	return s
}

// WithValidKeys 只接受给定密钥，其它返回 401
func (s *DocIntelServer) WithValidKeys(keys ...string) *DocIntelServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validKeys = make(map[string]bool, len(keys))
	for _, k := range keys {
		s.validKeys[k] = true
	}
	return s
}

// WithSubmitDelay 每次提交响应前等待
func (s *DocIntelServer) WithSubmitDelay(d time.Duration) *DocIntelServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitDelay = d
	return s
}

// =============================================================================
// 📊 调用记录
// =============================================================================

// Submissions 按到达顺序返回提交记录
func (s *DocIntelServer) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// SubmissionFor 返回某个文档的提交记录
func (s *DocIntelServer) SubmissionFor(key string) (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.submissions {
		if sub.Key == key {
			return sub, true
		}
	}
	return Submission{}, false
}

// PollCount 轮询请求总数
func (s *DocIntelServer) PollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// ActiveOperations 已提交但未到终态的操作数
func (s *DocIntelServer) ActiveOperations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// PeakActiveOperations 同时进行中操作数的峰值
func (s *DocIntelServer) PeakActiveOperations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// =============================================================================
// 🌐 HTTP 处理
// =============================================================================

// ServeHTTP 实现 http.Handler
func (s *DocIntelServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, analyzeMarker):
		s.handleSubmit(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, opPathPrefix):
		s.handlePoll(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *DocIntelServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	prefix, rest, _ := strings.Cut(r.URL.Path, analyzeMarker)
	model, _, _ := strings.Cut(rest, ":analyze")

	sub := Submission{
		Prefix:      strings.Trim(prefix, "/"),
		Model:       model,
		RequestURI:  r.RequestURI,
		RawQuery:    r.URL.RawQuery,
		APIKey:      r.Header.Get("Ocp-Apim-Subscription-Key"),
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
		Key:         documentKey(r.Header.Get("Content-Type"), body),
		At:          time.Now(),
	}

	s.mu.Lock()
	delay := s.submitDelay
	if s.validKeys != nil && !s.validKeys[sub.APIKey] {
		s.submissions = append(s.submissions, sub)
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, `{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`)
		return
	}

	script, ok := s.scripts[sub.Key]
	if !ok {
		script = s.defaultScript
	}
	status := script.SubmitStatus
	if status == 0 {
		status = http.StatusAccepted
	}

	accepted := status >= 200 && status < 300
	switch {
	case !accepted || script.OmitOperationLocation:
	case script.OperationLocation != "":
		sub.OperationLocation = script.OperationLocation
	default:
		s.nextOp++
		id := fmt.Sprintf("%d", s.nextOp)
		sub.OperationLocation = s.server.URL + opPathPrefix + id
		s.operations[id] = &operation{key: sub.Key, apiKey: sub.APIKey, polls: script.Polls}
		s.active++
		if s.active > s.peak {
			s.peak = s.active
		}
	}
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if accepted && !script.OmitOperationLocation {
		w.Header()["Operation-Location"] = []string{sub.OperationLocation}
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, script.SubmitBody)
}

func (s *DocIntelServer) handlePoll(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, opPathPrefix)

	s.mu.Lock()
	s.polls++
	op, ok := s.operations[id]
	if !ok || op.done {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Ocp-Apim-Subscription-Key") != op.apiKey {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, `{"error":{"code":"401","message":"key mismatch"}}`)
		return
	}

	step := PollStep{Status: "succeeded"}
	if len(op.polls) > 0 {
		idx := op.next
		if idx >= len(op.polls) {
			idx = len(op.polls) - 1
		}
		step = op.polls[idx]
	}
	op.next++

	httpStatus := step.HTTPStatus
	if httpStatus == 0 {
		httpStatus = http.StatusOK
	}
	terminal := httpStatus < 200 || httpStatus >= 300 ||
		step.Status == "succeeded" || step.Status == "failed"
	if terminal {
		op.done = true
		s.active--
	}
	key := op.key
	s.mu.Unlock()

	writeJSON(w, httpStatus, pollBody(step, key))
}

func pollBody(step PollStep, key string) string {
	if step.Body != "" {
		return step.Body
	}
	status, _ := json.Marshal(step.Status)
	if step.Status != "succeeded" || step.OmitResult {
		return `{"status":` + string(status) + `}`
	}
	result := step.Result
	if result == "" {
		content, _ := json.Marshal(key)
		result = `{"content":` + string(content) + `}`
	}
	return `{"status":` + string(status) + `,"analyzeResult":` + result + `}`
}

// documentKey URL 文档取 urlSource，文件取原始内容
func documentKey(contentType string, body []byte) string {
	if contentType == "application/json" {
		var req struct {
			URLSource string `json:"urlSource"`
		}
		if json.Unmarshal(body, &req) == nil && req.URLSource != "" {
			return req.URLSource
		}
	}
	return string(body)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
