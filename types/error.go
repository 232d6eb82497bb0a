package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 统一错误码
type ErrorCode string

// 批次级错误码（派发前同步返回）
const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCancelled    ErrorCode = "CANCELLED"
)

// 单条文档错误码（写入对应结果位置）
const (
	ErrFileReadFailed    ErrorCode = "FILE_READ_FAILED"
	ErrSubmissionFailed  ErrorCode = "SUBMISSION_FAILED"
	ErrProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	ErrPollFailed        ErrorCode = "POLL_FAILED"
	ErrAnalysisFailed    ErrorCode = "ANALYSIS_FAILED"
	ErrTaskFaulted       ErrorCode = "TASK_FAULTED"
)

// Error represents a structured error with code, message, and metadata.
// 序列化结果中不包含 Cause，避免把底层细节带出边界。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Path       string    `json:"path,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf 按格式构造错误
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithPath 记录出错的本地文件路径
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithEndpoint 记录出错请求所属的资源端点
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// AsError 提取 *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode 判断错误链上是否带有指定错误码
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// RetryableStatus 标记上游状态码是否值得调用方重试。
// 仅作提示：客户端本身不做任何重试。
func RetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return status >= 500
	}
}
