package docintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/docflow/types"
)

const (
	// maxErrorBodyBytes 错误响应体最多读取的字节数
	maxErrorBodyBytes = 4 << 10
	// maxExcerptRunes 错误信息中保留的响应摘录长度
	maxExcerptRunes = 256
)

// serviceError Document Intelligence 错误体 {"error": {...}}
type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *serviceError) String() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	default:
		return e.Code
	}
}

// readErrorMessage 读取响应体中的错误消息。
// 优先解析服务端 JSON 错误体，失败则回退到原始文本；结果已脱敏并截断。
func readErrorMessage(body io.Reader, secret string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil && len(data) == 0 {
		return "failed to read error response"
	}

	var errResp struct {
		Error *serviceError `json:"error"`
	}
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != nil {
		if msg := errResp.Error.String(); msg != "" {
			return excerpt(msg, secret)
		}
	}
	return excerpt(string(data), secret)
}

// excerpt 去掉密钥后截断到 maxExcerptRunes 个字符
func excerpt(s, secret string) string {
	s = strings.TrimSpace(s)
	if secret != "" {
		s = strings.ReplaceAll(s, secret, types.Redacted)
	}
	if utf8.RuneCountInString(s) > maxExcerptRunes {
		s = string([]rune(s)[:maxExcerptRunes]) + "..."
	}
	return s
}

// cancelledError 上下文取消或超时
func cancelledError(ctx context.Context) *types.Error {
	return types.NewError(types.ErrCancelled, "analysis cancelled").WithCause(ctx.Err())
}
