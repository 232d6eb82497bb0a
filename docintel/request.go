package docintel

import (
	"strings"

	"github.com/BaSui01/docflow/types"
)

// APIVersion Document Intelligence REST API 版本
const APIVersion = "2024-11-30"

// OutputFormat 分析结果中 content 字段的格式
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
)

// DefaultOutputFormat 未指定时使用的格式
const DefaultOutputFormat = FormatText

// ParseOutputFormat 去除首尾空白、忽略大小写解析输出格式。
// 非法值在任何网络请求之前返回 INVALID_INPUT。
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", types.Errorf(types.ErrInvalidInput,
			"invalid output format %q: expected 'text' or 'markdown'", s)
	}
}

// BuildAnalyzeURL 拼接提交地址。
// endpoint 只去掉一个结尾 '/'；modelID 与 features 原样拼接，不做 URL 转义。
func BuildAnalyzeURL(endpoint, modelID string, format OutputFormat, features []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(endpoint, "/"))
	b.WriteString("/documentintelligence/documentModels/")
	b.WriteString(modelID)
	b.WriteString(":analyze?api-version=")
	b.WriteString(APIVersion)
	b.WriteString("&outputContentFormat=")
	b.WriteString(string(format))
	if len(features) > 0 {
		b.WriteString("&features=")
		b.WriteString(strings.Join(features, ","))
	}
	return b.String()
}
