package types

import (
	"fmt"
	"strconv"
)

// Redacted 是敏感值在任何展示路径上的替代文本
const Redacted = "[REDACTED]"

// Secret 包装 API Key 等敏感字符串。
// String / GoString / fmt 动词 / JSON / Text 编码都只会输出 Redacted，
// 明文只能通过 Expose 显式取得。复制 Secret 时共享同一份明文。
type Secret struct {
	value *string
}

// NewSecret 包装明文
func NewSecret(plaintext string) Secret {
	return Secret{value: &plaintext}
}

// Expose 返回明文，仅应在构造请求头时调用
func (s Secret) Expose() string {
	if s.value == nil {
		return ""
	}
	return *s.value
}

// IsZero 是否为空值
func (s Secret) IsZero() bool {
	return s.value == nil || *s.value == ""
}

func (s Secret) String() string { return Redacted }

func (s Secret) GoString() string { return "types.Secret(" + Redacted + ")" }

// Format 覆盖所有 fmt 动词，包括 %x 与 %q
func (s Secret) Format(f fmt.State, verb rune) {
	switch verb {
	case 'q':
		_, _ = f.Write([]byte(strconv.Quote(Redacted)))
	case 'v':
		if f.Flag('#') {
			_, _ = f.Write([]byte(s.GoString()))
			return
		}
		_, _ = f.Write([]byte(Redacted))
	default:
		_, _ = f.Write([]byte(Redacted))
	}
}

// MarshalJSON 始终输出脱敏文本
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(Redacted)), nil
}

// MarshalText 始终输出脱敏文本
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(Redacted), nil
}

// UnmarshalText 从配置文件读取明文（yaml.v3 会走这条路径）
func (s *Secret) UnmarshalText(text []byte) error {
	v := string(text)
	s.value = &v
	return nil
}
