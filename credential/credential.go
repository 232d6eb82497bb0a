package credential

import (
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/docflow/types"
)

// Credential 一个 Document Intelligence 资源的访问凭据。
// 每个资源在服务端有独立的限流额度。
type Credential struct {
	Endpoint string       `json:"endpoint" yaml:"endpoint"`
	APIKey   types.Secret `json:"api_key" yaml:"api_key"`
}

// New 创建凭据
func New(endpoint, apiKey string) Credential {
	return Credential{Endpoint: endpoint, APIKey: types.NewSecret(apiKey)}
}

// String 仅输出端点
func (c Credential) String() string {
	return "Credential{Endpoint:" + c.Endpoint + ", APIKey:" + types.Redacted + "}"
}

// MarshalLogObject 实现 zapcore.ObjectMarshaler，api_key 恒为脱敏文本
func (c Credential) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("endpoint", c.Endpoint)
	enc.AddString("api_key", types.Redacted)
	return nil
}

var _ zapcore.ObjectMarshaler = Credential{}
