package config

import (
	"fmt"
	"os"

	"github.com/BaSui01/docflow/credential"
	"github.com/BaSui01/docflow/types"
)

// CredentialConfig 单个资源凭据。api_key 与 api_key_env 二选一，后者从环境变量读取密钥。
type CredentialConfig struct {
	Endpoint  string       `yaml:"endpoint"`
	APIKey    types.Secret `yaml:"api_key"`
	APIKeyEnv string       `yaml:"api_key_env"`
}

// resolve 返回最终密钥
func (c CredentialConfig) resolve() (types.Secret, error) {
	if !c.APIKey.IsZero() && c.APIKey.Expose() != "" {
		return c.APIKey, nil
	}
	if c.APIKeyEnv == "" {
		return types.Secret{}, fmt.Errorf("credential %s: api_key or api_key_env is required", c.Endpoint)
	}
	v, ok := os.LookupEnv(c.APIKeyEnv)
	if !ok || v == "" {
		return types.Secret{}, fmt.Errorf("credential %s: environment variable %s is not set", c.Endpoint, c.APIKeyEnv)
	}
	return types.NewSecret(v), nil
}

// ResolveCredentials 解析全部凭据，按配置顺序返回
func (c *Config) ResolveCredentials() ([]credential.Credential, error) {
	if len(c.Credentials) == 0 {
		return nil, fmt.Errorf("no credentials configured")
	}
	out := make([]credential.Credential, 0, len(c.Credentials))
	for _, cc := range c.Credentials {
		key, err := cc.resolve()
		if err != nil {
			return nil, err
		}
		out = append(out, credential.Credential{Endpoint: cc.Endpoint, APIKey: key})
	}
	return out, nil
}
