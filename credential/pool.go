package credential

import (
	"sync/atomic"

	"github.com/BaSui01/docflow/types"
)

// Pool 按轮询顺序分发凭据。
// 计数器只做原子自增，不需要跨协程的先后可见性，溢出后自然回绕。
type Pool struct {
	credentials []Credential
	counter     atomic.Uint64
}

// NewPool 创建凭据池，凭据列表不能为空
func NewPool(credentials []Credential) (*Pool, error) {
	if len(credentials) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "credential list is empty")
	}
	creds := make([]Credential, len(credentials))
	copy(creds, credentials)
	return &Pool{credentials: creds}, nil
}

// Acquire 返回下一个凭据（wait-free）
func (p *Pool) Acquire() Credential {
	n := p.counter.Add(1) - 1
	return p.credentials[n%uint64(len(p.credentials))]
}

// Len 凭据数量
func (p *Pool) Len() int {
	return len(p.credentials)
}

// Credentials 返回凭据列表副本
func (p *Pool) Credentials() []Credential {
	out := make([]Credential, len(p.credentials))
	copy(out, p.credentials)
	return out
}
