// Package admission 限制同时在途的文档分析操作数量。
package admission

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter 计数闸门。等待者按先到先得排队（semaphore.Weighted 保证 FIFO）。
// 许可只计数，不绑定具体凭据。
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewLimiter 创建容量为 capacity 的闸门；capacity 为 0 时任何 Acquire 都会一直等待到 ctx 结束
func NewLimiter(capacity int64) *Limiter {
	if capacity < 0 {
		capacity = 0
	}
	return &Limiter{sem: semaphore.NewWeighted(capacity), capacity: capacity}
}

// Permit 一个在途许可。Release 幂等，持有方应 defer 调用。
type Permit struct {
	l    *Limiter
	once sync.Once
}

// Acquire 挂起直到有空闲槽位或 ctx 结束
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if l.capacity == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	n := l.inFlight.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return &Permit{l: l}, nil
}

// Release 归还许可
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.l.inFlight.Add(-1)
		p.l.sem.Release(1)
	})
}

// Capacity 闸门容量
func (l *Limiter) Capacity() int64 {
	return l.capacity
}

// InFlight 当前被持有的许可数
func (l *Limiter) InFlight() int64 {
	return l.inFlight.Load()
}

// Peak 创建以来同时持有许可数的最大值
func (l *Limiter) Peak() int64 {
	return l.peak.Load()
}
