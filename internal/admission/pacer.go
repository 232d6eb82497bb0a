package admission

import (
	"context"
	"strings"

	"golang.org/x/time/rate"
)

// Pacer 按资源端点对请求做令牌桶节流（可选能力，默认关闭）。
// 同一端点的多个凭据共享一个桶，因为服务端按资源限流。
type Pacer struct {
	limiters map[string]*rate.Limiter
}

// NewPacer 为每个端点创建每秒 rps 个请求、突发 rps 的限流器；rps <= 0 返回 nil
func NewPacer(endpoints []string, rps int) *Pacer {
	if rps <= 0 {
		return nil
	}
	p := &Pacer{limiters: make(map[string]*rate.Limiter, len(endpoints))}
	for _, ep := range endpoints {
		key := pacerKey(ep)
		if _, ok := p.limiters[key]; ok {
			continue
		}
		p.limiters[key] = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return p
}

// Wait 阻塞直到该端点有可用令牌；nil Pacer 或未登记的端点直接放行。
// 截止时间早于下一个令牌时，rate.Limiter 会立即拒绝；这里改为等到 ctx 结束，
// 返回值只在 ctx 已结束时非 nil。
func (p *Pacer) Wait(ctx context.Context, endpoint string) error {
	if p == nil {
		return nil
	}
	l, ok := p.limiters[pacerKey(endpoint)]
	if !ok {
		return nil
	}
	err := l.Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func pacerKey(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/")
}
