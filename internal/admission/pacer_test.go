package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_NilIsNoop(t *testing.T) {
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background(), "https://r.example"))
	assert.Nil(t, NewPacer([]string{"https://r.example"}, 0))
}

func TestPacer_BurstThenThrottle(t *testing.T) {
	p := NewPacer([]string{"https://r.example/"}, 2)
	require.NotNil(t, p)
	ctx := context.Background()

	start := time.Now()
	// 突发额度 2，尾部斜杠不影响分组
	require.NoError(t, p.Wait(ctx, "https://r.example"))
	require.NoError(t, p.Wait(ctx, "https://r.example/"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, p.Wait(ctx, "https://r.example"))
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestPacer_UnknownEndpointPasses(t *testing.T) {
	p := NewPacer([]string{"https://a.example"}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Wait(ctx, "https://other.example"))
}

func TestPacer_CancelledWait(t *testing.T) {
	p := NewPacer([]string{"https://a.example"}, 1)
	require.NoError(t, p.Wait(context.Background(), "https://a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx, "https://a.example"))
}

func TestPacer_DeadlineBeforeNextTokenWaitsForContext(t *testing.T) {
	p := NewPacer([]string{"https://a.example"}, 1)
	require.NoError(t, p.Wait(context.Background(), "https://a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Wait(ctx, "https://a.example")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Error(t, ctx.Err())
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
