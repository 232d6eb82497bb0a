package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchID(t *testing.T) {
	ctx := context.Background()
	_, ok := BatchID(ctx)
	assert.False(t, ok)

	_, ok = BatchID(WithBatchID(ctx, ""))
	assert.False(t, ok)

	id, ok := BatchID(WithBatchID(ctx, "b-1"))
	assert.True(t, ok)
	assert.Equal(t, "b-1", id)
}

func TestItemIndex(t *testing.T) {
	ctx := context.Background()
	_, ok := ItemIndex(ctx)
	assert.False(t, ok)

	idx, ok := ItemIndex(WithItemIndex(ctx, 0))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}
