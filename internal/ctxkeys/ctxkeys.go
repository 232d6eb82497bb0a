// Package ctxkeys 定义跨包传递的 context 键，用于日志关联。
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	batchIDKey   contextKey = "batch_id"
	itemIndexKey contextKey = "item_index"
)

// WithBatchID 设置批次 ID
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey, batchID)
}

// BatchID 获取批次 ID
func BatchID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(batchIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithItemIndex 设置文档在批次中的位置
func WithItemIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, itemIndexKey, index)
}

// ItemIndex 获取文档在批次中的位置
func ItemIndex(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(itemIndexKey).(int)
	return v, ok
}
