package filter

import (
	"context"

	"github.com/rushteam/learnfeed/core"
)

// BlocklistFilter 是全局下架过滤器：平台级紧急下架的内容 ID 列表。
// 审核状态的修正有同步延迟，blocklist 提供即时生效的兜底通道。
type BlocklistFilter struct {
	// Store 用于从存储中读取 blocklist
	Store BlocklistStore

	// Key 是 Store 中的 blocklist key，例如 "curation:blocklist"
	Key string

	// IDs 内存兜底列表（Store 为空时使用）
	IDs []string
}

// BlocklistStore 是 blocklist 存储接口。
type BlocklistStore interface {
	GetBlocklist(ctx context.Context, key string) ([]string, error)
}

func (f *BlocklistFilter) Name() string {
	return "filter.blocklist"
}

func (f *BlocklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}

	ids := f.IDs
	if f.Store != nil && f.Key != "" {
		stored, err := f.Store.GetBlocklist(ctx, f.Key)
		if err == nil {
			ids = stored
		}
		// 读取失败时退回内存列表，不中断过滤
	}

	for _, id := range ids {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
