package filter

import (
	"context"

	"github.com/rushteam/learnfeed/core"
)

// HistoryFilter 是长周期已读过滤器，剔除用户很久以前消费过的内容。
//
// 与排序阶段的已读惩罚分工：
//   - 画像窗口内的已读 → 排序降权（×SeenPenalty），复习场景仍可露出
//   - 画像窗口之外的长周期历史 → 此过滤器硬剔除
//
// 支持两种数据源：
//  1. IDs 列表集合（近期数据）- 通过 GetConsumedItems 获取
//  2. 布隆过滤器（较长周期数据，按天维度实现时间窗口）- 通过 CheckConsumedInBloomFilter 检查
type HistoryFilter struct {
	// Store 用于从存储中读取用户消费历史
	Store HistoryStore

	// KeyPrefix 是 Store 中的 key 前缀
	// 对于 IDs 列表：实际 key 为 {KeyPrefix}:{UserID}
	// 对于布隆过滤器：实际 key 为 {KeyPrefix}:bloom:{UserID}:{date}
	KeyPrefix string

	// TimeWindow 是消费历史时间窗口（秒），用于 IDs 列表集合（近期数据）
	TimeWindow int64

	// BloomFilterDayWindow 是布隆过滤器的时间窗口（天数），用于较长周期数据
	// 如果为 0，则不使用布隆过滤器
	BloomFilterDayWindow int
}

// HistoryStore 是消费历史存储接口。
type HistoryStore interface {
	// GetConsumedItems 获取用户在指定时间窗口内消费过的内容 ID 列表（近期数据）
	GetConsumedItems(ctx context.Context, userID string, keyPrefix string, timeWindow int64) ([]string, error)

	// CheckConsumedInBloomFilter 检查内容是否在布隆过滤器中（较长周期数据，按天维度）
	// dayWindow 是时间窗口（天数），检查最近 dayWindow 天内的布隆过滤器
	// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在
	CheckConsumedInBloomFilter(ctx context.Context, userID string, contentID string, keyPrefix string, dayWindow int) (bool, error)
}

// NewHistoryFilter 创建一个长周期已读过滤器。
// timeWindow 是 IDs 列表的时间窗口（秒），用于近期数据
// bloomFilterDayWindow 是布隆过滤器的时间窗口（天数），如果为 0 则不使用布隆过滤器
func NewHistoryFilter(storeAdapter *StoreAdapter, keyPrefix string, timeWindow int64, bloomFilterDayWindow int) *HistoryFilter {
	var store HistoryStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &HistoryFilter{
		Store:                store,
		KeyPrefix:            keyPrefix,
		TimeWindow:           timeWindow,
		BloomFilterDayWindow: bloomFilterDayWindow,
	}
}

func (f *HistoryFilter) Name() string {
	return "filter.history"
}

func (f *HistoryFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	if f.Store == nil {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:consumed"
	}

	// 1. 检查 IDs 列表集合（近期数据）
	if f.TimeWindow > 0 {
		consumedIDs, err := f.Store.GetConsumedItems(ctx, rctx.UserID, keyPrefix, f.TimeWindow)
		if err == nil {
			for _, id := range consumedIDs {
				if item.ID == id {
					return true, nil
				}
			}
		}
		// 如果 IDs 列表检查失败，继续检查布隆过滤器
	}

	// 2. 检查布隆过滤器（较长周期数据，按天维度）
	if f.BloomFilterDayWindow > 0 {
		exists, err := f.Store.CheckConsumedInBloomFilter(ctx, rctx.UserID, item.ID, keyPrefix, f.BloomFilterDayWindow)
		if err == nil && exists {
			// 布隆过滤器返回 true 表示可能已消费（存在误判可能），按已消费处理
			return true, nil
		}
	}

	return false, nil
}
