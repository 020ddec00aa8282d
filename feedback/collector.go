// Package feedback 是交互回流路径：记录用户行为并联动趋势榜单与缓存失效。
package feedback

import (
	"context"
	"time"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/feed"
	"github.com/rushteam/learnfeed/profile"
)

// Collector 负责用户交互的写入回流。
//
// 一次 Record 完成三件事：
//  1. 行为日志 Append（append-only，下一次画像构建即可见）
//  2. 趋势榜单加分（按交互强度加权，驱动 recall.Trending）
//  3. feed 缓存失效（画像变了，缓存的 feed 已过期）
//
// 榜单与缓存是尽力而为：行为日志写入成功后，后两步失败不回滚、不报错。
type Collector struct {
	// Interactions 行为日志存储（必填）
	Interactions core.InteractionStore

	// Trending 可选：趋势榜单后端
	Trending core.KeyValueStore

	// TrendingKey 榜单 key，默认 "trending:contents"
	TrendingKey string

	// Weights 交互强度加权，nil 时使用画像的默认策略
	Weights *profile.WeightPolicy

	// Cache 可选：feed 结果缓存（新交互后失效）
	Cache *feed.Cache
}

// Record 记录一条用户交互。
func (c *Collector) Record(ctx context.Context, interaction *core.UserInteraction) error {
	if interaction == nil || interaction.UserID == "" || interaction.ContentID == "" {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"feedback: interaction requires user id and content id")
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}

	if err := c.Interactions.Append(ctx, interaction); err != nil {
		return err
	}

	c.bumpTrending(ctx, interaction)

	if c.Cache != nil {
		// 失效失败最多让缓存多活一个 TTL 周期
		_ = c.Cache.Invalidate(ctx, interaction.UserID)
	}
	return nil
}

// RecordView / RecordLike / RecordComplete 是常用交互的便捷入口。

func (c *Collector) RecordView(ctx context.Context, userID, contentID string) error {
	return c.Record(ctx, &core.UserInteraction{
		UserID: userID, ContentID: contentID, Type: core.InteractionView,
	})
}

func (c *Collector) RecordLike(ctx context.Context, userID, contentID string) error {
	return c.Record(ctx, &core.UserInteraction{
		UserID: userID, ContentID: contentID, Type: core.InteractionLike,
	})
}

func (c *Collector) RecordComplete(ctx context.Context, userID, contentID string, completionPercent int) error {
	return c.Record(ctx, &core.UserInteraction{
		UserID: userID, ContentID: contentID,
		Type: core.InteractionComplete, CompletionPercent: completionPercent,
	})
}

// bumpTrending 按交互强度给榜单加分；负向交互不加分。
func (c *Collector) bumpTrending(ctx context.Context, interaction *core.UserInteraction) {
	if c.Trending == nil {
		return
	}

	policy := c.Weights
	if policy == nil {
		policy = profile.DefaultWeightPolicy()
	}
	delta := policy.Weight(interaction)
	if delta <= 0 {
		return
	}

	key := c.TrendingKey
	if key == "" {
		key = "trending:contents"
	}

	current, err := c.Trending.ZScore(ctx, key, interaction.ContentID)
	if err != nil && !core.IsStoreNotFound(err) {
		return
	}
	_ = c.Trending.ZAdd(ctx, key, current+delta, interaction.ContentID)
}
