package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
)

// Trending 是趋势召回源，从 Store 读取按互动热度排序的内容榜单。
// - 如果 Store 实现了 KeyValueStore，优先使用 ZRange（有序集合，按互动分排序）
// - 否则从普通 key 读取 JSON 数组
// - 如果 Store 为空，使用内存中的 IDs 作为 fallback
//
// 主要服务冷启动：交互少于 MinInteractions 的用户画像向量接近零，
// 相似度打分没有区分度，趋势内容保证 feed 不空。
// Trending 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Trending struct {
	Store    core.Store
	Contents core.ContentStore // 可选：用于回填 ContentItem，缺失时只携带 ID
	Key      string            // 榜单 key，例如 "trending:contents"
	TopN     int               // 取榜单前 N 条，默认 100
	IDs      []string          // fallback 内存列表

	// MinInteractions 冷启动阈值：画像交互数达到该值后本源不再出结果。
	// 0 表示不做门控，始终召回。
	MinInteractions int
}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Trending) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Trending) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.MinInteractions > 0 && rctx != nil {
		if profile := rctx.GetProfile(); profile.InteractionCount >= r.MinInteractions {
			return nil, nil
		}
	}

	topN := int64(r.TopN)
	if topN <= 0 {
		topN = 100
	}

	var ids []string

	// 优先从 Store 读取（支持 ZRange 或普通 Get）
	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kvStore.ZRange(ctx, r.Key, 0, topN-1)
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：使用内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		if r.Contents != nil {
			content, err := r.Contents.GetContent(ctx, id)
			if err != nil {
				if core.IsNotFound(err) {
					continue // 榜单可能滞后于下架
				}
				return nil, err
			}
			if !content.Eligible() {
				continue
			}
			it.Content = content
		}
		out = append(out, it)
	}
	return out, nil
}
