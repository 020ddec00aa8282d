package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/pkg/utils"
)

// Diversity 是多样性重排节点：同一主题反复出现时按次数衰减得分，
// 避免 feed 被单一主题刷屏。
//
// 算法（按当前排序顺序扫描）：
//   - 每条内容取首个主题作为主主题
//   - 主主题第 k 次出现时得分乘以 Decay^k（k 从 0 起，首条不衰减）
//   - 衰减后稳定重排（分数相同按 ID 升序）
//
// 没有主题的内容不参与衰减。Decay = 1 时本节点退化为 no-op。
type Diversity struct {
	// Decay 重复主题的衰减系数 (0,1]，默认 0.8
	Decay float64
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	decay := n.Decay
	if decay <= 0 || decay > 1 {
		decay = 0.8
	}
	if decay == 1 {
		return items, nil
	}

	counts := make(map[string]int, 16)
	for _, it := range items {
		if it == nil {
			continue
		}
		topic := primaryTopic(it)
		if topic == "" {
			continue
		}
		k := counts[topic]
		counts[topic] = k + 1
		if k == 0 {
			continue
		}
		factor := 1.0
		for i := 0; i < k; i++ {
			factor *= decay
		}
		it.Score *= factor
		it.PutLabel("diversity_decay", utils.Label{Value: topic, Source: "rerank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// primaryTopic 取内容的主主题：Content.Topics 首个元素，
// 缺内容时退回 meta["topic"]。
func primaryTopic(it *core.Item) string {
	if it.Content != nil && len(it.Content.Topics) > 0 {
		return it.Content.Topics[0]
	}
	if it.Meta != nil {
		if v, ok := it.Meta["topic"]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
