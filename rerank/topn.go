// Package rerank 提供排序后的重排：Top-N 截断与多样性调整。
package rerank

import (
	"context"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 条内容。
// 通常在排序（Rank）节点之后使用，用于限制 feed 长度。
//
// 使用场景：
//   - 排序后只返回 Top 10/20/50 条结果
//   - 配合多样性重排使用（先多样性调整，再截断）
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.RelevanceNode{...},  // 排序
//	        &rerank.Diversity{...},    // 多样性重排
//	        &rerank.TopNNode{N: 20},   // 截取 Top 20
//	    },
//	}
type TopNNode struct {
	// N 要保留的内容数量（Top N）
	// 如果 N <= 0，优先使用 rctx.Limit；都未设置则不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		return items, nil
	}

	if len(items) <= limit {
		return items, nil
	}

	return items[:limit], nil
}
