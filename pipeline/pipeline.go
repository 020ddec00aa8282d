package pipeline

import (
	"context"

	"github.com/rushteam/learnfeed/core"
)

// Pipeline 是 LearnFeed 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// feed 请求的标准链路：recall → filter → rank → rerank → explain。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			// 调用方放弃请求时立刻停止：链路只读且幂等，丢弃中间结果无副作用
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
