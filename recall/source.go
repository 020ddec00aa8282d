// Package recall 提供候选集获取：内容目录召回、趋势召回、向量召回，以及并发 fan-out。
package recall

import (
	"context"

	"github.com/rushteam/learnfeed/core"
)

// Source 表示一个可复用的召回源（内容目录/趋势/向量/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
