package filter

import (
	"context"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pkg/dsl"
)

// RuleFilter 是策展规则过滤器：运营下发的 CEL 表达式，命中即剔除。
//
// 规则表达式对每条候选求布尔值，true 表示剔除。例如：
//   - `content.content_type == "video" && content.duration_minutes > 120`
//     → 剔除超长视频
//   - `"crypto" in content.topics && rctx.cold_start`
//     → 冷启动用户不推该主题
//
// 表达式语法见 pkg/dsl。
type RuleFilter struct {
	// Rules 规则表达式列表，任意一条命中即剔除
	Rules []string
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || len(f.Rules) == 0 {
		return false, nil
	}

	eval := dsl.NewEval(item, rctx)
	for _, rule := range f.Rules {
		if rule == "" {
			continue
		}
		hit, err := eval.Evaluate(rule)
		if err != nil {
			// 规则写错不应拖垮 feed：跳过这条规则
			continue
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}
