package recall

import (
	"context"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
)

// Candidates 是内容目录召回源：从 ContentStore 获取审核通过的候选内容。
//
// 这是学习 feed 的基础召回：候选集 = 审核通过且有向量的内容，
// 并按偏好面（领域/形态/难度/时长）在存储侧预过滤。
// Candidates 同时实现 Source 和 Node 接口，可直接在 Pipeline 中使用。
type Candidates struct {
	Store core.ContentStore

	// MaxCandidates 候选集上限，0 表示由存储实现决定
	MaxCandidates int

	// ApplyPreferences 是否把偏好面下推到存储侧过滤（默认开启语义由调用方控制）
	ApplyPreferences bool
}

func (r *Candidates) Name() string        { return "recall.candidates" }
func (r *Candidates) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Candidates) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Candidates) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}

	filter := &core.CandidateFilter{Limit: r.MaxCandidates}
	if r.ApplyPreferences && rctx != nil {
		profile := rctx.GetProfile()
		filter.Domains = profile.ActiveDomains
		if prefs := rctx.Preferences; prefs != nil {
			filter.ContentTypes = prefs.PreferredContentTypes
			filter.MaxDurationMinutes = prefs.MaxDurationMinutes
		}
	}

	contents, err := r.Store.FetchApprovedCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(contents))
	for _, c := range contents {
		if c == nil || !c.Eligible() {
			// 存储实现应只返回合格内容，这里兜底一次
			continue
		}
		out = append(out, core.NewContentItem(c))
	}
	return out, nil
}
