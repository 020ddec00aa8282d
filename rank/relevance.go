// Package rank 提供候选内容的相关性打分与排序。
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/pkg/utils"
	"github.com/rushteam/learnfeed/pkg/vectormath"
)

// ScorePolicy 是相关性打分策略：各信号权重 + 已读惩罚。
//
// 最终得分 = (Sim×相似度 + Domain×领域匹配 + Type×形态匹配) × 已读惩罚，
// 结果 clamp 到 [0,1]。
//
// 策略即版本：同一 Version 必须对应同一组参数，调参时升级 Version，
// 保证离线评估与线上行为可对照。
type ScorePolicy struct {
	// Version 算法版本号，随 Recommendation 一起返回
	Version string

	// SimilarityWeight / DomainWeight / TypeWeight 三路信号权重，
	// 要求各自非负且和为 1
	SimilarityWeight float64
	DomainWeight     float64
	TypeWeight       float64

	// SeenPenalty 已读惩罚系数 (0,1]：画像窗口内交互过的内容降权但不剔除，
	// 复习场景仍可露出
	SeenPenalty float64
}

// DefaultScorePolicy 返回默认打分策略。
func DefaultScorePolicy() *ScorePolicy {
	return &ScorePolicy{
		Version:          "v1.0",
		SimilarityWeight: 0.6,
		DomainWeight:     0.2,
		TypeWeight:       0.2,
		SeenPenalty:      0.3,
	}
}

// Validate 校验策略参数。
func (p *ScorePolicy) Validate() error {
	if p.Version == "" {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: score policy requires a version")
	}
	if p.SimilarityWeight < 0 || p.DomainWeight < 0 || p.TypeWeight < 0 {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: score weights must be non-negative")
	}
	sum := p.SimilarityWeight + p.DomainWeight + p.TypeWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput,
			fmt.Sprintf("rank: score weights must sum to 1, got %v", sum))
	}
	if p.SeenPenalty <= 0 || p.SeenPenalty > 1 {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: seen penalty must be in (0,1]")
	}
	return nil
}

// RelevanceNode 是相关性排序 Node：对候选内容计算综合相关性分并降序排序。
//
// 三路信号：
//   - 相似度：画像向量与内容向量的余弦相似度（负相关按 0 计）
//   - 领域匹配：内容主题与 active_domains 有交集记 1，否则 0
//   - 形态匹配：内容形态在 active_content_types 中记 1，否则 0
//
// 冷启动（零向量画像）时相似度为 0，排序退化为纯偏好打分，这是
// 预期行为而不是错误。
//
// 排序稳定性：分数相同按 ContentID 升序，保证同一输入输出完全一致。
type RelevanceNode struct {
	Policy *ScorePolicy
}

func (n *RelevanceNode) Name() string        { return "rank.relevance" }
func (n *RelevanceNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *RelevanceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	policy := n.Policy
	if policy == nil {
		policy = DefaultScorePolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	profile := rctx.GetProfile()

	for _, it := range items {
		if it == nil {
			continue
		}
		if err := n.score(it, profile, policy); err != nil {
			return nil, err
		}
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

// score 计算单条内容的综合相关性分并写入打分 labels。
func (n *RelevanceNode) score(it *core.Item, profile *core.UserProfile, policy *ScorePolicy) error {
	c := it.Content
	if c == nil {
		// 未回填内容的 item 无法打分，置 0 沉底
		it.Score = 0
		return nil
	}

	similarity := 0.0
	if !profile.ColdStart() {
		sim, err := vectormath.Cosine(profile.Vector, c.Embedding)
		if err != nil {
			// 维度不一致是数据错误，必须上抛
			return err
		}
		// 负相关按 0 计：反向兴趣不应获得相似度得分
		similarity = math.Max(0, sim)
	}

	domainMatch := 0.0
	if c.HasAnyTopic(profile.ActiveDomains) {
		domainMatch = 1.0
	}

	typeMatch := 0.0
	if profile.PrefersType(c.ContentType) {
		typeMatch = 1.0
	}

	score := policy.SimilarityWeight*similarity +
		policy.DomainWeight*domainMatch +
		policy.TypeWeight*typeMatch

	seen := profile.Seen(it.ID)
	if seen {
		score *= policy.SeenPenalty
	}

	if !vectormath.Finite(score) {
		return core.NewDomainError(core.ModuleRank, core.ErrorCodeInternalError,
			fmt.Sprintf("rank: non-finite score for content %s", it.ID))
	}

	// clamp 到 [0,1]
	score = math.Max(0, math.Min(1, score))
	it.Score = score

	it.PutLabel("rank_similarity", utils.Label{Value: formatScore(similarity), Source: "rank"})
	it.PutLabel("rank_domain_match", utils.Label{Value: formatScore(domainMatch), Source: "rank"})
	it.PutLabel("rank_type_match", utils.Label{Value: formatScore(typeMatch), Source: "rank"})
	if seen {
		it.PutLabel("rank_seen", utils.Label{Value: "true", Source: "rank"})
	}
	it.PutLabel("algorithm_version", utils.Label{Value: policy.Version, Source: "rank"})
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
