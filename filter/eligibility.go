package filter

import (
	"context"

	"github.com/rushteam/learnfeed/core"
)

// EligibilityFilter 是候选资格过滤器：打分前剔除不合格内容。
//
// 过滤条件（打分前硬过滤，不合格内容不应占用 TopK 名额）：
//   - 非 approved 或缺向量（召回适配器应已保证，这里兜底）
//   - 难度超出用户在该领域的自评水平 MaxLevelGap 档以上
//   - 时长超出偏好上限
type EligibilityFilter struct {
	// MaxLevelGap 内容难度允许超出用户自评水平的档数，默认 1。
	// 例如 beginner 用户：beginner/intermediate 保留，advanced 过滤。
	MaxLevelGap int
}

func (f *EligibilityFilter) Name() string {
	return "filter.eligibility"
}

func (f *EligibilityFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	c := item.Content
	if c == nil {
		// 只有 ID 的 item（如未回填内容的趋势召回）不在此过滤
		return false, nil
	}

	if !c.Eligible() {
		return true, nil
	}

	prefs := rctx.Preferences
	if prefs == nil {
		return false, nil
	}

	if prefs.MaxDurationMinutes > 0 && c.DurationMinutes > prefs.MaxDurationMinutes {
		return true, nil
	}

	return f.exceedsSkillLevel(c, prefs), nil
}

// exceedsSkillLevel 判断内容难度是否超出用户自评水平。
// 只在内容主题命中自评领域时生效；未自评的领域不限难度。
func (f *EligibilityFilter) exceedsSkillLevel(c *core.ContentItem, prefs *core.UserPreferences) bool {
	if len(prefs.SkillLevels) == 0 {
		return false
	}

	gap := f.MaxLevelGap
	if gap <= 0 {
		gap = 1
	}

	contentRank := c.DifficultyLevel.Rank()
	if contentRank < 0 {
		return false // 未知难度不按档位过滤
	}

	for domain, level := range prefs.SkillLevels {
		if !c.HasTopic(domain) {
			continue
		}
		if userRank := level.Rank(); userRank >= 0 && contentRank > userRank+gap {
			return true
		}
	}
	return false
}
